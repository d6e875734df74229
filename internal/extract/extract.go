package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	corePartName = "docProps/core.xml"
	appPartName  = "docProps/app.xml"
)

// ExtractionError reports a malformed or unsupported input document.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Path == "" {
		return "extract metadata: " + e.Err.Error()
	}
	return fmt.Sprintf("extract metadata %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Result holds the metadata extracted from one document. Semantic is nil when
// the document carries no extended-properties part: nil means "not computed",
// an empty map means "computed, nothing found".
type Result struct {
	Core     map[string]string
	Semantic map[string]string
}

// HasSemantic reports whether semantic metadata was computed.
func (r Result) HasSemantic() bool { return r.Semantic != nil }

// coreProperties maps OPC core-property element names to the stored keys.
// Elements are matched by XML local name; dc:description is exposed as
// "comments" per the OOXML core-properties convention.
var coreProperties = map[string]string{
	"creator":        "author",
	"title":          "title",
	"subject":        "subject",
	"category":       "category",
	"description":    "comments",
	"contentStatus":  "content_status",
	"created":        "created",
	"identifier":     "identifier",
	"keywords":       "keywords",
	"language":       "language",
	"lastModifiedBy": "last_modified_by",
	"lastPrinted":    "last_printed",
	"modified":       "modified",
	"revision":       "revision",
	"version":        "version",
}

// appProperties maps extended-property element names to semantic keys.
var appProperties = map[string]string{
	"Application": "application",
	"AppVersion":  "app_version",
	"Company":     "company",
	"Pages":       "pages",
	"Words":       "words",
	"Characters":  "characters",
	"Lines":       "lines",
	"Paragraphs":  "paragraphs",
	"TotalTime":   "total_time",
	"Template":    "template",
}

// ExtractFile reads a DOCX file from disk and extracts its metadata. It only
// reads the input; it never touches the database.
func ExtractFile(ctx context.Context, path string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, &ExtractionError{Path: path, Err: err}
	}

	res, err := Extract(ctx, data)
	if err != nil {
		var extErr *ExtractionError
		if errors.As(err, &extErr) {
			extErr.Path = path
		}
		return Result{}, err
	}
	return res, nil
}

// Extract pulls core and, when present, semantic metadata from an in-memory
// DOCX payload.
func Extract(ctx context.Context, data []byte) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(data) == 0 {
		return Result{}, &ExtractionError{Err: errors.New("empty document data")}
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, &ExtractionError{Err: fmt.Errorf("not a valid docx archive: %w", err)}
	}

	coreFile := findPart(zr, corePartName)
	if coreFile == nil {
		return Result{}, &ExtractionError{Err: errors.New(corePartName + " not found")}
	}

	coreRaw, err := readPart(coreFile)
	if err != nil {
		return Result{}, &ExtractionError{Err: fmt.Errorf("read %s: %w", corePartName, err)}
	}
	core, err := parseProperties(coreRaw, coreProperties)
	if err != nil {
		return Result{}, &ExtractionError{Err: fmt.Errorf("parse %s: %w", corePartName, err)}
	}

	res := Result{Core: core}

	// The extended-properties part is optional; documents without it yield
	// no semantic metadata at all, which is distinct from an empty mapping.
	if appFile := findPart(zr, appPartName); appFile != nil {
		appRaw, err := readPart(appFile)
		if err != nil {
			return Result{}, &ExtractionError{Err: fmt.Errorf("read %s: %w", appPartName, err)}
		}
		semantic, err := parseProperties(appRaw, appProperties)
		if err != nil {
			return Result{}, &ExtractionError{Err: fmt.Errorf("parse %s: %w", appPartName, err)}
		}
		res.Semantic = semantic
	}

	return res, nil
}

func findPart(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == name {
			return f
		}
	}
	return nil
}

func readPart(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// parseProperties walks the property part and collects mapped elements.
// Missing properties are absent keys, never empty placeholders. Date values
// stay in their W3CDTF (ISO-8601) text form.
func parseProperties(raw []byte, mapping map[string]string) (map[string]string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	out := map[string]string{}

	var current string
	var text strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if _, ok := mapping[t.Name.Local]; ok {
				current = t.Name.Local
				text.Reset()
			}
		case xml.CharData:
			if current != "" {
				text.Write(t)
			}
		case xml.EndElement:
			if current != "" && t.Name.Local == current {
				if value := strings.TrimSpace(text.String()); value != "" {
					out[mapping[current]] = value
				}
				current = ""
			}
		}
	}
	return out, nil
}
