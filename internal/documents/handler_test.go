package documents_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"mdx-backend/internal/bootstrap"
	"mdx-backend/internal/server"
	"mdx-backend/internal/shared/config"
)

func newTestRouter(t *testing.T) (*gin.Engine, *bootstrap.App) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		Env:             "dev",
	}
	app, err := bootstrap.Build(context.Background(), cfg, bootstrap.Options{})
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	t.Cleanup(app.Close)
	return server.NewRouter(app), app
}

func uploadFile(t *testing.T, router *gin.Engine, fileName string, contents []byte) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fileWriter, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fileWriter.Write(contents); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestDocumentsUploadAndGet(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := uploadFile(t, router, "report.docx", []byte("not really a docx"))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected id, got empty")
	}
	if created.Status != "uploaded" {
		t.Fatalf("expected uploaded, got %s", created.Status)
	}

	reqGet := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+created.ID, nil)
	respGet := httptest.NewRecorder()
	router.ServeHTTP(respGet, reqGet)
	if respGet.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", respGet.Code)
	}

	var detail struct {
		ID   string            `json:"id"`
		Core map[string]string `json:"core"`
	}
	if err := json.NewDecoder(respGet.Body).Decode(&detail); err != nil {
		t.Fatalf("decode detail response: %v", err)
	}
	if detail.ID != created.ID {
		t.Fatalf("expected %s, got %s", created.ID, detail.ID)
	}
	if detail.Core == nil {
		t.Fatal("expected core object, got null")
	}
}

func TestDocumentsUploadMissingFile(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	var errResp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Error.Code != "validation_error" {
		t.Fatalf("expected validation_error, got %s", errResp.Error.Code)
	}
}

func TestDocumentsGetUnknownReturnsNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/nope", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestDocumentsListAndDelete(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := uploadFile(t, router, "a.docx", []byte("aaa"))
	if resp.Code != http.StatusCreated {
		t.Fatalf("upload a: %d", resp.Code)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp := uploadFile(t, router, "b.docx", []byte("bbb")); resp.Code != http.StatusCreated {
		t.Fatalf("upload b: %d", resp.Code)
	}

	reqList := httptest.NewRequest(http.MethodGet, "/api/v1/documents?limit=10", nil)
	respList := httptest.NewRecorder()
	router.ServeHTTP(respList, reqList)
	if respList.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", respList.Code)
	}

	var list struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := json.NewDecoder(respList.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(list.Items))
	}

	reqDel := httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+created.ID, nil)
	respDel := httptest.NewRecorder()
	router.ServeHTTP(respDel, reqDel)
	if respDel.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", respDel.Code)
	}

	reqGone := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+created.ID, nil)
	respGone := httptest.NewRecorder()
	router.ServeHTTP(respGone, reqGone)
	if respGone.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", respGone.Code)
	}
}

func TestDocumentsListByCreator(t *testing.T) {
	router, app := newTestRouter(t)
	ctx := context.Background()

	resp := uploadFile(t, router, "alice.docx", []byte("aaa"))
	if resp.Code != http.StatusCreated {
		t.Fatalf("upload: %d", resp.Code)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := app.MetadataStore.UpsertCore(ctx, created.ID, map[string]string{"author": "Alice"}); err != nil {
		t.Fatalf("UpsertCore: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents?creator=Alice", nil)
	respList := httptest.NewRecorder()
	router.ServeHTTP(respList, req)
	if respList.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", respList.Code)
	}

	var list struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := json.NewDecoder(respList.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].ID != created.ID {
		t.Fatalf("unexpected creator listing: %+v", list.Items)
	}

	reqNone := httptest.NewRequest(http.MethodGet, "/api/v1/documents?creator=Bob", nil)
	respNone := httptest.NewRecorder()
	router.ServeHTTP(respNone, reqNone)
	if respNone.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", respNone.Code)
	}
	list.Items = nil
	if err := json.NewDecoder(respNone.Body).Decode(&list); err != nil {
		t.Fatalf("decode empty list: %v", err)
	}
	if len(list.Items) != 0 {
		t.Fatalf("expected no items for Bob, got %+v", list.Items)
	}
}
