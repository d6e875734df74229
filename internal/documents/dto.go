package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"originalFilename"`
	StorageURL       string    `json:"storageUrl"`
	Status           string    `json:"status"`
	ErrorMessage     *string   `json:"errorMessage"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// DocumentDetailResponse adds the extracted metadata to a document.
type DocumentDetailResponse struct {
	DocumentResponse
	Core     map[string]string `json:"core"`
	Semantic map[string]string `json:"semantic,omitempty"`
}

// DocumentListResponse is a paged list of documents.
type DocumentListResponse struct {
	Items  []DocumentResponse `json:"items"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		ID:               doc.ID,
		OriginalFilename: doc.OriginalFilename,
		StorageURL:       doc.StorageURL,
		Status:           doc.Status,
		ErrorMessage:     doc.ErrorMessage,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
}

func toDetailResponse(detail Detail) DocumentDetailResponse {
	return DocumentDetailResponse{
		DocumentResponse: toResponse(detail.Document),
		Core:             detail.Core,
		Semantic:         detail.Semantic,
	}
}
