package documents

import "time"

// Document represents one ingested file instance tracked through its
// processing lifecycle.
type Document struct {
	ID               string
	OriginalFilename string
	StorageURL       string
	Status           string
	ContentSHA256    string
	ErrorMessage     *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
