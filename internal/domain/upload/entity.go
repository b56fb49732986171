// internal/domain/upload/entity.go
package upload

import "errors"

var (
	// ErrNotConfigured is returned when no image host API key is set
	ErrNotConfigured = errors.New("image host is not configured")
	// ErrEmptyFile is returned for a zero-byte upload
	ErrEmptyFile = errors.New("uploaded file is empty")
	// ErrTooLarge is returned when the upload exceeds the configured size
	ErrTooLarge = errors.New("uploaded file is too large")
	// ErrUnsupportedType is returned for content that is not an allowed image type
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrImageHost wraps failures reported by the image host
	ErrImageHost = errors.New("image host request failed")
)

// AllowedMimeTypes lists the image types accepted for upload
var AllowedMimeTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// ImageResult describes an image stored at the host
type ImageResult struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	DisplayURL string `json:"display_url"`
	DeleteURL  string `json:"delete_url,omitempty"`
	MimeType   string `json:"mime_type"`
	Size       int64  `json:"size"`
}

// hostResponse is the image host's upload reply
type hostResponse struct {
	Data struct {
		ID         string `json:"id"`
		URL        string `json:"url"`
		DisplayURL string `json:"display_url"`
		DeleteURL  string `json:"delete_url"`
	} `json:"data"`
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
