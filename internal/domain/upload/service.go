// internal/domain/upload/service.go
package upload

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
	"github.com/your-org/menu-backend/internal/config"
)

// Service forwards menu images to the third-party image host
type Service struct {
	client *http.Client
	config config.ImageHostConfig
	logger logrus.FieldLogger
}

// NewService creates a new upload service
func NewService(cfg config.ImageHostConfig, logger logrus.FieldLogger) *Service {
	return &Service{
		client: &http.Client{Timeout: cfg.Timeout},
		config: cfg,
		logger: logger,
	}
}

// UploadImage validates the image read from r and stores it at the host
func (s *Service) UploadImage(ctx context.Context, filename string, r io.Reader) (*ImageResult, error) {
	if !s.config.Enabled {
		return nil, ErrNotConfigured
	}

	data, err := io.ReadAll(io.LimitReader(r, s.config.MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > s.config.MaxSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, s.config.MaxSize)
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), AllowedMimeTypes...) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
	}

	form := url.Values{}
	form.Set("key", s.config.APIKey)
	form.Set(s.fieldName(), base64.StdEncoding.EncodeToString(data))
	if name := imageName(filename); name != "" {
		form.Set("name", name)
	}
	if s.config.ImageTTL > 0 {
		form.Set("expiration", strconv.Itoa(int(s.config.ImageTTL.Seconds())))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build image host request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageHost, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrImageHost, err)
	}

	var parsed hostResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: status %d, unreadable response", ErrImageHost, resp.StatusCode)
	}
	if resp.StatusCode >= 300 || !parsed.Success {
		message := http.StatusText(resp.StatusCode)
		if parsed.Error != nil && parsed.Error.Message != "" {
			message = parsed.Error.Message
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrImageHost, resp.StatusCode, message)
	}

	s.logger.WithFields(logrus.Fields{
		"image_id":  parsed.Data.ID,
		"mime_type": mtype.String(),
		"size":      len(data),
	}).Info("Image uploaded to host")

	return &ImageResult{
		ID:         parsed.Data.ID,
		URL:        parsed.Data.URL,
		DisplayURL: parsed.Data.DisplayURL,
		DeleteURL:  parsed.Data.DeleteURL,
		MimeType:   mtype.String(),
		Size:       int64(len(data)),
	}, nil
}

func (s *Service) fieldName() string {
	if s.config.FieldName == "" {
		return "image"
	}
	return s.config.FieldName
}

// imageName strips directories and the extension from a client file name
func imageName(filename string) string {
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
