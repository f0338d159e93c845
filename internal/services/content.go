package services

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ngenohkevin/lmsdesk/internal/models"
)

// MaxMediaSize caps uploads accepted from the editor.
const MaxMediaSize = 10 << 20

var allowedMediaTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"video/mp4",
	"application/pdf",
}

type ContentStore interface {
	ListContents(ctx context.Context) ([]models.Content, error)
	GetByID(ctx context.Context, id int64) (models.Content, error)
	Create(ctx context.Context, req models.ContentRequest) (models.Content, error)
	Update(ctx context.Context, id int64, req models.ContentRequest) (models.Content, error)
	Remove(ctx context.Context, id int64) error
	UploadMedia(ctx context.Context, filename string, file io.Reader) (models.MediaUpload, error)
}

type ContentServiceInterface interface {
	ListContents(ctx context.Context) ([]models.Content, error)
	GetContent(ctx context.Context, id int64) (models.Content, error)
	CreateContent(ctx context.Context, req models.ContentRequest) (models.Content, error)
	UpdateContent(ctx context.Context, id int64, req models.ContentRequest) (models.Content, error)
	DeleteContent(ctx context.Context, id int64) error
	UploadMedia(ctx context.Context, filename string, file io.Reader) (models.MediaUpload, error)
}

type ContentService struct {
	store ContentStore
}

func NewContentService(store ContentStore) *ContentService {
	return &ContentService{store: store}
}

func (s *ContentService) ListContents(ctx context.Context) ([]models.Content, error) {
	return s.store.ListContents(ctx)
}

func (s *ContentService) GetContent(ctx context.Context, id int64) (models.Content, error) {
	if err := checkID(id); err != nil {
		return models.Content{}, err
	}
	return s.store.GetByID(ctx, id)
}

func (s *ContentService) CreateContent(ctx context.Context, req models.ContentRequest) (models.Content, error) {
	if req.Status == "" {
		req.Status = models.ContentStatusDraft
	}
	if err := models.Validate(req); err != nil {
		return models.Content{}, err
	}
	return s.store.Create(ctx, req)
}

func (s *ContentService) UpdateContent(ctx context.Context, id int64, req models.ContentRequest) (models.Content, error) {
	if err := checkID(id); err != nil {
		return models.Content{}, err
	}
	if err := models.Validate(req); err != nil {
		return models.Content{}, err
	}
	return s.store.Update(ctx, id, req)
}

func (s *ContentService) DeleteContent(ctx context.Context, id int64) error {
	if err := checkID(id); err != nil {
		return err
	}
	return s.store.Remove(ctx, id)
}

// UploadMedia sniffs the file's real type before handing it to the API.
func (s *ContentService) UploadMedia(ctx context.Context, filename string, file io.Reader) (models.MediaUpload, error) {
	data, err := io.ReadAll(io.LimitReader(file, MaxMediaSize+1))
	if err != nil {
		return models.MediaUpload{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return models.MediaUpload{}, models.NewValidationError("file", "is empty")
	}
	if len(data) > MaxMediaSize {
		return models.MediaUpload{}, models.NewValidationError("file", fmt.Sprintf("must be at most %d bytes", MaxMediaSize))
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedMediaTypes...) {
		return models.MediaUpload{}, models.NewValidationError("file", fmt.Sprintf("unsupported media type %s", mtype.String()))
	}

	return s.store.UploadMedia(ctx, filename, bytes.NewReader(data))
}
