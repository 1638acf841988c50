package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/Kyz7/pixelarts/internal/logger"
	"github.com/Kyz7/pixelarts/internal/models"
	"github.com/Kyz7/pixelarts/internal/repository"
	"github.com/Kyz7/pixelarts/internal/response"
	"github.com/Kyz7/pixelarts/internal/storage"
	"github.com/microcosm-cc/bluemonday"
)

const (
	MaxImageSize = 10 << 20
	MaxVideoSize = 100 << 20

	maxTitleLength       = 200
	maxDescriptionLength = 2000
	maxAltTextLength     = 255
	maxTags              = 30
	maxTagLength         = 50
	maxReorderItems      = 500

	recentUploadsWindow = 7 * 24 * time.Hour

	cleanupWarning = "File deleted from database but may still exist in storage"
)

var (
	ErrUnsupportedFile = errors.New("only image and video files are allowed")
	ErrFileTooLarge    = errors.New("file too large")

	titlePolicy       = bluemonday.StrictPolicy()
	descriptionPolicy = bluemonday.UGCPolicy()
)

type ValidationError struct {
	Fields []response.FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "validation failed: " + strings.Join(names, ", ")
}

// UploadError wraps a storage provider failure during create.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return "upload to storage failed: " + e.Err.Error()
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// File is an uploaded asset. Content must be rewindable; images are read
// more than once.
type File struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.ReadSeeker
}

// Fields is client input for create and update. Nil means not provided.
type Fields struct {
	Title        *string
	Description  *string
	Type         *string
	URL          *string
	ThumbnailURL *string
	Category     *string
	Tags         *[]string
	Keywords     *[]string
	AltText      *string
	IsActive     *bool
	IsFeatured   *bool
	SortOrder    *int
	Duration     *float64
}

type Service struct {
	repo    repository.MediaRepository
	users   repository.UserRepository
	storage storage.Provider
	metrics *Metrics
	folder  string
	now     func() time.Time
}

func NewService(repo repository.MediaRepository, users repository.UserRepository, provider storage.Provider, metrics *Metrics, folder string) *Service {
	return &Service{
		repo:    repo,
		users:   users,
		storage: provider,
		metrics: metrics,
		folder:  folder,
		now:     time.Now,
	}
}

func (s *Service) StorageName() string {
	return s.storage.Name()
}

func (s *Service) List(ctx context.Context, f repository.MediaFilter) ([]models.Media, int64, error) {
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	refs := make([]*models.Media, len(items))
	for i := range items {
		refs[i] = &items[i]
	}
	s.attachUploaders(ctx, refs...)

	return items, total, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Media, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.attachUploaders(ctx, m)
	return m, nil
}

// View returns the item and records the view. Inactive items are only
// visible when includeInactive is set.
func (s *Service) View(ctx context.Context, id string, includeInactive bool) (*models.Media, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.IsActive && !includeInactive {
		return nil, repository.ErrNotFound
	}

	views, err := s.repo.IncrementViews(ctx, id)
	if err != nil {
		return nil, err
	}
	m.ViewCount = views

	s.attachUploaders(ctx, m)
	return m, nil
}

func (s *Service) Click(ctx context.Context, id string) (int64, error) {
	return s.repo.IncrementClicks(ctx, id)
}

func (s *Service) Stats(ctx context.Context) (*models.MediaStats, error) {
	stats, err := s.repo.Stats(ctx, s.now().Add(-recentUploadsWindow))
	if err != nil {
		return nil, err
	}
	stats.StorageMode = s.storage.Name()
	return stats, nil
}

func (s *Service) Create(ctx context.Context, in Fields, file *File, uploader *models.User) (*models.Media, error) {
	m := &models.Media{
		Type:     models.MediaTypeImage,
		Category: models.CategoryShowreel,
		IsActive: true,
		Tags:     []string{},
	}
	m.SEO.Keywords = []string{}
	if uploader != nil {
		m.UploadedBy = uploader.ID
	}

	errs := applyFields(m, in)
	if in.Title == nil {
		errs = append(errs, response.FieldError{Field: "title", Message: "Title is required"})
	}
	if file == nil && (in.URL == nil || strings.TrimSpace(*in.URL) == "") {
		errs = append(errs, response.FieldError{Field: "url", Message: "Either a file or a url is required"})
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	if m.SEO.AltText == "" {
		m.SEO.AltText = m.Title
	}

	if file != nil {
		if err := s.storeFile(ctx, m, file); err != nil {
			return nil, err
		}
	} else {
		m.Metadata = models.MediaMetadata{
			UploadSource: models.UploadSourceURL,
			Quality:      models.QualityMedium,
		}
	}

	if err := s.repo.Create(ctx, m); err != nil {
		s.removeAssets(ctx, m)
		return nil, fmt.Errorf("failed to save media: %w", err)
	}

	s.metrics.uploaded(string(m.Type), m.StorageProvider)
	if uploader != nil {
		m.Uploader = uploader.Summary()
	}

	logger.L().Infow("media created",
		"id", m.ID,
		"type", m.Type,
		"source", m.Metadata.UploadSource,
		"provider", m.StorageProvider,
	)
	return m, nil
}

// storeFile validates the upload, pushes it and its thumbnail to storage and
// fills the storage fields of m.
func (s *Service) storeFile(ctx context.Context, m *models.Media, file *File) error {
	contentType, err := detectContentType(file)
	if err != nil {
		return err
	}

	resource := storage.ResourceImage
	limit := int64(MaxImageSize)
	switch {
	case strings.HasPrefix(contentType, "video/"):
		resource = storage.ResourceVideo
		limit = MaxVideoSize
	case strings.HasPrefix(contentType, "image/"):
	default:
		return ErrUnsupportedFile
	}
	if file.Size > limit {
		return ErrFileTooLarge
	}

	var (
		width, height int
		thumb         []byte
	)
	if resource == storage.ResourceImage {
		if cfg, _, err := image.DecodeConfig(file.Content); err == nil {
			width, height = cfg.Width, cfg.Height
		}
		if err := rewind(file.Content); err != nil {
			return err
		}

		if m.ThumbnailURL == "" {
			thumb, err = generateThumbnail(file.Content)
			if err != nil {
				logger.L().Debugw("thumbnail skipped", "file", file.Filename, "error", err)
			}
			if err := rewind(file.Content); err != nil {
				return err
			}
		}
	}

	asset, err := s.storage.Upload(ctx, file.Content, storage.Object{
		Filename:     file.Filename,
		ContentType:  contentType,
		Size:         file.Size,
		ResourceType: resource,
		Folder:       s.folder,
	})
	if err != nil {
		return &UploadError{Err: err}
	}

	m.Type = models.MediaType(resource)
	m.URL = asset.URL
	m.CloudinaryPublicID = asset.PublicID
	m.StorageProvider = s.storage.Name()
	m.MimeType = contentType
	m.FileSize = file.Size
	if asset.Bytes > 0 {
		m.FileSize = asset.Bytes
	}
	if asset.Width > 0 && asset.Height > 0 {
		width, height = asset.Width, asset.Height
	}
	if width > 0 && height > 0 {
		m.Width, m.Height = &width, &height
	}
	m.Metadata = models.MediaMetadata{
		UploadSource: models.UploadSourceFile,
		OriginalName: file.Filename,
		Quality:      models.QualityHigh,
	}

	if len(thumb) > 0 {
		thumbAsset, err := s.storage.Upload(ctx, bytes.NewReader(thumb), storage.Object{
			Filename:     thumbnailName(file.Filename),
			ContentType:  "image/jpeg",
			Size:         int64(len(thumb)),
			ResourceType: storage.ResourceImage,
			Folder:       path.Join(s.folder, "thumbnails"),
		})
		if err != nil {
			logger.L().Warnw("⚠️ thumbnail upload failed", "file", file.Filename, "error", err)
		} else {
			m.ThumbnailURL = thumbAsset.URL
			m.ThumbnailPublicID = thumbAsset.PublicID
		}
	}

	return nil
}

func (s *Service) Update(ctx context.Context, id string, in Fields) (*models.Media, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := *m

	errs := applyFields(m, in)

	// Replacing an uploaded asset with a linked URL detaches the stored files.
	replaced := m.URL != previous.URL && previous.CloudinaryPublicID != ""

	// Storage deletes by resource type, so an attached asset pins the type.
	if m.Type != previous.Type && previous.CloudinaryPublicID != "" && !replaced {
		errs = append(errs, response.FieldError{Field: "type", Message: "Type cannot change while an uploaded file is attached; replace the url instead"})
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	if replaced {
		m.CloudinaryPublicID = ""
		m.StorageProvider = ""
		m.FileSize = 0
		m.MimeType = ""
		m.Width, m.Height = nil, nil
		m.Metadata = models.MediaMetadata{
			UploadSource: models.UploadSourceURL,
			Quality:      models.QualityMedium,
		}
		if in.ThumbnailURL == nil && previous.ThumbnailPublicID != "" {
			m.ThumbnailURL = ""
		}
		m.ThumbnailPublicID = ""
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}

	if replaced {
		s.removeAssets(ctx, &previous)
	}

	s.attachUploaders(ctx, m)
	return m, nil
}

// Delete removes the record. Storage cleanup is best-effort; failures come
// back as warnings.
func (s *Service) Delete(ctx context.Context, id string) ([]string, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	warnings := s.removeAssets(ctx, m)

	if err := s.repo.Delete(ctx, id); err != nil {
		return warnings, err
	}

	logger.L().Infow("media deleted", "id", id, "cleanupWarnings", len(warnings))
	return warnings, nil
}

func (s *Service) Reorder(ctx context.Context, items []repository.SortOrderUpdate) error {
	var errs []response.FieldError
	switch {
	case len(items) == 0:
		errs = append(errs, response.FieldError{Field: "items", Message: "At least one item is required"})
	case len(items) > maxReorderItems:
		errs = append(errs, response.FieldError{Field: "items", Message: fmt.Sprintf("At most %d items can be reordered at once", maxReorderItems)})
	}

	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		field := fmt.Sprintf("items[%d]", i)
		if !ValidID(item.ID) {
			errs = append(errs, response.FieldError{Field: field + ".id", Message: "Invalid media ID"})
			continue
		}
		if _, dup := seen[item.ID]; dup {
			errs = append(errs, response.FieldError{Field: field + ".id", Message: "Duplicate media ID"})
		}
		seen[item.ID] = struct{}{}
		if item.SortOrder < 0 {
			errs = append(errs, response.FieldError{Field: field + ".sortOrder", Message: "Sort order must not be negative"})
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}

	return s.repo.UpdateSortOrders(ctx, items)
}

func (s *Service) removeAssets(ctx context.Context, m *models.Media) []string {
	if m.CloudinaryPublicID == "" && m.ThumbnailPublicID == "" {
		return nil
	}

	if m.StorageProvider != "" && m.StorageProvider != s.storage.Name() {
		s.metrics.cleanupFailed()
		logger.L().Warnw("⚠️ asset belongs to another storage provider",
			"id", m.ID,
			"assetProvider", m.StorageProvider,
			"activeProvider", s.storage.Name(),
		)
		return []string{cleanupWarning}
	}

	resource := storage.ResourceImage
	if m.Type == models.MediaTypeVideo {
		resource = storage.ResourceVideo
	}

	var warnings []string
	for _, asset := range []struct{ publicID, resource string }{
		{m.CloudinaryPublicID, resource},
		{m.ThumbnailPublicID, storage.ResourceImage},
	} {
		if asset.publicID == "" {
			continue
		}
		if err := s.storage.Delete(ctx, asset.publicID, asset.resource); err != nil {
			s.metrics.cleanupFailed()
			logger.L().Warnw("⚠️ failed to delete asset from storage",
				"id", m.ID,
				"publicId", asset.publicID,
				"error", err,
			)
			warnings = append(warnings, cleanupWarning)
		}
	}
	return warnings
}

// attachUploaders fills Uploader on each item. Lookup failures leave it empty.
func (s *Service) attachUploaders(ctx context.Context, items ...*models.Media) {
	seen := make(map[string]struct{})
	var ids []string
	for _, m := range items {
		if m.UploadedBy == "" {
			continue
		}
		if _, ok := seen[m.UploadedBy]; !ok {
			seen[m.UploadedBy] = struct{}{}
			ids = append(ids, m.UploadedBy)
		}
	}
	if len(ids) == 0 {
		return
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		logger.L().Warnw("failed to load uploaders", "error", err)
		return
	}

	byID := make(map[string]*models.UserSummary, len(users))
	for i := range users {
		byID[users[i].ID] = users[i].Summary()
	}
	for _, m := range items {
		m.Uploader = byID[m.UploadedBy]
	}
}

func detectContentType(file *File) (string, error) {
	contentType := file.ContentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = parsed
	}
	if contentType != "" && contentType != "application/octet-stream" {
		return strings.ToLower(contentType), nil
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if err := rewind(file.Content); err != nil {
		return "", err
	}

	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(head[:n]))
	return sniffed, nil
}

func rewind(r io.Seeker) error {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind upload: %w", err)
	}
	return nil
}

func thumbnailName(filename string) string {
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	if base == "" || base == "." || base == "/" {
		base = "media"
	}
	return base + "-thumb.jpg"
}
