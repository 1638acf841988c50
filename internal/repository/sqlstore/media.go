package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Kyz7/pixelarts/internal/models"
	"github.com/Kyz7/pixelarts/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// updatableColumns excludes the counters so an edit never overwrites
// increments that landed while the admin form was open.
var updatableColumns = []string{
	"title", "description", "type", "url", "thumbnail_url", "category", "tags",
	"is_active", "is_featured", "sort_order",
	"cloudinary_public_id", "thumbnail_public_id", "storage_provider",
	"file_size", "mime_type", "width", "height", "duration",
	"meta_upload_source", "meta_original_name", "meta_quality",
	"seo_keywords", "seo_alt_text", "updated_at",
}

// likeEscaper makes search text literal inside LIKE ... ESCAPE '!' patterns.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

type MediaRepository struct {
	db *gorm.DB
}

func NewMediaRepository(db *gorm.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

func (r *MediaRepository) Create(ctx context.Context, m *models.Media) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

func (r *MediaRepository) FindByID(ctx context.Context, id string) (*models.Media, error) {
	var m models.Media
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *MediaRepository) List(ctx context.Context, f repository.MediaFilter) ([]models.Media, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Media{})

	if f.Type != "" {
		query = query.Where("type = ?", f.Type)
	}
	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}
	if f.Featured != nil {
		query = query.Where("is_featured = ?", *f.Featured)
	}
	if f.Active != nil {
		query = query.Where("is_active = ?", *f.Active)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		query = query.Where(
			"LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!' OR LOWER("+r.textCast("tags")+") LIKE ? ESCAPE '!'",
			like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count media: %w", err)
	}

	items := []models.Media{}
	err := query.
		Order(orderClause(f.Sort)).
		Offset(f.Offset()).
		Limit(f.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list media: %w", err)
	}

	return items, total, nil
}

func (r *MediaRepository) Update(ctx context.Context, m *models.Media) error {
	m.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).Model(m).Select(updatableColumns).Updates(m)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MediaRepository) UpdateSortOrders(ctx context.Context, updates []repository.SortOrderUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			result := tx.Model(&models.Media{}).
				Where("id = ?", u.ID).
				UpdateColumns(map[string]interface{}{
					"sort_order": u.SortOrder,
					"updated_at": time.Now(),
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("media %s: %w", u.ID, repository.ErrNotFound)
			}
		}
		return nil
	})
}

func (r *MediaRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Media{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MediaRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	return r.increment(ctx, id, "view_count")
}

func (r *MediaRepository) IncrementClicks(ctx context.Context, id string) (int64, error) {
	return r.increment(ctx, id, "click_count")
}

func (r *MediaRepository) increment(ctx context.Context, id, column string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Media{}).
			Where("id = ?", id).
			UpdateColumn(column, gorm.Expr(column+" + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return repository.ErrNotFound
		}
		return tx.Model(&models.Media{}).
			Select(column).
			Where("id = ?", id).
			Row().
			Scan(&count)
	})
	if err != nil {
		return 0, translate(err)
	}
	return count, nil
}

func (r *MediaRepository) Stats(ctx context.Context, since time.Time) (*models.MediaStats, error) {
	db := r.db.WithContext(ctx)
	stats := &models.MediaStats{ByCategory: map[models.Category]int64{}}

	counts := []struct {
		dest  *int64
		where string
		args  []interface{}
	}{
		{&stats.TotalMedia, "", nil},
		{&stats.TotalImages, "type = ?", []interface{}{models.MediaTypeImage}},
		{&stats.TotalVideos, "type = ?", []interface{}{models.MediaTypeVideo}},
		{&stats.ActiveMedia, "is_active = ?", []interface{}{true}},
		{&stats.FeaturedMedia, "is_featured = ?", []interface{}{true}},
		{&stats.RecentUploads, "created_at >= ?", []interface{}{since}},
	}
	for _, c := range counts {
		q := db.Model(&models.Media{})
		if c.where != "" {
			q = q.Where(c.where, c.args...)
		}
		if err := q.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("media stats: %w", err)
		}
	}

	var sums struct {
		Views  int64
		Clicks int64
		Bytes  int64
	}
	err := db.Model(&models.Media{}).
		Select("COALESCE(SUM(view_count), 0) AS views, COALESCE(SUM(click_count), 0) AS clicks, COALESCE(SUM(file_size), 0) AS bytes").
		Scan(&sums).Error
	if err != nil {
		return nil, fmt.Errorf("media stats sums: %w", err)
	}
	stats.TotalViews = sums.Views
	stats.TotalClicks = sums.Clicks
	stats.TotalBytes = sums.Bytes

	var rows []struct {
		Category models.Category
		Count    int64
	}
	err = db.Model(&models.Media{}).
		Select("category, COUNT(*) AS count").
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("media stats by category: %w", err)
	}
	for _, row := range rows {
		stats.ByCategory[row.Category] = row.Count
	}

	return stats, nil
}

func (r *MediaRepository) textCast(column string) string {
	if r.db.Dialector.Name() == "mysql" {
		return "CAST(" + column + " AS CHAR)"
	}
	return "CAST(" + column + " AS TEXT)"
}

func orderClause(sort string) string {
	switch sort {
	case repository.SortOldest:
		return "created_at ASC"
	case repository.SortTitle:
		return "title ASC"
	case repository.SortOrder:
		return "sort_order ASC, created_at DESC"
	case repository.SortPopular:
		return "view_count DESC, created_at DESC"
	default:
		return "created_at DESC"
	}
}
