package mongostore

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Kyz7/pixelarts/internal/models"
	"github.com/Kyz7/pixelarts/internal/repository"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MediaRepository struct {
	coll *mongo.Collection
}

func NewMediaRepository(db *mongo.Database) *MediaRepository {
	return &MediaRepository{coll: db.Collection(mediaCollection)}
}

func (r *MediaRepository) Create(ctx context.Context, m *models.Media) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	if m.Tags == nil {
		m.Tags = []string{}
	}
	if m.SEO.Keywords == nil {
		m.SEO.Keywords = []string{}
	}

	_, err := r.coll.InsertOne(ctx, m)
	return translate(err)
}

func (r *MediaRepository) FindByID(ctx context.Context, id string) (*models.Media, error) {
	var m models.Media
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *MediaRepository) List(ctx context.Context, f repository.MediaFilter) ([]models.Media, int64, error) {
	filter := listFilter(f)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count media: %w", err)
	}

	opts := options.Find().
		SetSort(sortDocument(f.Sort)).
		SetSkip(int64(f.Offset())).
		SetLimit(int64(f.Limit))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list media: %w", err)
	}
	defer cursor.Close(ctx)

	items := []models.Media{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("decode media: %w", err)
	}
	return items, total, nil
}

func listFilter(f repository.MediaFilter) bson.M {
	filter := bson.M{}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Featured != nil {
		filter["isFeatured"] = *f.Featured
	}
	if f.Active != nil {
		filter["isActive"] = *f.Active
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
			bson.M{"tags": pattern},
		}
	}
	return filter
}

func sortDocument(sort string) bson.D {
	switch sort {
	case repository.SortOldest:
		return bson.D{{Key: "createdAt", Value: 1}}
	case repository.SortTitle:
		return bson.D{{Key: "title", Value: 1}}
	case repository.SortOrder:
		return bson.D{{Key: "sortOrder", Value: 1}, {Key: "createdAt", Value: -1}}
	case repository.SortPopular:
		return bson.D{{Key: "viewCount", Value: -1}, {Key: "createdAt", Value: -1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}}
	}
}

func (r *MediaRepository) Update(ctx context.Context, m *models.Media) error {
	m.UpdatedAt = time.Now().UTC()
	if m.Tags == nil {
		m.Tags = []string{}
	}

	// Counters and creation data are owned by the store, not the caller.
	set := bson.M{
		"title":              m.Title,
		"description":        m.Description,
		"type":               m.Type,
		"url":                m.URL,
		"thumbnailUrl":       m.ThumbnailURL,
		"category":           m.Category,
		"tags":               m.Tags,
		"isActive":           m.IsActive,
		"isFeatured":         m.IsFeatured,
		"sortOrder":          m.SortOrder,
		"cloudinaryPublicId": m.CloudinaryPublicID,
		"thumbnailPublicId":  m.ThumbnailPublicID,
		"storageProvider":    m.StorageProvider,
		"fileSize":           m.FileSize,
		"mimeType":           m.MimeType,
		"width":              m.Width,
		"height":             m.Height,
		"duration":           m.Duration,
		"metadata":           m.Metadata,
		"seo":                m.SEO,
		"updatedAt":          m.UpdatedAt,
	}

	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": m.ID}, bson.M{"$set": set})
	if err != nil {
		return translate(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MediaRepository) UpdateSortOrders(ctx context.Context, updates []repository.SortOrderUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	ids := make([]string, 0, len(updates))
	seen := make(map[string]struct{}, len(updates))
	writes := make([]mongo.WriteModel, 0, len(updates))
	now := time.Now().UTC()
	for _, u := range updates {
		if _, ok := seen[u.ID]; !ok {
			seen[u.ID] = struct{}{}
			ids = append(ids, u.ID)
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": u.ID}).
			SetUpdate(bson.M{"$set": bson.M{"sortOrder": u.SortOrder, "updatedAt": now}}))
	}

	// Standalone servers have no transactions, so unknown ids are rejected up front.
	found, err := r.coll.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return err
	}
	if found != int64(len(ids)) {
		return fmt.Errorf("reorder %d of %d media: %w", len(ids)-int(found), len(ids), repository.ErrNotFound)
	}

	_, err = r.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
	return err
}

func (r *MediaRepository) Delete(ctx context.Context, id string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MediaRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	m, err := r.increment(ctx, id, "viewCount")
	if err != nil {
		return 0, err
	}
	return m.ViewCount, nil
}

func (r *MediaRepository) IncrementClicks(ctx context.Context, id string) (int64, error) {
	m, err := r.increment(ctx, id, "clickCount")
	if err != nil {
		return 0, err
	}
	return m.ClickCount, nil
}

func (r *MediaRepository) increment(ctx context.Context, id, field string) (*models.Media, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"viewCount": 1, "clickCount": 1})

	var m models.Media
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{field: 1}}, opts).Decode(&m)
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

type totalsRow struct {
	Total    int64 `bson:"total"`
	Images   int64 `bson:"images"`
	Videos   int64 `bson:"videos"`
	Active   int64 `bson:"active"`
	Featured int64 `bson:"featured"`
	Views    int64 `bson:"views"`
	Clicks   int64 `bson:"clicks"`
	Bytes    int64 `bson:"bytes"`
	Recent   int64 `bson:"recent"`
}

func (r *MediaRepository) Stats(ctx context.Context, since time.Time) (*models.MediaStats, error) {
	countIf := func(cond interface{}) bson.M {
		return bson.M{"$sum": bson.M{"$cond": bson.A{cond, 1, 0}}}
	}

	totalsPipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":      nil,
			"total":    bson.M{"$sum": 1},
			"images":   countIf(bson.M{"$eq": bson.A{"$type", models.MediaTypeImage}}),
			"videos":   countIf(bson.M{"$eq": bson.A{"$type", models.MediaTypeVideo}}),
			"active":   countIf("$isActive"),
			"featured": countIf("$isFeatured"),
			"views":    bson.M{"$sum": "$viewCount"},
			"clicks":   bson.M{"$sum": "$clickCount"},
			"bytes":    bson.M{"$sum": "$fileSize"},
			"recent":   countIf(bson.M{"$gte": bson.A{"$createdAt", since}}),
		}}},
	}

	var totals []totalsRow
	if err := r.aggregate(ctx, totalsPipeline, &totals); err != nil {
		return nil, fmt.Errorf("media stats: %w", err)
	}

	stats := &models.MediaStats{ByCategory: map[models.Category]int64{}}
	if len(totals) > 0 {
		t := totals[0]
		stats.TotalMedia = t.Total
		stats.TotalImages = t.Images
		stats.TotalVideos = t.Videos
		stats.ActiveMedia = t.Active
		stats.FeaturedMedia = t.Featured
		stats.TotalViews = t.Views
		stats.TotalClicks = t.Clicks
		stats.TotalBytes = t.Bytes
		stats.RecentUploads = t.Recent
	}

	categoryPipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
	}
	var rows []struct {
		Category models.Category `bson:"_id"`
		Count    int64           `bson:"count"`
	}
	if err := r.aggregate(ctx, categoryPipeline, &rows); err != nil {
		return nil, fmt.Errorf("media stats by category: %w", err)
	}
	for _, row := range rows {
		stats.ByCategory[row.Category] = row.Count
	}

	return stats, nil
}

func (r *MediaRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline, out interface{}) error {
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}
