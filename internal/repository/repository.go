package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Kyz7/pixelarts/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

const (
	SortNewest  = "newest"
	SortOldest  = "oldest"
	SortTitle   = "title"
	SortOrder   = "order"
	SortPopular = "popular"
)

func ValidSort(s string) bool {
	switch s {
	case SortNewest, SortOldest, SortTitle, SortOrder, SortPopular:
		return true
	}
	return false
}

// MediaFilter is the list query. Nil pointers mean "don't filter".
type MediaFilter struct {
	Type     models.MediaType
	Category models.Category
	Search   string
	Featured *bool
	Active   *bool
	Sort     string
	Page     int
	Limit    int
}

func (f MediaFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

type SortOrderUpdate struct {
	ID        string
	SortOrder int
}

type MediaRepository interface {
	Create(ctx context.Context, m *models.Media) error
	FindByID(ctx context.Context, id string) (*models.Media, error)
	List(ctx context.Context, f MediaFilter) ([]models.Media, int64, error)
	Update(ctx context.Context, m *models.Media) error
	UpdateSortOrders(ctx context.Context, updates []SortOrderUpdate) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) (int64, error)
	IncrementClicks(ctx context.Context, id string) (int64, error)
	Stats(ctx context.Context, since time.Time) (*models.MediaStats, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, u *models.User) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	Count(ctx context.Context) (int64, error)
}

type TokenRepository interface {
	Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store bundles the repositories of one backend.
type Store struct {
	Media  MediaRepository
	Users  UserRepository
	Tokens TokenRepository
	Health Pinger
	Close  func(ctx context.Context) error
}
