package sqlstore

import (
	"context"
	"errors"
	"strings"

	"github.com/Kyz7/pixelarts/internal/repository"
	"gorm.io/gorm"
)

// New wires the GORM-backed repositories onto db.
func New(db *gorm.DB) *repository.Store {
	return &repository.Store{
		Media:  NewMediaRepository(db),
		Users:  NewUserRepository(db),
		Tokens: NewTokenRepository(db),
		Health: pinger{db: db},
		Close: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

type pinger struct {
	db *gorm.DB
}

func (p pinger) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return repository.ErrDuplicate
	}
	return err
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
