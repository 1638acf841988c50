package mongostore

import (
	"context"
	"time"

	"github.com/Kyz7/pixelarts/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TokenRepository stores revoked JWT ids. The TTL index on expiresAt lets
// the server drop entries on its own; PurgeExpired covers deployments
// where the index could not be created.
type TokenRepository struct {
	coll *mongo.Collection
}

func NewTokenRepository(db *mongo.Database) *TokenRepository {
	return &TokenRepository{coll: db.Collection(tokensCollection)}
}

func (r *TokenRepository) Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	token := models.RevokedToken{
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": jti}, token, options.Replace().SetUpsert(true))
	return err
}

func (r *TokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": jti}, options.Count().SetLimit(1))
	return n > 0, err
}

func (r *TokenRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.coll.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": now}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
