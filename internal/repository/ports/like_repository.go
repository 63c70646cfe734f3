package ports

import (
	"context"

	"github.com/njprem/travelswipe/internal/domain"
)

// LikeRepository is the remote per-user likes table.
type LikeRepository interface {
	Upsert(ctx context.Context, record domain.LikeRecord) (*domain.LikeRecord, error)
	InsertMinimal(ctx context.Context, record domain.LikeRecord) (*domain.LikeRecord, error)
	ListByUser(ctx context.Context, userID string) ([]domain.LikeRecord, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	Exists(ctx context.Context, userID, packageID string) (bool, error)
	Remove(ctx context.Context, userID, packageID string) error
	Probe(ctx context.Context) error
}

// LikeCache is the in-process fallback for likes that could not reach the remote table.
type LikeCache interface {
	Put(record domain.LikeRecord)
	Has(userID, packageID string) bool
	ListByUser(userID string) []domain.LikeRecord
	CountByUser(userID string) int
	Remove(userID, packageID string)
}
