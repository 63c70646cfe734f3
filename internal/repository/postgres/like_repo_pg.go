package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/njprem/travelswipe/internal/domain"
	"github.com/njprem/travelswipe/internal/repository/ports"
)

type LikeRepository struct {
	db *sqlx.DB
}

func NewLikeRepo(db *sqlx.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

type likeRow struct {
	UserID      string    `db:"user_id"`
	PackageID   string    `db:"package_id"`
	PackageData []byte    `db:"package_data"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r likeRow) toDomain() domain.LikeRecord {
	return domain.LikeRecord{
		UserID:      r.UserID,
		PackageID:   r.PackageID,
		PackageData: r.PackageData,
		CreatedAt:   r.CreatedAt,
		Source:      domain.LikeSourceRemote,
	}
}

func (r *LikeRepository) Upsert(ctx context.Context, record domain.LikeRecord) (*domain.LikeRecord, error) {
	const query = `
		INSERT INTO user_likes (user_id, package_id, package_data, created_at)
		VALUES ($1, $2, $3::jsonb, $4)
		ON CONFLICT (user_id, package_id) DO UPDATE
		SET package_data = EXCLUDED.package_data,
		    created_at = EXCLUDED.created_at
		RETURNING user_id, package_id, package_data, created_at
	`
	var data sql.NullString
	if len(record.PackageData) > 0 {
		data = sql.NullString{String: string(record.PackageData), Valid: true}
	}

	var row likeRow
	if err := r.db.GetContext(ctx, &row, query, record.UserID, record.PackageID, data, record.CreatedAt); err != nil {
		return nil, fmt.Errorf("upsert like: %w", err)
	}
	out := row.toDomain()
	return &out, nil
}

// InsertMinimal writes the like without its snapshot. It still upserts so a
// retried like never creates a second row.
func (r *LikeRepository) InsertMinimal(ctx context.Context, record domain.LikeRecord) (*domain.LikeRecord, error) {
	const query = `
		INSERT INTO user_likes (user_id, package_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, package_id) DO UPDATE
		SET created_at = EXCLUDED.created_at
		RETURNING user_id, package_id, package_data, created_at
	`
	var row likeRow
	if err := r.db.GetContext(ctx, &row, query, record.UserID, record.PackageID, record.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert minimal like: %w", err)
	}
	out := row.toDomain()
	return &out, nil
}

func (r *LikeRepository) ListByUser(ctx context.Context, userID string) ([]domain.LikeRecord, error) {
	const query = `
		SELECT user_id, package_id, package_data, created_at
		FROM user_likes
		WHERE user_id = $1
		ORDER BY created_at ASC, package_id ASC
	`
	var rows []likeRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list likes: %w", err)
	}
	items := make([]domain.LikeRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDomain())
	}
	return items, nil
}

func (r *LikeRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	const query = `
		SELECT COUNT(*)
		FROM user_likes
		WHERE user_id = $1
	`
	var count int64
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}

func (r *LikeRepository) Exists(ctx context.Context, userID, packageID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM user_likes WHERE user_id = $1 AND package_id = $2
		)
	`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, packageID); err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return exists, nil
}

func (r *LikeRepository) Remove(ctx context.Context, userID, packageID string) error {
	const query = `
		DELETE FROM user_likes
		WHERE user_id = $1 AND package_id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, userID, packageID); err != nil {
		return fmt.Errorf("remove like: %w", err)
	}
	return nil
}

// Probe fails with SQLSTATE 42P01 when the likes table has not been created.
func (r *LikeRepository) Probe(ctx context.Context) error {
	const query = `SELECT 1 FROM user_likes LIMIT 1`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("probe likes table: %w", err)
	}
	defer rows.Close()
	return rows.Err()
}

var _ ports.LikeRepository = (*LikeRepository)(nil)
