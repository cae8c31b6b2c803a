package images

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iobis/edna-sample-app/internal/client/models"
	"github.com/iobis/edna-sample-app/internal/common"
	"github.com/iobis/edna-sample-app/internal/dbx"
)

const imageColumns = `id, sample_id, submission_key, data, filename, mime_type, size, synced, created_at, updated_at`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrStorage, err)
}

func (r *SQLiteRepository) Put(ctx context.Context, img *models.Image) error {
	query := `INSERT INTO images (` + imageColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sample_id = excluded.sample_id,
			submission_key = excluded.submission_key,
			data = excluded.data,
			filename = excluded.filename,
			mime_type = excluded.mime_type,
			size = excluded.size,
			synced = excluded.synced,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query, img.ID, img.SampleID, img.SubmissionKey, img.Data, img.Filename,
		img.MimeType, img.Size, img.Synced, img.CreatedAt.UnixMicro(), img.UpdatedAt.UnixMicro())
	if err != nil {
		return storageErr("failed to upsert image", err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Image, error) {
	return r.query(ctx, `SELECT `+imageColumns+` FROM images ORDER BY created_at, id`)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Image, error) {
	return r.one(ctx, `SELECT `+imageColumns+` FROM images WHERE id = ?`, id)
}

func (r *SQLiteRepository) GetBySampleID(ctx context.Context, sampleID string) (*models.Image, error) {
	return r.one(ctx, `SELECT `+imageColumns+` FROM images WHERE sample_id = ?
		ORDER BY created_at DESC, id DESC LIMIT 1`, sampleID)
}

func (r *SQLiteRepository) GetUnsynced(ctx context.Context) ([]models.Image, error) {
	return r.query(ctx, `SELECT `+imageColumns+` FROM images WHERE synced = 0 ORDER BY created_at, id`)
}

func (r *SQLiteRepository) Update(ctx context.Context, id string, p models.ImagePatch) error {
	var synced, updatedAt any
	if p.Synced != nil {
		synced = *p.Synced
	}
	if p.UpdatedAt != nil {
		updatedAt = p.UpdatedAt.UnixMicro()
	}

	result, err := r.db.ExecContext(ctx, `UPDATE images SET
			synced = COALESCE(?, synced),
			updated_at = COALESCE(?, updated_at)
		WHERE id = ?`, synced, updatedAt, id)
	if err != nil {
		return storageErr("failed to update image", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storageErr("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id); err != nil {
		return storageErr("failed to delete image", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteBySampleID(ctx context.Context, sampleID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE sample_id = ?`, sampleID); err != nil {
		return storageErr("failed to delete images", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM images`); err != nil {
		return storageErr("failed to clear images", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (models.CollectionStats, error) {
	var st models.CollectionStats
	err := r.db.QueryRowContext(ctx, `SELECT
			COALESCE(SUM(CASE WHEN synced = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN synced = 0 THEN 1 ELSE 0 END), 0)
		FROM images`).Scan(&st.Synced, &st.Queued)
	if err != nil {
		return st, storageErr("failed to count images", err)
	}
	return st, nil
}

func (r *SQLiteRepository) one(ctx context.Context, query string, args ...any) (*models.Image, error) {
	img, err := scanImage(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, storageErr("failed to get image", err)
	}
	return img, nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]models.Image, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("error selecting images", err)
	}
	defer rows.Close()

	result := make([]models.Image, 0)
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, storageErr("failed to scan image row", err)
		}
		result = append(result, *img)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("failed to iterate image rows", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanImage(row scanner) (*models.Image, error) {
	var (
		img                  models.Image
		createdAt, updatedAt int64
	)
	err := row.Scan(&img.ID, &img.SampleID, &img.SubmissionKey, &img.Data, &img.Filename, &img.MimeType,
		&img.Size, &img.Synced, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	img.CreatedAt = time.UnixMicro(createdAt).UTC()
	img.UpdatedAt = time.UnixMicro(updatedAt).UTC()
	return &img, nil
}
