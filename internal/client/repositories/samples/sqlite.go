package samples

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

const sampleColumns = `id, sample_id, submission_key, contact_name, contact_email, date_time,
	volume_filtered, water_temperature, remarks, environment_remarks, replicate, site, locality,
	latitude, longitude, coordinate_uncertainty, image_id, synced, created_at, updated_at`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrStorage, err)
}

func (r *SQLiteRepository) Put(ctx context.Context, s *models.Sample) error {
	query := `INSERT INTO samples (` + sampleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sample_id = excluded.sample_id,
			submission_key = excluded.submission_key,
			contact_name = excluded.contact_name,
			contact_email = excluded.contact_email,
			date_time = excluded.date_time,
			volume_filtered = excluded.volume_filtered,
			water_temperature = excluded.water_temperature,
			remarks = excluded.remarks,
			environment_remarks = excluded.environment_remarks,
			replicate = excluded.replicate,
			site = excluded.site,
			locality = excluded.locality,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			coordinate_uncertainty = excluded.coordinate_uncertainty,
			image_id = excluded.image_id,
			synced = excluded.synced,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.SampleID, s.SubmissionKey, s.ContactName, s.ContactEmail, s.DateTime.UnixMicro(),
		nullFloat(s.VolumeFiltered), nullFloat(s.WaterTemperature), s.Remarks, s.EnvironmentRemarks,
		nullInt(s.Replicate), s.Site, s.Locality, s.Latitude, s.Longitude, s.CoordinateUncertainty,
		s.ImageID, s.Synced, s.CreatedAt.UnixMicro(), s.UpdatedAt.UnixMicro())
	if err != nil {
		return storageErr("failed to upsert sample", err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Sample, error) {
	return r.query(ctx, `SELECT `+sampleColumns+` FROM samples ORDER BY created_at, id`)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Sample, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sampleColumns+` FROM samples WHERE id = ?`, id)
	s, err := scanSample(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, storageErr("failed to get sample", err)
	}
	return s, nil
}

func (r *SQLiteRepository) GetBySampleID(ctx context.Context, sampleID string) ([]models.Sample, error) {
	return r.query(ctx, `SELECT `+sampleColumns+` FROM samples WHERE sample_id = ? ORDER BY created_at, id`, sampleID)
}

func (r *SQLiteRepository) GetUnsynced(ctx context.Context) ([]models.Sample, error) {
	return r.query(ctx, `SELECT `+sampleColumns+` FROM samples WHERE synced = 0 ORDER BY created_at, id`)
}

func (r *SQLiteRepository) GetCreatedBetween(ctx context.Context, from, to time.Time) ([]models.Sample, error) {
	return r.query(ctx, `SELECT `+sampleColumns+` FROM samples
		WHERE created_at >= ? AND created_at < ? ORDER BY created_at, id`, from.UnixMicro(), to.UnixMicro())
}

func (r *SQLiteRepository) Update(ctx context.Context, id string, p models.SamplePatch) error {
	var synced, updatedAt, imageID any
	if p.Synced != nil {
		synced = *p.Synced
	}
	if p.UpdatedAt != nil {
		updatedAt = p.UpdatedAt.UnixMicro()
	}
	if p.ImageID != nil {
		imageID = *p.ImageID
	}

	result, err := r.db.ExecContext(ctx, `UPDATE samples SET
			synced = COALESCE(?, synced),
			updated_at = COALESCE(?, updated_at),
			image_id = COALESCE(?, image_id)
		WHERE id = ?`, synced, updatedAt, imageID, id)
	if err != nil {
		return storageErr("failed to update sample", err)
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
	if _, err := r.db.ExecContext(ctx, `DELETE FROM samples WHERE id = ?`, id); err != nil {
		return storageErr("failed to delete sample", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM samples`); err != nil {
		return storageErr("failed to clear samples", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (models.CollectionStats, error) {
	var st models.CollectionStats
	err := r.db.QueryRowContext(ctx, `SELECT
			COALESCE(SUM(CASE WHEN synced = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN synced = 0 THEN 1 ELSE 0 END), 0)
		FROM samples`).Scan(&st.Synced, &st.Queued)
	if err != nil {
		return st, storageErr("failed to count samples", err)
	}
	return st, nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]models.Sample, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("error selecting samples", err)
	}
	defer rows.Close()

	result := make([]models.Sample, 0)
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, storageErr("failed to scan sample row", err)
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("failed to iterate sample rows", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSample(row scanner) (*models.Sample, error) {
	var (
		s                    models.Sample
		dateTime             int64
		createdAt, updatedAt int64
		volume, temperature  sql.NullFloat64
		replicate            sql.NullInt64
	)
	err := row.Scan(&s.ID, &s.SampleID, &s.SubmissionKey, &s.ContactName, &s.ContactEmail, &dateTime,
		&volume, &temperature, &s.Remarks, &s.EnvironmentRemarks, &replicate, &s.Site, &s.Locality,
		&s.Latitude, &s.Longitude, &s.CoordinateUncertainty, &s.ImageID, &s.Synced, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	s.DateTime = time.UnixMicro(dateTime).UTC()
	s.CreatedAt = time.UnixMicro(createdAt).UTC()
	s.UpdatedAt = time.UnixMicro(updatedAt).UTC()
	if volume.Valid {
		s.VolumeFiltered = &volume.Float64
	}
	if temperature.Valid {
		s.WaterTemperature = &temperature.Float64
	}
	if replicate.Valid {
		v := int(replicate.Int64)
		s.Replicate = &v
	}
	return &s, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
