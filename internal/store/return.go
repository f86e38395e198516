package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/obotesoftech/prisonreturns/types"
)

// ReturnRepository handles persistence for returns. Returns are append-only;
// the only write after insert is the submitter rewrite done by
// AccountRepository.Update.
type ReturnRepository struct {
	db *sql.DB
}

func NewReturnRepository(db *sql.DB) *ReturnRepository {
	return &ReturnRepository{db: db}
}

const returnColumns = `
	id, frequency, return_type, station, data, comment, submitted_by, submitted_at, status,
	file_name, file_mime_type, file_size, file_object_key`

func (r *ReturnRepository) Get(ctx context.Context, id int64) (types.ReturnRecord, error) {
	query := `SELECT ` + returnColumns + ` FROM returns WHERE id = $1`
	record, err := scanReturn(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.ReturnRecord{}, ErrNotFound
		}
		return types.ReturnRecord{}, err
	}
	return record, nil
}

// List returns every record in insertion order.
func (r *ReturnRepository) List(ctx context.Context) ([]types.ReturnRecord, error) {
	query := `SELECT ` + returnColumns + ` FROM returns ORDER BY id`
	return r.list(ctx, query)
}

// ListBySubmitter returns the records submitted by identifier in insertion order.
func (r *ReturnRepository) ListBySubmitter(ctx context.Context, identifier string) ([]types.ReturnRecord, error) {
	query := `SELECT ` + returnColumns + ` FROM returns WHERE submitted_by = $1 ORDER BY id`
	return r.list(ctx, query, identifier)
}

func (r *ReturnRepository) Create(ctx context.Context, record types.ReturnRecord) (types.ReturnRecord, error) {
	if record.SubmittedAt.IsZero() {
		record.SubmittedAt = time.Now()
	}

	var fileName, mimeType, objectKey sql.NullString
	var size sql.NullInt64
	if record.File != nil {
		fileName = sql.NullString{String: record.File.Name, Valid: true}
		mimeType = sql.NullString{String: record.File.MimeType, Valid: true}
		size = sql.NullInt64{Int64: record.File.SizeBytes, Valid: true}
		objectKey = sql.NullString{String: record.File.ObjectKey, Valid: true}
	}

	const query = `
		INSERT INTO returns (
			frequency, return_type, station, data, comment, submitted_by, submitted_at, status,
			file_name, file_mime_type, file_size, file_object_key
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		record.Frequency,
		record.ReturnType,
		record.Station,
		record.Data,
		record.Comment,
		record.SubmittedBy,
		record.SubmittedAt,
		record.Status.String(),
		fileName,
		mimeType,
		size,
		objectKey,
	).Scan(&record.ID); err != nil {
		return types.ReturnRecord{}, err
	}
	return record, nil
}

func (r *ReturnRepository) list(ctx context.Context, query string, args ...any) ([]types.ReturnRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]types.ReturnRecord, 0)
	for rows.Next() {
		record, err := scanReturn(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func scanReturn(row rowScanner) (types.ReturnRecord, error) {
	var record types.ReturnRecord
	var status string
	var fileName, mimeType, objectKey sql.NullString
	var size sql.NullInt64
	err := row.Scan(
		&record.ID,
		&record.Frequency,
		&record.ReturnType,
		&record.Station,
		&record.Data,
		&record.Comment,
		&record.SubmittedBy,
		&record.SubmittedAt,
		&status,
		&fileName,
		&mimeType,
		&size,
		&objectKey,
	)
	if err != nil {
		return types.ReturnRecord{}, err
	}

	record.Status = types.ParseStatus(status)
	if fileName.Valid {
		record.File = &types.FileAttachment{
			Name:      fileName.String,
			MimeType:  mimeType.String,
			SizeBytes: size.Int64,
			ObjectKey: objectKey.String,
		}
	}
	return record, nil
}
