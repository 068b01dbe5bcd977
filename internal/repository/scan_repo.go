package repository

import (
	"context"

	"github.com/Darshan-chovatiya/nexus-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ScanRepository struct {
	db DBTX
}

func NewScanRepository(db DBTX) *ScanRepository {
	return &ScanRepository{db: db}
}

func (r *ScanRepository) Create(
	ctx context.Context,
	scannerID string,
	scannedID string,
) (*models.ScanRecord, error) {
	query := `
		INSERT INTO scan_records (id, scanner_id, scanned_id)
		VALUES ($1, $2, $3)
		RETURNING id, scanner_id, scanned_id, scanned_at
	`

	var record models.ScanRecord
	err := r.db.QueryRow(ctx, query, uuid.NewString(), scannerID, scannedID).Scan(
		&record.ID,
		&record.ScannerID,
		&record.ScannedID,
		&record.ScannedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByScanned returns who scanned the account, newest first.
func (r *ScanRepository) ListByScanned(
	ctx context.Context,
	accountID string,
	limit int,
	offset int,
) ([]models.ScanRecord, int, error) {
	return r.list(ctx, "scanned_id", accountID, limit, offset)
}

// ListByScanner returns who the account scanned, newest first.
func (r *ScanRepository) ListByScanner(
	ctx context.Context,
	accountID string,
	limit int,
	offset int,
) ([]models.ScanRecord, int, error) {
	return r.list(ctx, "scanner_id", accountID, limit, offset)
}

func (r *ScanRepository) list(
	ctx context.Context,
	column string,
	accountID string,
	limit int,
	offset int,
) ([]models.ScanRecord, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM scan_records WHERE ` + column + ` = $1`
	if err := r.db.QueryRow(ctx, countQuery, accountID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, scanner_id, scanned_id, scanned_at
		FROM scan_records
		WHERE ` + column + ` = $1
		ORDER BY scanned_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records, err := scanScanRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func scanScanRecords(rows pgx.Rows) ([]models.ScanRecord, error) {
	records := make([]models.ScanRecord, 0)
	for rows.Next() {
		var record models.ScanRecord
		if err := rows.Scan(
			&record.ID,
			&record.ScannerID,
			&record.ScannedID,
			&record.ScannedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
