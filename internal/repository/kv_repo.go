package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gradewatch/internal/database"
)

// KVRepository stores opaque string values by key in the gradebook_records table
type KVRepository struct {
	db database.DBTX
}

// NewKVRepository creates a key/value repository over a connection or transaction
func NewKVRepository(db database.DBTX) *KVRepository {
	return &KVRepository{db: db}
}

// Get retrieves a value by key
func (r *KVRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	query := `SELECT record_value FROM gradebook_records WHERE record_key = ?`
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get record %s: %w", key, err)
	}
	return value, nil
}

// Set inserts or replaces a value
func (r *KVRepository) Set(ctx context.Context, key, value string) error {
	query := r.db.GetDialect().UpsertQuery("gradebook_records", "record_key",
		[]string{"record_key", "record_value", "updated_at"})
	if _, err := r.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set record %s: %w", key, err)
	}
	return nil
}

// Delete removes a value; deleting a missing key is not an error
func (r *KVRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM gradebook_records WHERE record_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete record %s: %w", key, err)
	}
	return nil
}

// ListPrefix returns every record whose key starts with prefix
func (r *KVRepository) ListPrefix(ctx context.Context, prefix string) (map[string]string, error) {
	query := `SELECT record_key, record_value FROM gradebook_records WHERE record_key LIKE ? ORDER BY record_key`
	rows, err := r.db.QueryContext(ctx, query, prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	records := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		// LIKE treats _ and % as wildcards
		if strings.HasPrefix(key, prefix) {
			records[key] = value
		}
	}
	return records, rows.Err()
}
