package db

import (
	"context"
	"database/sql"
	"errors"
)

var ErrDataSourceNotFound = errors.New("data source not found")

type DataSource struct {
	Record
	ChatbotID int64
	DataType  string
	ObjectKey string
}

type DataSourceRepository struct {
	db *DB
}

func NewDataSourceRepository(db *DB) *DataSourceRepository {
	return &DataSourceRepository{db: db}
}

func (r *DataSourceRepository) Create(ctx context.Context, ds *DataSource) error {
	query := `
		INSERT INTO data_sources (chatbot_id, data_type, object_key)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, status
	`

	return r.db.QueryRowContext(ctx, query,
		ds.ChatbotID, ds.DataType, ds.ObjectKey,
	).Scan(&ds.ID, &ds.CreatedAt, &ds.Status)
}

func (r *DataSourceRepository) GetByID(ctx context.Context, id int64) (*DataSource, error) {
	query := `
		SELECT id, chatbot_id, data_type, object_key, created_at, status
		FROM data_sources
		WHERE id = $1 AND status = 1
	`

	return r.scanDataSource(r.db.QueryRowContext(ctx, query, id))
}

// SoftDelete flips the status flag; the row and its object key are retained.
func (r *DataSourceRepository) SoftDelete(ctx context.Context, id int64) (*DataSource, error) {
	query := `
		UPDATE data_sources
		SET status = 0
		WHERE id = $1 AND status = 1
		RETURNING id, chatbot_id, data_type, object_key, created_at, status
	`

	return r.scanDataSource(r.db.QueryRowContext(ctx, query, id))
}

func (r *DataSourceRepository) scanDataSource(row *sql.Row) (*DataSource, error) {
	ds := &DataSource{}
	err := row.Scan(
		&ds.ID, &ds.ChatbotID, &ds.DataType, &ds.ObjectKey, &ds.CreatedAt, &ds.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDataSourceNotFound
		}
		return nil, err
	}
	return ds, nil
}
