package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on a single JSONB table shared by all logical tables.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the items table and one expression index per spec.
// Sort keys are indexed with text_pattern_ops so prefix LIKE can use them.
func (s *PostgresStore) Migrate(ctx context.Context, indexes ...IndexSpec) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS items (
			tbl   TEXT NOT NULL,
			id    TEXT NOT NULL,
			attrs JSONB NOT NULL,
			PRIMARY KEY (tbl, id)
		)
	`)
	if err != nil {
		return fmt.Errorf("store: failed to create items table: %w", err)
	}

	for _, idx := range indexes {
		cond := KeyCondition{PartitionKey: idx.PartitionKey, SortKey: idx.SortKey}
		if err := cond.Validate(); err != nil {
			return err
		}
		cols := fmt.Sprintf("tbl, (attrs->>'%s')", idx.PartitionKey)
		if idx.SortKey != "" {
			cols += fmt.Sprintf(", (attrs->>'%s') text_pattern_ops", idx.SortKey)
		}
		sql := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON items (%s)", pgx.Identifier{idx.Name}.Sanitize(), cols)
		if _, err := s.db.Exec(ctx, sql); err != nil {
			return fmt.Errorf("store: failed to create index %s: %w", idx.Name, err)
		}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, table, key string) (Item, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, `SELECT attrs FROM items WHERE tbl = $1 AND id = $2`, table, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: failed to get item %s/%s: %w", table, key, err)
	}
	return unmarshalItem(raw)
}

func (s *PostgresStore) Put(ctx context.Context, table string, item Item) error {
	key, err := item.Key()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("store: failed to marshal item: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO items (tbl, id, attrs) VALUES ($1, $2, $3)
		ON CONFLICT (tbl, id) DO UPDATE SET attrs = EXCLUDED.attrs
	`, table, key, raw)
	if err != nil {
		return fmt.Errorf("store: failed to put item %s/%s: %w", table, key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, table, key string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM items WHERE tbl = $1 AND id = $2`, table, key)
	if err != nil {
		return fmt.Errorf("store: failed to delete item %s/%s: %w", table, key, err)
	}
	return nil
}

// QueryByIndex inlines the validated attribute names so the planner can match
// the expression indexes created by Migrate. The index name itself is not needed.
func (s *PostgresStore) QueryByIndex(ctx context.Context, table, index string, cond KeyCondition) ([]Item, error) {
	if err := cond.Validate(); err != nil {
		return nil, err
	}

	sql := fmt.Sprintf(`SELECT attrs FROM items WHERE tbl = $1 AND attrs->>'%s' = $2`, cond.PartitionKey)
	args := []any{table, cond.PartitionValue}
	orderBy := cond.PartitionKey
	if cond.SortKey != "" {
		sql += fmt.Sprintf(` AND attrs->>'%s' LIKE $3`, cond.SortKey)
		args = append(args, escapeLike(cond.SortPrefix)+"%")
		orderBy = cond.SortKey
	}
	sql += fmt.Sprintf(` ORDER BY attrs->>'%s', id`, orderBy)

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("store: failed to query %s/%s: %w", table, index, err)
	}
	return collectItems(rows)
}

func (s *PostgresStore) Scan(ctx context.Context, table string) ([]Item, error) {
	rows, err := s.db.Query(ctx, `SELECT attrs FROM items WHERE tbl = $1 ORDER BY id`, table)
	if err != nil {
		return nil, fmt.Errorf("store: failed to scan %s: %w", table, err)
	}
	return collectItems(rows)
}

func collectItems(rows pgx.Rows) ([]Item, error) {
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("store: failed to scan item: %w", err)
		}
		item, err := unmarshalItem(raw)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: error iterating rows: %w", err)
	}
	return items, nil
}

func unmarshalItem(raw []byte) (Item, error) {
	var item Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("store: failed to unmarshal item: %w", err)
	}
	return item, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
