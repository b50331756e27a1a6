package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"wa-dashboard-go/internal/webhook"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS webhook_settings (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	url TEXT NOT NULL DEFAULT '',
	active INTEGER NOT NULL DEFAULT 0,
	last_test TEXT NOT NULL DEFAULT '',
	last_tested_at TEXT,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS ecommerce_webhooks (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	event TEXT NOT NULL,
	platform TEXT NOT NULL,
	url TEXT NOT NULL,
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Store is a local webhook.Store used when Firestore is not configured
type Store struct {
	db *sql.DB
}

var _ webhook.Store = (*Store)(nil)

// Open opens (or creates) the database at path and ensures the schema
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	// single writer keeps sqlite from returning SQLITE_BUSY under load
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	zap.S().Infof("💾 [STORE] SQLite store ready at %s", path)
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) GetSettings(ctx context.Context) (*webhook.Settings, error) {
	var (
		settings   webhook.Settings
		active     bool
		lastTest   string
		lastTested sql.NullString
		updated    string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT url, active, last_test, last_tested_at, updated_at FROM webhook_settings WHERE id = 1`,
	).Scan(&settings.URL, &active, &lastTest, &lastTested, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return &webhook.Settings{}, nil
	}
	if err != nil {
		return nil, err
	}

	settings.Active = active
	settings.LastTest = webhook.TestResult(lastTest)
	if lastTested.Valid {
		t := parseTime(lastTested.String)
		settings.LastTestedAt = &t
	}
	settings.UpdatedAt = parseTime(updated)
	return &settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings *webhook.Settings) error {
	if settings.UpdatedAt.IsZero() {
		settings.UpdatedAt = time.Now()
	}
	var lastTested sql.NullString
	if settings.LastTestedAt != nil {
		lastTested = sql.NullString{String: formatTime(*settings.LastTestedAt), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO webhook_settings (id, url, active, last_test, last_tested_at, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url,
			active = excluded.active,
			last_test = excluded.last_test,
			last_tested_at = excluded.last_tested_at,
			updated_at = excluded.updated_at`,
		settings.URL, settings.Active, string(settings.LastTest), lastTested, formatTime(settings.UpdatedAt),
	)
	return err
}

func (s *Store) ListEndpoints(ctx context.Context) ([]webhook.Endpoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, event, platform, url, is_active, created_at, updated_at
		FROM ecommerce_webhooks
		ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	endpoints := []webhook.Endpoint{}
	for rows.Next() {
		endpoint, err := scanEndpoint(rows)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, *endpoint)
	}
	return endpoints, rows.Err()
}

func (s *Store) GetEndpoint(ctx context.Context, id string) (*webhook.Endpoint, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, event, platform, url, is_active, created_at, updated_at
		FROM ecommerce_webhooks WHERE id = ?`, id)
	endpoint, err := scanEndpoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, webhook.ErrEndpointNotFound
	}
	return endpoint, err
}

func (s *Store) CreateEndpoint(ctx context.Context, e *webhook.Endpoint) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ecommerce_webhooks (id, name, event, platform, url, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, string(e.Event), string(e.Platform), e.URL, e.Active,
		formatTime(e.CreatedAt), formatTime(e.UpdatedAt),
	)
	return err
}

func (s *Store) UpdateEndpoint(ctx context.Context, e *webhook.Endpoint) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ecommerce_webhooks SET name = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		e.Name, e.Active, formatTime(e.UpdatedAt), e.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *Store) DeleteEndpoint(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ecommerce_webhooks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEndpoint(row scanner) (*webhook.Endpoint, error) {
	var (
		e                webhook.Endpoint
		event, platform  string
		created, updated string
	)
	if err := row.Scan(&e.ID, &e.Name, &event, &platform, &e.URL, &e.Active, &created, &updated); err != nil {
		return nil, err
	}
	e.Event = webhook.Event(event)
	e.Platform = webhook.Platform(platform)
	e.CreatedAt = parseTime(created)
	e.UpdatedAt = parseTime(updated)
	return &e, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return webhook.ErrEndpointNotFound
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
