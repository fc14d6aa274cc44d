package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"metro-scrape/internal/database"
	"metro-scrape/internal/domain/market"
)

// ActivityRepository is the append-only login activity record. Passwords are
// never part of an entry.
type ActivityRepository interface {
	Append(ctx context.Context, entry market.ActivityEntry) error
	Recent(ctx context.Context, limit int) ([]market.ActivityEntry, error)
	Backend() string
}

// FileActivityRepository writes one JSON object per line.
type FileActivityRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileActivityRepository(path string) (*FileActivityRepository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("empty activity log path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("activity log: create dir: %w", err)
	}
	return &FileActivityRepository{path: path}, nil
}

func (r *FileActivityRepository) Append(_ context.Context, entry market.ActivityEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("activity log: open: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("activity log: write: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. Malformed lines are skipped.
func (r *FileActivityRepository) Recent(_ context.Context, limit int) ([]market.ActivityEntry, error) {
	if limit <= 0 {
		limit = 200
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []market.ActivityEntry{}, nil
		}
		return nil, err
	}
	defer f.Close()

	all := make([]market.ActivityEntry, 0, limit)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e market.ActivityEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}
		all = append(all, e)
		if len(all) > limit {
			all = all[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	out := make([]market.ActivityEntry, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (r *FileActivityRepository) Backend() string {
	return "file"
}

type PostgresActivityRepository struct {
	db database.DB
}

func NewPostgresActivityRepository(db database.DB) *PostgresActivityRepository {
	return &PostgresActivityRepository{db: db}
}

func (r *PostgresActivityRepository) Append(ctx context.Context, entry market.ActivityEntry) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("nil db")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO activity_log (occurred_at, action, success, ip, user_agent, email, detail)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		entry.Timestamp.UTC(),
		entry.Action,
		entry.Success,
		entry.IP,
		entry.UserAgent,
		strings.ToLower(strings.TrimSpace(entry.Email)),
		nullableText(entry.Detail),
	)
	return err
}

func (r *PostgresActivityRepository) Recent(ctx context.Context, limit int) ([]market.ActivityEntry, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("nil db")
	}
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.db.Query(ctx,
		`SELECT occurred_at, action, success, ip, user_agent, email, COALESCE(detail, '')
		 FROM activity_log
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]market.ActivityEntry, 0, limit)
	for rows.Next() {
		var e market.ActivityEntry
		if err := rows.Scan(&e.Timestamp, &e.Action, &e.Success, &e.IP, &e.UserAgent, &e.Email, &e.Detail); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresActivityRepository) Backend() string {
	return "postgres"
}

func nullableText(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}

var (
	_ ActivityRepository = (*FileActivityRepository)(nil)
	_ ActivityRepository = (*PostgresActivityRepository)(nil)
)
