package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/db"
)

// timestamps are stored fixed-width so they sort as text.
const tsLayout = "2006-01-02T15:04:05.000000Z"

// Store reads and writes activity entries.
type Store struct {
	db *db.DB
}

func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Log inserts an entry. An empty ID gets a UUID and a zero Timestamp
// gets the current time.
func (s *Store) Log(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity (id, timestamp, transport, method, case_id, outcome, summary, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.Timestamp.UTC().Format(tsLayout),
		string(e.Transport),
		e.Method,
		e.CaseID,
		e.Outcome,
		e.Summary,
		e.Error,
		e.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("inserting activity entry: %w", err)
	}
	return nil
}

// Filter narrows Query. Zero fields match everything.
type Filter struct {
	CaseID  string
	Method  string
	Outcome string
	Since   *time.Time
	Limit   int
}

// Query returns matching entries, newest first.
func (s *Store) Query(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)
	if f.CaseID != "" {
		clauses = append(clauses, "case_id = ?")
		args = append(args, f.CaseID)
	}
	if f.Method != "" {
		clauses = append(clauses, "method = ?")
		args = append(args, f.Method)
	}
	if f.Outcome != "" {
		clauses = append(clauses, "outcome = ?")
		args = append(args, f.Outcome)
	}
	if f.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, f.Since.UTC().Format(tsLayout))
	}

	query := "SELECT id, timestamp, transport, method, case_id, outcome, summary, error, duration_ms FROM activity"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY timestamp DESC, id"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e          Entry
			ts, tr     string
			durationMS int64
		)
		if err := rows.Scan(&e.ID, &ts, &tr, &e.Method, &e.CaseID, &e.Outcome, &e.Summary, &e.Error, &durationMS); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		e.Transport = Transport(tr)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		if t, err := time.Parse(tsLayout, ts); err == nil {
			e.Timestamp = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteBefore removes entries older than before and returns how many
// were deleted.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM activity WHERE timestamp < ?",
		before.UTC().Format(tsLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old activity: %w", err)
	}
	return res.RowsAffected()
}
