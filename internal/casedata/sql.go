package casedata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/db"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
)

const dateLayout = "2006-01-02"

// SQLSource reads cases from the platform database.
type SQLSource struct {
	db *db.DB
}

func NewSQLSource(database *db.DB) *SQLSource {
	return &SQLSource{db: database}
}

func (s *SQLSource) GetCase(ctx context.Context, caseID string) (*domain.Case, error) {
	var (
		c     domain.Case
		filed sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT case_id, case_type, status, date_filed, summary
		FROM cases WHERE case_id = ?`, caseID).
		Scan(&c.CaseID, &c.CaseType, &c.Status, &filed, &c.Summary)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("case %q: %w", caseID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying case %q: %w", caseID, err)
	}
	c.DateFiled = parseDate(filed)

	if c.Parties, err = s.parties(ctx, caseID); err != nil {
		return nil, err
	}
	if c.Events, err = s.events(ctx, caseID); err != nil {
		return nil, err
	}
	if c.Financials, err = s.financials(ctx, caseID); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLSource) ListCases(ctx context.Context) ([]domain.CaseSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT case_id FROM cases ORDER BY case_id`)
	if err != nil {
		return nil, fmt.Errorf("listing cases: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning case id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.CaseSummary, 0, len(ids))
	for _, id := range ids {
		c, err := s.GetCase(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, c.Summarize())
	}
	return out, nil
}

func (s *SQLSource) parties(ctx context.Context, caseID string) ([]domain.Party, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT party_type, name, contact_info FROM parties
		WHERE case_id = ? ORDER BY id`, caseID)
	if err != nil {
		return nil, fmt.Errorf("querying parties: %w", err)
	}
	defer rows.Close()

	var out []domain.Party
	for rows.Next() {
		var p domain.Party
		if err := rows.Scan(&p.PartyType, &p.Name, &p.ContactInfo); err != nil {
			return nil, fmt.Errorf("scanning party: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLSource) events(ctx context.Context, caseID string) ([]domain.TimelineEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_date, description FROM timeline_events
		WHERE case_id = ? ORDER BY event_date, id`, caseID)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var out []domain.TimelineEvent
	for rows.Next() {
		var (
			e    domain.TimelineEvent
			date sql.NullString
		)
		if err := rows.Scan(&date, &e.Description); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.EventDate = parseDate(date)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLSource) financials(ctx context.Context, caseID string) ([]domain.FinancialRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_type, amount, description FROM financial_records
		WHERE case_id = ? ORDER BY id`, caseID)
	if err != nil {
		return nil, fmt.Errorf("querying financial records: %w", err)
	}
	defer rows.Close()

	var out []domain.FinancialRecord
	for rows.Next() {
		var f domain.FinancialRecord
		if err := rows.Scan(&f.RecordType, &f.Amount, &f.Description); err != nil {
			return nil, fmt.Errorf("scanning financial record: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func parseDate(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s.String); err == nil {
			return &t
		}
	}
	return nil
}

// Seed writes cases into the database, replacing any existing record
// with the same id. It backs fixture imports; the pipeline itself never
// writes case data.
func Seed(ctx context.Context, database *db.DB, cases ...domain.Case) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range cases {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cases WHERE case_id = ?`, c.CaseID); err != nil {
			return fmt.Errorf("replacing case %q: %w", c.CaseID, err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cases (case_id, case_type, status, date_filed, summary)
			VALUES (?, ?, ?, ?, ?)`,
			c.CaseID, c.CaseType, c.Status, formatDate(c.DateFiled), c.Summary)
		if err != nil {
			return fmt.Errorf("inserting case %q: %w", c.CaseID, err)
		}
		for _, p := range c.Parties {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO parties (case_id, party_type, name, contact_info) VALUES (?, ?, ?, ?)`,
				c.CaseID, p.PartyType, p.Name, p.ContactInfo); err != nil {
				return fmt.Errorf("inserting party: %w", err)
			}
		}
		for _, e := range c.Events {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO timeline_events (case_id, event_date, description) VALUES (?, ?, ?)`,
				c.CaseID, formatDate(e.EventDate), e.Description); err != nil {
				return fmt.Errorf("inserting event: %w", err)
			}
		}
		for _, f := range c.Financials {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO financial_records (case_id, record_type, amount, description) VALUES (?, ?, ?, ?)`,
				c.CaseID, f.RecordType, f.Amount, f.Description); err != nil {
				return fmt.Errorf("inserting financial record: %w", err)
			}
		}
	}
	return tx.Commit()
}

func formatDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateLayout), Valid: true}
}
