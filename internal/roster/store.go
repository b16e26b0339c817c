package roster

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"tapline/internal/storage"
)

// Record is one cached directory entry for a tracked individual.
type Record struct {
	BadgeID   string
	RefID     string
	FirstName string
	LastName  string
	Cohort    string
	SiteYear  string
	Contact   string
	SiteID    string
}

// DisplayName renders the record's name for messages and CLI output.
func (r Record) DisplayName() string {
	name := strings.TrimSpace(r.FirstName + " " + r.LastName)
	if name == "" {
		return r.BadgeID
	}
	return name
}

// Store reads and replaces the local roster snapshot.
type Store struct {
	db *storage.DB
}

// NewStore wraps the shared database handle.
func NewStore(db *storage.DB) *Store {
	return &Store{db: db}
}

const recordColumns = "badge_id, ref_id, first_name, last_name, cohort, site_year, contact, site_id"

// ReplaceAll clears the snapshot and installs records in one transaction.
// Records without a badge identifier are skipped; on any error the previous
// snapshot remains untouched.
func (s *Store) ReplaceAll(ctx context.Context, records []Record) error {
	tx, err := s.db.Handle().BeginTx(ctx, nil)
	if err != nil {
		return storage.Unavailable("begin roster replace", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM roster_records`); err != nil {
		return storage.Unavailable("clear roster", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO roster_records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return storage.Unavailable("prepare roster insert", err)
	}
	defer stmt.Close()

	for _, record := range records {
		badge := strings.TrimSpace(record.BadgeID)
		if badge == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			badge,
			record.RefID,
			record.FirstName,
			record.LastName,
			record.Cohort,
			record.SiteYear,
			nullableString(record.Contact),
			record.SiteID,
		); err != nil {
			return storage.Unavailable("insert roster record", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storage.Unavailable("commit roster replace", err)
	}
	return nil
}

// LookupByBadge returns the record for the trimmed badge identifier, or nil
// when the badge is not cached. A miss is a normal negative result.
func (s *Store) LookupByBadge(ctx context.Context, badgeID string) (*Record, error) {
	row := s.db.Handle().QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM roster_records WHERE badge_id = ?`,
		strings.TrimSpace(badgeID),
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storage.Unavailable("lookup badge", err)
	}
	return record, nil
}

// Clear empties the cache. Used when the site context changes.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.Handle().ExecContext(ctx, `DELETE FROM roster_records`); err != nil {
		return storage.Unavailable("clear roster", err)
	}
	return nil
}

// Count returns the number of cached records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	row := s.db.Handle().QueryRowContext(ctx, `SELECT COUNT(1) FROM roster_records`)
	if err := row.Scan(&count); err != nil {
		return 0, storage.Unavailable("count roster", err)
	}
	return count, nil
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		badgeID   string
		refID     sql.NullString
		firstName sql.NullString
		lastName  sql.NullString
		cohort    sql.NullString
		siteYear  sql.NullString
		contact   sql.NullString
		siteID    sql.NullString
	)
	if err := scanner.Scan(&badgeID, &refID, &firstName, &lastName, &cohort, &siteYear, &contact, &siteID); err != nil {
		return nil, err
	}
	return &Record{
		BadgeID:   badgeID,
		RefID:     refID.String,
		FirstName: firstName.String,
		LastName:  lastName.String,
		Cohort:    cohort.String,
		SiteYear:  siteYear.String,
		Contact:   contact.String,
		SiteID:    siteID.String,
	}, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
