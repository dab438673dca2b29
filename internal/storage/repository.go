package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fust/internal/core"
	"fust/internal/ports"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	_ ports.Ledger = (*SQLiteRepository)(nil)
	_ ports.Pinger = (*SQLiteRepository)(nil)
)

// connPragmas are applied by the driver to every pooled connection.
const connPragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// SQLiteRepository stores partijen and fust mutaties in a SQLite file.
// Every operation checks out its own connection from the pool and hands it
// back before returning, so no connection state leaks between requests.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations before the pool exists so every connection sees the final schema.
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?"+connPragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping implements ports.Pinger
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// withConn runs fn on a dedicated connection and always releases it.
func (r *SQLiteRepository) withConn(ctx context.Context, fn func(q *Queries) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	return fn(New(conn))
}

// withTx runs fn inside a transaction on a dedicated connection.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(New(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListPartijen implements ports.PartijRegistry
func (r *SQLiteRepository) ListPartijen(ctx context.Context) ([]core.Partij, error) {
	var rows []Partij
	err := r.withConn(ctx, func(q *Queries) error {
		var err error
		rows, err = q.ListPartijen(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list partijen: %w", err)
	}

	partijen := make([]core.Partij, 0, len(rows))
	for _, row := range rows {
		p, err := row.toCore()
		if err != nil {
			return nil, err
		}
		partijen = append(partijen, p)
	}
	return partijen, nil
}

// GetPartij implements ports.PartijRegistry
func (r *SQLiteRepository) GetPartij(ctx context.Context, id int64) (core.Partij, error) {
	var row Partij
	err := r.withConn(ctx, func(q *Queries) error {
		var err error
		row, err = q.GetPartij(ctx, id)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return core.Partij{}, core.ErrPartijNotFound
	}
	if err != nil {
		return core.Partij{}, fmt.Errorf("get partij %d: %w", id, err)
	}
	return row.toCore()
}

// FindPartijByNummer implements ports.PartijRegistry
func (r *SQLiteRepository) FindPartijByNummer(ctx context.Context, nummer string) (core.Partij, error) {
	var row Partij
	err := r.withConn(ctx, func(q *Queries) error {
		var err error
		row, err = q.GetPartijByNummer(ctx, strings.TrimSpace(nummer))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return core.Partij{}, core.ErrPartijNotFound
	}
	if err != nil {
		return core.Partij{}, fmt.Errorf("get partij by nummer %q: %w", nummer, err)
	}
	return row.toCore()
}

// CreatePartij implements ports.PartijRegistry
func (r *SQLiteRepository) CreatePartij(ctx context.Context, nummer, naam string, t core.PartijType) (int64, error) {
	nummer = strings.TrimSpace(nummer)
	if err := core.ValidatePartij(nummer, t); err != nil {
		return 0, err
	}

	var id int64
	err := r.withConn(ctx, func(q *Queries) error {
		var err error
		id, err = q.CreatePartij(ctx, CreatePartijParams{
			Nummer: nummer,
			Naam:   nullString(core.NullableNaam(naam)),
			Type:   string(t),
		})
		return err
	})
	if err != nil {
		switch constraintOf(err) {
		case constraintUnique:
			return 0, core.ErrPartijExists
		case constraintCheck:
			return 0, core.ErrInvalidPartijType
		}
		return 0, fmt.Errorf("create partij: %w", err)
	}

	slog.DebugContext(ctx, "Partij saved to SQLite", "id", id)
	return id, nil
}

// CreateMutatie implements ports.MutatieLedger. The counterparty check and
// the insert share one transaction.
func (r *SQLiteRepository) CreateMutatie(ctx context.Context, m core.Mutatie) (int64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}

	var id int64
	err := r.withTx(ctx, func(q *Queries) error {
		exists, err := q.PartijExists(ctx, m.PartijID)
		if err != nil {
			return fmt.Errorf("check partij %d: %w", m.PartijID, err)
		}
		if !exists {
			return core.ErrPartijNotFound
		}

		id, err = q.CreateMutatie(ctx, CreateMutatieParams{
			PartijID: m.PartijID,
			Datum:    m.Datum,
			Geladen:  m.Geladen,
			Gelost:   m.Gelost,
		})
		return err
	})
	if err != nil {
		switch constraintOf(err) {
		case constraintForeignKey:
			return 0, core.ErrPartijNotFound
		case constraintCheck:
			return 0, core.ErrNegativeAmount
		}
		if errors.Is(err, core.ErrPartijNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("create mutatie: %w", err)
	}

	slog.DebugContext(ctx, "Mutatie saved to SQLite", "id", id, "partij_id", m.PartijID)
	return id, nil
}

// ListMutaties implements ports.MutatieLedger
func (r *SQLiteRepository) ListMutaties(ctx context.Context) ([]core.MutatieDetail, error) {
	var rows []MutatieRow
	err := r.withConn(ctx, func(q *Queries) error {
		var err error
		rows, err = q.ListMutaties(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list mutaties: %w", err)
	}
	return mutatieDetails(rows)
}

// ListMutatiesByPartij implements ports.MutatieLedger
func (r *SQLiteRepository) ListMutatiesByPartij(ctx context.Context, partijID int64) ([]core.MutatieDetail, error) {
	var rows []MutatieRow
	err := r.withConn(ctx, func(q *Queries) error {
		var err error
		rows, err = q.ListMutatiesByPartij(ctx, partijID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list mutaties of partij %d: %w", partijID, err)
	}
	return mutatieDetails(rows)
}

func mutatieDetails(rows []MutatieRow) ([]core.MutatieDetail, error) {
	mutaties := make([]core.MutatieDetail, 0, len(rows))
	for _, row := range rows {
		created, err := parseTimestamp(row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("mutatie %d: %w", row.ID, err)
		}
		mutaties = append(mutaties, core.MutatieDetail{
			Mutatie: core.Mutatie{
				ID:        row.ID,
				PartijID:  row.PartijID,
				Datum:     row.Datum,
				Geladen:   row.Geladen,
				Gelost:    row.Gelost,
				CreatedAt: created,
			},
			PartijNummer: row.PartijNummer,
			PartijNaam:   stringPtr(row.PartijNaam),
			PartijType:   core.PartijType(row.PartijType),
		})
	}
	return mutaties, nil
}

// Overzicht implements ports.OverzichtReader
func (r *SQLiteRepository) Overzicht(ctx context.Context) ([]core.Balance, error) {
	var rows []OverzichtRow
	err := r.withConn(ctx, func(q *Queries) error {
		var err error
		rows, err = q.GetOverzicht(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get overzicht: %w", err)
	}

	overzicht := make([]core.Balance, 0, len(rows))
	for _, row := range rows {
		overzicht = append(overzicht, core.Balance{
			ID:            row.ID,
			Nummer:        row.Nummer,
			Naam:          stringPtr(row.Naam),
			Type:          core.PartijType(row.Type),
			TotaalGeladen: row.TotaalGeladen,
			TotaalGelost:  row.TotaalGelost,
			Balans:        row.Balans,
		})
	}
	return overzicht, nil
}

func (p Partij) toCore() (core.Partij, error) {
	created, err := parseTimestamp(p.CreatedAt)
	if err != nil {
		return core.Partij{}, fmt.Errorf("partij %d: %w", p.ID, err)
	}
	return core.Partij{
		ID:        p.ID,
		Nummer:    p.Nummer,
		Naam:      stringPtr(p.Naam),
		Type:      core.PartijType(p.Type),
		CreatedAt: created,
	}, nil
}

type constraintKind int

const (
	constraintNone constraintKind = iota
	constraintUnique
	constraintCheck
	constraintForeignKey
)

// constraintOf classifies SQLite constraint violations. Extended result codes
// are preferred; the message is the fallback when only SQLITE_CONSTRAINT is set.
func constraintOf(err error) constraintKind {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return constraintNone
	}

	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return constraintUnique
	case sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return constraintCheck
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return constraintForeignKey
	}

	msg := sqliteErr.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return constraintUnique
	case strings.Contains(msg, "CHECK constraint failed"), strings.Contains(msg, "NOT NULL constraint failed"):
		return constraintCheck
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return constraintForeignKey
	}
	return constraintNone
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q", s)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
