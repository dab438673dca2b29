package storage

import (
	"context"
	"database/sql"

	"fust/internal/core"
)

// DBTX is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type Partij struct {
	ID        int64
	Nummer    string
	Naam      sql.NullString
	Type      string
	CreatedAt string
}

type MutatieRow struct {
	ID           int64
	PartijID     int64
	Datum        core.Date
	Geladen      int64
	Gelost       int64
	CreatedAt    string
	PartijNummer string
	PartijNaam   sql.NullString
	PartijType   string
}

type OverzichtRow struct {
	ID            int64
	Nummer        string
	Naam          sql.NullString
	Type          string
	TotaalGeladen int64
	TotaalGelost  int64
	Balans        int64
}

const listPartijen = `
SELECT id, nummer, naam, type, created_at
FROM partijen
ORDER BY type, naam, id
`

func (q *Queries) ListPartijen(ctx context.Context) ([]Partij, error) {
	rows, err := q.db.QueryContext(ctx, listPartijen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Partij
	for rows.Next() {
		var i Partij
		if err := rows.Scan(&i.ID, &i.Nummer, &i.Naam, &i.Type, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getPartij = `
SELECT id, nummer, naam, type, created_at
FROM partijen
WHERE id = ?
`

func (q *Queries) GetPartij(ctx context.Context, id int64) (Partij, error) {
	row := q.db.QueryRowContext(ctx, getPartij, id)
	var i Partij
	err := row.Scan(&i.ID, &i.Nummer, &i.Naam, &i.Type, &i.CreatedAt)
	return i, err
}

const getPartijByNummer = `
SELECT id, nummer, naam, type, created_at
FROM partijen
WHERE nummer = ?
`

func (q *Queries) GetPartijByNummer(ctx context.Context, nummer string) (Partij, error) {
	row := q.db.QueryRowContext(ctx, getPartijByNummer, nummer)
	var i Partij
	err := row.Scan(&i.ID, &i.Nummer, &i.Naam, &i.Type, &i.CreatedAt)
	return i, err
}

const partijExists = `
SELECT EXISTS (SELECT 1 FROM partijen WHERE id = ?)
`

func (q *Queries) PartijExists(ctx context.Context, id int64) (bool, error) {
	row := q.db.QueryRowContext(ctx, partijExists, id)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const createPartij = `
INSERT INTO partijen (nummer, naam, type)
VALUES (?, ?, ?)
`

type CreatePartijParams struct {
	Nummer string
	Naam   sql.NullString
	Type   string
}

func (q *Queries) CreatePartij(ctx context.Context, arg CreatePartijParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createPartij, arg.Nummer, arg.Naam, arg.Type)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const createMutatie = `
INSERT INTO fust_mutaties (partij_id, datum, geladen, gelost)
VALUES (?, ?, ?, ?)
`

type CreateMutatieParams struct {
	PartijID int64
	Datum    core.Date
	Geladen  int64
	Gelost   int64
}

func (q *Queries) CreateMutatie(ctx context.Context, arg CreateMutatieParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createMutatie, arg.PartijID, arg.Datum, arg.Geladen, arg.Gelost)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const listMutaties = `
SELECT m.id, m.partij_id, m.datum, m.geladen, m.gelost, m.created_at,
       p.nummer AS partij_nummer, p.naam AS partij_naam, p.type AS partij_type
FROM fust_mutaties m
JOIN partijen p ON m.partij_id = p.id
ORDER BY m.datum DESC, m.created_at DESC, m.id DESC
`

func (q *Queries) ListMutaties(ctx context.Context) ([]MutatieRow, error) {
	rows, err := q.db.QueryContext(ctx, listMutaties)
	if err != nil {
		return nil, err
	}
	return scanMutatieRows(rows)
}

const listMutatiesByPartij = `
SELECT m.id, m.partij_id, m.datum, m.geladen, m.gelost, m.created_at,
       p.nummer AS partij_nummer, p.naam AS partij_naam, p.type AS partij_type
FROM fust_mutaties m
JOIN partijen p ON m.partij_id = p.id
WHERE m.partij_id = ?
ORDER BY m.datum DESC, m.created_at DESC, m.id DESC
`

func (q *Queries) ListMutatiesByPartij(ctx context.Context, partijID int64) ([]MutatieRow, error) {
	rows, err := q.db.QueryContext(ctx, listMutatiesByPartij, partijID)
	if err != nil {
		return nil, err
	}
	return scanMutatieRows(rows)
}

func scanMutatieRows(rows *sql.Rows) ([]MutatieRow, error) {
	defer rows.Close()
	var items []MutatieRow
	for rows.Next() {
		var i MutatieRow
		if err := rows.Scan(
			&i.ID,
			&i.PartijID,
			&i.Datum,
			&i.Geladen,
			&i.Gelost,
			&i.CreatedAt,
			&i.PartijNummer,
			&i.PartijNaam,
			&i.PartijType,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getOverzicht = `
SELECT p.id,
       p.nummer,
       p.naam,
       p.type,
       COALESCE(SUM(m.geladen), 0) AS totaal_geladen,
       COALESCE(SUM(m.gelost), 0) AS totaal_gelost,
       COALESCE(SUM(m.geladen), 0) - COALESCE(SUM(m.gelost), 0) AS balans
FROM partijen p
LEFT JOIN fust_mutaties m ON p.id = m.partij_id
GROUP BY p.id, p.nummer, p.naam, p.type
ORDER BY p.type, p.naam, p.id
`

func (q *Queries) GetOverzicht(ctx context.Context) ([]OverzichtRow, error) {
	rows, err := q.db.QueryContext(ctx, getOverzicht)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OverzichtRow
	for rows.Next() {
		var i OverzichtRow
		if err := rows.Scan(
			&i.ID,
			&i.Nummer,
			&i.Naam,
			&i.Type,
			&i.TotaalGeladen,
			&i.TotaalGelost,
			&i.Balans,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
