package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"fust/internal/core"
)

// maxReportedErrors caps the row errors returned to the caller.
const maxReportedErrors = 50

var importHeaders = []string{"partij_nummer", "datum", "partij_type", "geladen", "gelost"}

var (
	ErrEmptyCSV       = errors.New("CSV bestand is leeg")
	ErrMissingColumns = errors.New("ontbrekende kolommen")
)

// RowError describes why a single CSV row was not imported.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportResult summarizes a CSV import.
type ImportResult struct {
	TotalRows  int        `json:"totalRows"`
	Successful int        `json:"successful"`
	Failed     int        `json:"failed"`
	Errors     []RowError `json:"errors"`
}

type importRow struct {
	nummer  string
	datum   core.Date
	typ     core.PartijType
	geladen int64
	gelost  int64
}

// ImportCSV records one movement per data row of r. Unknown counterparties
// are created with the row's partij_type. A bad or malformed row is reported
// and skipped; only an unreadable file or a missing column fails the whole
// import.
func (s *LedgerService) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return ImportResult{}, ErrEmptyCSV
	}
	if err != nil {
		return ImportResult{}, fmt.Errorf("read CSV header: %w", err)
	}

	cols, err := columnIndex(header)
	if err != nil {
		return ImportResult{}, err
	}

	result := ImportResult{Errors: []RowError{}}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			result.TotalRows++
			result.Failed++
			if len(result.Errors) < maxReportedErrors {
				result.Errors = append(result.Errors, RowError{Row: parseErr.StartLine, Error: parseErr.Err.Error()})
			}
			continue
		}
		if err != nil {
			return result, fmt.Errorf("read CSV: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if blank(record) {
			continue
		}
		result.TotalRows++

		if err := s.importRecord(ctx, cols, record); err != nil {
			result.Failed++
			if len(result.Errors) < maxReportedErrors {
				result.Errors = append(result.Errors, RowError{Row: line, Error: err.Error()})
			}
			continue
		}
		result.Successful++
	}

	slog.InfoContext(ctx, "CSV import finished",
		"total_rows", result.TotalRows,
		"successful", result.Successful,
		"failed", result.Failed)

	return result, nil
}

func (s *LedgerService) importRecord(ctx context.Context, cols map[string]int, record []string) error {
	row, err := parseImportRow(cols, record)
	if err != nil {
		return err
	}

	partij, err := s.store.FindPartijByNummer(ctx, row.nummer)
	if errors.Is(err, core.ErrPartijNotFound) {
		if _, err := s.store.CreatePartij(ctx, row.nummer, "", row.typ); err != nil && !errors.Is(err, core.ErrPartijExists) {
			return fmt.Errorf("partij aanmaken: %w", err)
		}
		partij, err = s.store.FindPartijByNummer(ctx, row.nummer)
	}
	if err != nil {
		return err
	}

	_, err = s.CreateMutatie(ctx, core.Mutatie{
		PartijID: partij.ID,
		Datum:    row.datum,
		Geladen:  row.geladen,
		Gelost:   row.gelost,
	})
	return err
}

func parseImportRow(cols map[string]int, record []string) (importRow, error) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var row importRow
	row.nummer = field("partij_nummer")
	if row.nummer == "" {
		return row, core.ErrEmptyNummer
	}

	var err error
	if row.datum, err = core.ParseDate(field("datum")); err != nil {
		return row, err
	}
	if row.typ, err = core.ParsePartijType(field("partij_type")); err != nil {
		return row, err
	}
	if row.geladen, err = core.ParseCount(field("geladen")); err != nil {
		return row, fmt.Errorf("geladen: %w", err)
	}
	if row.gelost, err = core.ParseCount(field("gelost")); err != nil {
		return row, fmt.Errorf("gelost: %w", err)
	}
	return row, nil
}

func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}

	var missing []string
	for _, h := range importHeaders {
		if _, ok := cols[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return cols, nil
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
