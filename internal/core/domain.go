package core

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of a movement date.
const DateLayout = "2006-01-02"

const (
	Klant       PartijType = "klant"
	Leverancier PartijType = "leverancier"
)

type (
	// PartijType distinguishes customers from suppliers.
	PartijType string

	// Date is a calendar day without time-of-day, serialized as YYYY-MM-DD.
	Date struct {
		time.Time
	}

	// Partij is a counterparty that exchanges fust with the business.
	Partij struct {
		ID        int64      `json:"id"`
		Nummer    string     `json:"nummer"`
		Naam      *string    `json:"naam"`
		Type      PartijType `json:"type"`
		CreatedAt time.Time  `json:"created_at"`
	}

	// Mutatie is one dated movement of loaded and returned units.
	Mutatie struct {
		ID        int64     `json:"id"`
		PartijID  int64     `json:"partij_id"`
		Datum     Date      `json:"datum"`
		Geladen   int64     `json:"geladen"`
		Gelost    int64     `json:"gelost"`
		CreatedAt time.Time `json:"created_at"`
	}

	// MutatieDetail is a movement joined with its counterparty.
	MutatieDetail struct {
		Mutatie
		PartijNummer string     `json:"partij_nummer"`
		PartijNaam   *string    `json:"partij_naam"`
		PartijType   PartijType `json:"partij_type"`
	}
)

var (
	ErrEmptyNummer       = errors.New("partij nummer is verplicht")
	ErrInvalidPartijType = errors.New("type moet 'klant' of 'leverancier' zijn")
	ErrPartijExists      = errors.New("partij nummer bestaat al")
	ErrPartijNotFound    = errors.New("partij niet gevonden")
	ErrInvalidDatum      = errors.New("datum moet formaat YYYY-MM-DD hebben")
	ErrNegativeAmount    = errors.New("geladen en gelost mogen niet negatief zijn")
	ErrInvalidCount      = errors.New("aantal moet een geheel getal zijn")
)

// Valid reports whether t is one of the known counterparty types.
func (t PartijType) Valid() bool {
	switch t {
	case Klant, Leverancier:
		return true
	default:
		return false
	}
}

func (t PartijType) String() string {
	return string(t)
}

// ParsePartijType accepts the type case-insensitively, as spreadsheets tend to capitalize it.
func ParsePartijType(s string) (PartijType, error) {
	t := PartijType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidPartijType
	}
	return t, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDatum
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDatum
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the date as TEXT so that lexical order equals calendar order.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan accepts the representations SQLite drivers hand back for DATE columns.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = NewDate(v.Year(), int(v.Month()), v.Day())
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
}

func (d *Date) scanString(s string) error {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("scan date %q: %w", s, err)
	}
	*d = parsed
	return nil
}

// ValidatePartij checks the fields a caller supplies when registering a counterparty.
func ValidatePartij(nummer string, t PartijType) error {
	if strings.TrimSpace(nummer) == "" {
		return ErrEmptyNummer
	}
	if !t.Valid() {
		return ErrInvalidPartijType
	}
	return nil
}

func (m Mutatie) Validate() error {
	if err := m.Datum.Validate(); err != nil {
		return err
	}
	if m.Geladen < 0 || m.Gelost < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// NullableNaam maps an empty display name to nil so it is stored as NULL.
func NullableNaam(naam string) *string {
	naam = strings.TrimSpace(naam)
	if naam == "" {
		return nil
	}
	return &naam
}
