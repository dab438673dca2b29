// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// JSON bodies are decoded leniently: forms post numbers as strings, so numeric
// fields accept either representation.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"fust/internal/core"
)

// maxJSONBodyBytes bounds request bodies of the JSON endpoints.
const maxJSONBodyBytes = 1 << 20

var (
	errInvalidJSON = errors.New("ongeldige JSON")
	errInvalidID   = errors.New("ongeldig id")
)

// flexString holds a JSON string or number as text. null and absent fields
// leave it empty.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

// PartijRequest is the body of POST /api/partijen.
type PartijRequest struct {
	Nummer string  `json:"nummer"`
	Naam   *string `json:"naam"`
	Type   string  `json:"type"`
}

// MutatieRequest is the body of POST /api/mutaties.
type MutatieRequest struct {
	PartijID flexString `json:"partij_id"`
	Datum    string     `json:"datum"`
	Geladen  flexString `json:"geladen"`
	Gelost   flexString `json:"gelost"`
}

// DecodeJSON reads a bounded JSON body into dst.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: lege body", errInvalidJSON)
		}
		return fmt.Errorf("%w: %v", errInvalidJSON, err)
	}
	return nil
}

// ParsePartij converts the request into the arguments of CreatePartij.
func (p PartijRequest) ParsePartij() (nummer, naam string, t core.PartijType, err error) {
	nummer = strings.TrimSpace(p.Nummer)
	if p.Naam != nil {
		naam = strings.TrimSpace(*p.Naam)
	}
	t = core.PartijType(strings.TrimSpace(p.Type))
	if err := core.ValidatePartij(nummer, t); err != nil {
		return "", "", "", err
	}
	return nummer, naam, t, nil
}

// ParseMutatie converts the request into a movement ready for CreateMutatie.
// Blank counts mean zero.
func (m MutatieRequest) ParseMutatie() (core.Mutatie, error) {
	partijID, err := ParseID(string(m.PartijID))
	if err != nil {
		return core.Mutatie{}, core.ErrPartijNotFound
	}
	datum, err := core.ParseDate(m.Datum)
	if err != nil {
		return core.Mutatie{}, err
	}
	geladen, err := core.ParseCount(string(m.Geladen))
	if err != nil {
		return core.Mutatie{}, fmt.Errorf("geladen: %w", err)
	}
	gelost, err := core.ParseCount(string(m.Gelost))
	if err != nil {
		return core.Mutatie{}, fmt.Errorf("gelost: %w", err)
	}
	return core.Mutatie{PartijID: partijID, Datum: datum, Geladen: geladen, Gelost: gelost}, nil
}

// ParseID parses a positive database id.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}
