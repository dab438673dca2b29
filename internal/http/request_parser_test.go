package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fust/internal/core"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"1", 1, false},
		{" 42 ", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseID(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMutatieRequestAcceptsNumbersAndStrings(t *testing.T) {
	tests := []struct {
		name string
		body string
		want core.Mutatie
	}{
		{
			name: "numbers",
			body: `{"partij_id": 7, "datum": "2024-01-10", "geladen": 50, "gelost": 0}`,
			want: core.Mutatie{PartijID: 7, Datum: core.NewDate(2024, 1, 10), Geladen: 50},
		},
		{
			name: "strings from a form",
			body: `{"partij_id": "7", "datum": "2024-01-15", "geladen": "", "gelost": "20"}`,
			want: core.Mutatie{PartijID: 7, Datum: core.NewDate(2024, 1, 15), Gelost: 20},
		},
		{
			name: "missing counts default to zero",
			body: `{"partij_id": 3, "datum": "2024-02-01", "gelost": null}`,
			want: core.Mutatie{PartijID: 3, Datum: core.NewDate(2024, 2, 1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req MutatieRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			got, err := req.ParseMutatie()
			if err != nil {
				t.Fatalf("ParseMutatie: %v", err)
			}
			if got.PartijID != tt.want.PartijID || !got.Datum.Equal(tt.want.Datum.Time) ||
				got.Geladen != tt.want.Geladen || got.Gelost != tt.want.Gelost {
				t.Errorf("ParseMutatie = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMutatieRequestErrors(t *testing.T) {
	tests := []struct {
		name    string
		req     MutatieRequest
		wantErr error
	}{
		{"missing partij", MutatieRequest{Datum: "2024-01-10"}, core.ErrPartijNotFound},
		{"bad date", MutatieRequest{PartijID: "1", Datum: "10-01-2024"}, core.ErrInvalidDatum},
		{"negative count", MutatieRequest{PartijID: "1", Datum: "2024-01-10", Geladen: "-5"}, core.ErrNegativeAmount},
		{"fractional count", MutatieRequest{PartijID: "1", Datum: "2024-01-10", Gelost: "2.5"}, core.ErrInvalidCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.ParseMutatie()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseMutatie error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPartijRequestParse(t *testing.T) {
	naam := "  Acme  "
	nummer, gotNaam, typ, err := PartijRequest{Nummer: " K001 ", Naam: &naam, Type: "klant"}.ParsePartij()
	if err != nil {
		t.Fatalf("ParsePartij: %v", err)
	}
	if nummer != "K001" || gotNaam != "Acme" || typ != core.Klant {
		t.Errorf("ParsePartij = %q %q %q", nummer, gotNaam, typ)
	}

	if _, _, _, err := (PartijRequest{Nummer: "K1", Type: "kweker"}).ParsePartij(); !errors.Is(err, core.ErrInvalidPartijType) {
		t.Errorf("expected ErrInvalidPartijType, got %v", err)
	}
	if _, _, _, err := (PartijRequest{Type: "klant"}).ParsePartij(); !errors.Is(err, core.ErrEmptyNummer) {
		t.Errorf("expected ErrEmptyNummer, got %v", err)
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"nummer":"K001","type":"klant"}`, false},
		{"empty", ``, true},
		{"malformed", `{"nummer":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/partijen", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			var req PartijRequest
			err := DecodeJSON(w, r, &req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeJSON error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errInvalidJSON) {
				t.Errorf("expected errInvalidJSON, got %v", err)
			}
		})
	}
}
