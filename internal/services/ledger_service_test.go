package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"fust/internal/core"
	"fust/internal/memory"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []core.Mutatie
	err    error
	closed bool
}

func (f *fakePublisher) PublishMutatieCreated(_ context.Context, m core.Mutatie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, m)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func TestCreateMutatiePublishesEvent(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := NewLedgerService(memory.New(), pub)

	pid, err := svc.CreatePartij(ctx, "K001", "Acme", core.Klant)
	if err != nil {
		t.Fatalf("CreatePartij: %v", err)
	}
	id, err := svc.CreateMutatie(ctx, core.Mutatie{PartijID: pid, Datum: core.NewDate(2024, 1, 10), Geladen: 50})
	if err != nil {
		t.Fatalf("CreateMutatie: %v", err)
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	if ev := pub.events[0]; ev.ID != id || ev.PartijID != pid || ev.Geladen != 50 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestCreateMutatieIgnoresPublishFailure(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(memory.New(), &fakePublisher{err: errors.New("broker down")})

	pid, _ := svc.CreatePartij(ctx, "K001", "", core.Klant)
	if _, err := svc.CreateMutatie(ctx, core.Mutatie{PartijID: pid, Datum: core.NewDate(2024, 1, 10), Gelost: 3}); err != nil {
		t.Fatalf("publish failure must not fail the write: %v", err)
	}

	ms, _ := svc.ListMutaties(ctx)
	if len(ms) != 1 {
		t.Fatalf("expected the movement to be stored, got %d", len(ms))
	}
}

func TestCreateMutatieFailureDoesNotPublish(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewLedgerService(memory.New(), pub)

	_, err := svc.CreateMutatie(context.Background(), core.Mutatie{PartijID: 9, Datum: core.NewDate(2024, 1, 10)})
	if !errors.Is(err, core.ErrPartijNotFound) {
		t.Fatalf("expected ErrPartijNotFound, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("no event expected for a rejected movement")
	}
}

func TestLedgerServiceWithoutPublisher(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(memory.New(), nil)

	pid, _ := svc.CreatePartij(ctx, "L001", "Boer", core.Leverancier)
	if _, err := svc.CreateMutatie(ctx, core.Mutatie{PartijID: pid, Datum: core.NewDate(2024, 2, 1), Geladen: 1}); err != nil {
		t.Fatalf("CreateMutatie: %v", err)
	}
	if err := svc.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestCreateMutatieWithoutPublisherDoesNotWarn(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := context.Background()
	svc := NewLedgerService(memory.New(), nil)
	pid, _ := svc.CreatePartij(ctx, "K001", "", core.Klant)
	for i := 0; i < 3; i++ {
		if _, err := svc.CreateMutatie(ctx, core.Mutatie{PartijID: pid, Datum: core.NewDate(2024, 2, 1), Geladen: 1}); err != nil {
			t.Fatalf("CreateMutatie: %v", err)
		}
	}

	if buf.Len() != 0 {
		t.Fatalf("expected no warnings without a publisher, got:\n%s", buf.String())
	}
}

func TestCloseClosesPublisher(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewLedgerService(memory.New(), pub)
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !pub.closed {
		t.Fatal("publisher should be closed")
	}
}

func TestImportCSV(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &fakePublisher{}
	svc := NewLedgerService(store, pub)

	if _, err := svc.CreatePartij(ctx, "K001", "Acme", core.Klant); err != nil {
		t.Fatalf("CreatePartij: %v", err)
	}

	input := strings.Join([]string{
		"Partij_Nummer,datum,partij_type,geladen,gelost",
		"K001,2024-01-10,klant,50,0",
		"L009,2024-01-11,Leverancier,,12",
		",,,,",
		"K001,10-01-2024,klant,1,0",
		"K002,2024-01-12,kweker,1,0",
		"K001,2024-01-15,klant,0,-4",
		"K001,2024-01-15,klant,0,20",
	}, "\n")

	res, err := svc.ImportCSV(ctx, strings.NewReader(input))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if res.TotalRows != 6 || res.Successful != 3 || res.Failed != 3 {
		t.Fatalf("unexpected result %+v", res)
	}

	wantRows := []int{5, 6, 7}
	for i, e := range res.Errors {
		if e.Row != wantRows[i] {
			t.Fatalf("error %d reported on row %d, want %d (%s)", i, e.Row, wantRows[i], e.Error)
		}
	}

	created, err := store.FindPartijByNummer(ctx, "L009")
	if err != nil {
		t.Fatalf("expected L009 to be auto-created: %v", err)
	}
	if created.Type != core.Leverancier || created.Naam != nil {
		t.Fatalf("unexpected auto-created partij %+v", created)
	}
	if _, err := store.FindPartijByNummer(ctx, "K002"); !errors.Is(err, core.ErrPartijNotFound) {
		t.Fatalf("invalid row must not create a partij, got %v", err)
	}

	overzicht, _ := svc.Overzicht(ctx)
	balans := map[string]int64{}
	for _, b := range overzicht {
		balans[b.Nummer] = b.Balans
	}
	if balans["K001"] != 30 || balans["L009"] != -12 {
		t.Fatalf("unexpected balances %v", balans)
	}
	if len(pub.events) != 3 {
		t.Fatalf("expected one event per imported row, got %d", len(pub.events))
	}
}

func TestImportCSVStrayQuoteDoesNotAbort(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewLedgerService(store, nil)

	input := strings.Join([]string{
		"partij_nummer,datum,partij_type,geladen,gelost",
		"K001,2024-01-10,klant,50,0",
		`K002 "Bloem,2024-01-11,klant,5,0`,
		"K003,2024-01-12,klant,7,0",
	}, "\n")

	res, err := svc.ImportCSV(ctx, strings.NewReader(input))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if res.TotalRows != 3 || res.Successful != 3 || res.Failed != 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	for _, nummer := range []string{"K001", `K002 "Bloem`, "K003"} {
		if _, err := store.FindPartijByNummer(ctx, nummer); err != nil {
			t.Fatalf("expected %s to be imported: %v", nummer, err)
		}
	}
	mutaties, _ := svc.ListMutaties(ctx)
	if len(mutaties) != 3 {
		t.Fatalf("expected 3 movements, got %d", len(mutaties))
	}
}

func TestImportCSVRejectsBadFiles(t *testing.T) {
	svc := NewLedgerService(memory.New(), nil)

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrEmptyCSV},
		{"missing columns", "partij_nummer,datum\nK001,2024-01-10\n", ErrMissingColumns},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ImportCSV(context.Background(), strings.NewReader(tt.input))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestImportCSVMissingColumnsNamed(t *testing.T) {
	svc := NewLedgerService(memory.New(), nil)
	_, err := svc.ImportCSV(context.Background(), strings.NewReader("partij_nummer,datum,partij_type\n"))
	if err == nil || !strings.Contains(err.Error(), "geladen, gelost") {
		t.Fatalf("expected missing column names in error, got %v", err)
	}
}
