package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"fust/internal/core"
	"fust/internal/ports"
)

var (
	_ ports.Ledger = (*Store)(nil)
	_ ports.Pinger = (*Store)(nil)
)

// Store keeps the whole ledger in process memory. It is meant for local
// development and tests; nothing survives a restart.
type Store struct {
	mu       sync.Mutex
	partijen []core.Partij
	mutaties []core.Mutatie
	nextPID  int64
	nextMID  int64
	now      func() time.Time
}

func New() *Store {
	return &Store{now: func() time.Time { return time.Now().UTC() }}
}

// NewFromFiles seeds counterparties from seed_partijen.txt in base.
// Each line is "nummer;type;naam" with an optional naam. Blank lines and
// lines starting with # are skipped, as are lines that fail validation.
func NewFromFiles(base string) *Store {
	s := New()
	for _, line := range readLines(filepath.Join(base, "seed_partijen.txt")) {
		parts := strings.SplitN(line, ";", 3)
		if len(parts) < 2 {
			continue
		}
		t, err := core.ParsePartijType(parts[1])
		if err != nil {
			continue
		}
		naam := ""
		if len(parts) == 3 {
			naam = parts[2]
		}
		_, _ = s.CreatePartij(context.Background(), parts[0], naam, t)
	}
	return s
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) ListPartijen(_ context.Context) ([]core.Partij, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.partijen)
	if out == nil {
		out = []core.Partij{}
	}
	core.SortPartijen(out)
	return out, nil
}

func (s *Store) GetPartij(_ context.Context, id int64) (core.Partij, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.findByID(id); ok {
		return p, nil
	}
	return core.Partij{}, core.ErrPartijNotFound
}

func (s *Store) FindPartijByNummer(_ context.Context, nummer string) (core.Partij, error) {
	nummer = strings.TrimSpace(nummer)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.partijen {
		if p.Nummer == nummer {
			return p, nil
		}
	}
	return core.Partij{}, core.ErrPartijNotFound
}

func (s *Store) CreatePartij(_ context.Context, nummer, naam string, t core.PartijType) (int64, error) {
	nummer = strings.TrimSpace(nummer)
	if err := core.ValidatePartij(nummer, t); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.partijen {
		if p.Nummer == nummer {
			return 0, core.ErrPartijExists
		}
	}
	s.nextPID++
	s.partijen = append(s.partijen, core.Partij{
		ID:        s.nextPID,
		Nummer:    nummer,
		Naam:      core.NullableNaam(naam),
		Type:      t,
		CreatedAt: s.now(),
	})
	return s.nextPID, nil
}

func (s *Store) CreateMutatie(_ context.Context, m core.Mutatie) (int64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.findByID(m.PartijID); !ok {
		return 0, core.ErrPartijNotFound
	}
	s.nextMID++
	m.ID = s.nextMID
	m.CreatedAt = s.now()
	s.mutaties = append(s.mutaties, m)
	return m.ID, nil
}

func (s *Store) ListMutaties(_ context.Context) ([]core.MutatieDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detailsLocked(func(core.Mutatie) bool { return true }), nil
}

func (s *Store) ListMutatiesByPartij(_ context.Context, partijID int64) ([]core.MutatieDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detailsLocked(func(m core.Mutatie) bool { return m.PartijID == partijID }), nil
}

// detailsLocked joins the matching movements with their counterparty, most
// recent first. s.mu must be held.
func (s *Store) detailsLocked(keep func(core.Mutatie) bool) []core.MutatieDetail {
	out := make([]core.MutatieDetail, 0)
	for _, m := range s.mutaties {
		if !keep(m) {
			continue
		}
		p, ok := s.findByID(m.PartijID)
		if !ok {
			continue
		}
		out = append(out, core.MutatieDetail{
			Mutatie:      m,
			PartijNummer: p.Nummer,
			PartijNaam:   p.Naam,
			PartijType:   p.Type,
		})
	}
	core.SortMutatiesRecentFirst(out)
	return out
}

func (s *Store) Overzicht(_ context.Context) ([]core.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Summarize(s.partijen, s.mutaties), nil
}

// findByID expects s.mu to be held.
func (s *Store) findByID(id int64) (core.Partij, bool) {
	for _, p := range s.partijen {
		if p.ID == id {
			return p, true
		}
	}
	return core.Partij{}, false
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
