package core

import (
	"cmp"
	"slices"
)

// Balance is the running fust balance of a single counterparty.
type Balance struct {
	ID            int64      `json:"id"`
	Nummer        string     `json:"nummer"`
	Naam          *string    `json:"naam"`
	Type          PartijType `json:"type"`
	TotaalGeladen int64      `json:"totaal_geladen"`
	TotaalGelost  int64      `json:"totaal_gelost"`
	Balans        int64      `json:"balans"`
}

// Summarize computes one Balance per counterparty from the full ledger.
// Counterparties without movements report zero totals. Movements whose
// counterparty is unknown are ignored. The result is ordered like
// SortPartijen orders the counterparties.
func Summarize(partijen []Partij, mutaties []Mutatie) []Balance {
	sorted := slices.Clone(partijen)
	SortPartijen(sorted)

	index := make(map[int64]int, len(sorted))
	out := make([]Balance, len(sorted))
	for i, p := range sorted {
		index[p.ID] = i
		out[i] = Balance{ID: p.ID, Nummer: p.Nummer, Naam: p.Naam, Type: p.Type}
	}

	for _, m := range mutaties {
		i, ok := index[m.PartijID]
		if !ok {
			continue
		}
		out[i].TotaalGeladen += m.Geladen
		out[i].TotaalGelost += m.Gelost
	}
	for i := range out {
		out[i].Balans = out[i].TotaalGeladen - out[i].TotaalGelost
	}
	return out
}

// SortPartijen orders counterparties by type, then name, then id.
// A missing name sorts before any present one, matching SQLite's NULL ordering.
func SortPartijen(ps []Partij) {
	slices.SortStableFunc(ps, func(a, b Partij) int {
		if c := cmp.Compare(a.Type, b.Type); c != 0 {
			return c
		}
		if c := compareNaam(a.Naam, b.Naam); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// SortMutatiesRecentFirst orders movements by date, then insertion time, newest first.
func SortMutatiesRecentFirst(ms []MutatieDetail) {
	slices.SortStableFunc(ms, func(a, b MutatieDetail) int {
		if c := b.Datum.Compare(a.Datum.Time); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}

func compareNaam(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return cmp.Compare(*a, *b)
	}
}
