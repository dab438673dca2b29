package ports

import (
	"context"

	"fust/internal/core"
)

// Ports for the fust ledger. Implemented by the SQLite repository, the
// in-memory store and the ledger service that wraps either of them.
type (
	PartijRegistry interface {
		// ListPartijen returns all counterparties ordered by type, then name.
		ListPartijen(ctx context.Context) ([]core.Partij, error)
		// CreatePartij registers a counterparty and returns its id.
		CreatePartij(ctx context.Context, nummer, naam string, t core.PartijType) (int64, error)
		GetPartij(ctx context.Context, id int64) (core.Partij, error)
		FindPartijByNummer(ctx context.Context, nummer string) (core.Partij, error)
	}

	MutatieLedger interface {
		// CreateMutatie appends a movement for an existing counterparty and returns its id.
		CreateMutatie(ctx context.Context, m core.Mutatie) (int64, error)
		// ListMutaties returns all movements joined with their counterparty, newest first.
		ListMutaties(ctx context.Context) ([]core.MutatieDetail, error)
		// ListMutatiesByPartij returns the movements of one counterparty in
		// ListMutaties order; an unknown id yields an empty list.
		ListMutatiesByPartij(ctx context.Context, partijID int64) ([]core.MutatieDetail, error)
	}

	// OverzichtReader derives the per-counterparty balance from the ledger.
	OverzichtReader interface {
		Overzicht(ctx context.Context) ([]core.Balance, error)
	}

	// Ledger is everything the HTTP layer needs from a backend.
	Ledger interface {
		PartijRegistry
		MutatieLedger
		OverzichtReader
	}

	// Pinger is implemented by backends that can report their health.
	Pinger interface {
		Ping(ctx context.Context) error
	}

	// OverzichtWriter publishes a balance overview to an external destination.
	OverzichtWriter interface {
		WriteOverzicht(ctx context.Context, rows []core.Balance) error
	}
)
