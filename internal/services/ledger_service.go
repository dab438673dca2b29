package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"fust/internal/core"
	applog "fust/internal/log"
	"fust/internal/ports"
)

var _ ports.Ledger = (*LedgerService)(nil)

// EventPublisher announces committed movements to other processes.
type EventPublisher interface {
	PublishMutatieCreated(ctx context.Context, m core.Mutatie) error
}

// LedgerService orchestrates ledger operations across the store and AMQP.
type LedgerService struct {
	store     ports.Ledger
	publisher EventPublisher
}

// NewLedgerService wraps store. publisher may be nil, in which case no
// events are sent.
func NewLedgerService(store ports.Ledger, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
	}
}

func (s *LedgerService) ListPartijen(ctx context.Context) ([]core.Partij, error) {
	return s.store.ListPartijen(ctx)
}

func (s *LedgerService) GetPartij(ctx context.Context, id int64) (core.Partij, error) {
	return s.store.GetPartij(ctx, id)
}

func (s *LedgerService) FindPartijByNummer(ctx context.Context, nummer string) (core.Partij, error) {
	return s.store.FindPartijByNummer(ctx, nummer)
}

func (s *LedgerService) CreatePartij(ctx context.Context, nummer, naam string, t core.PartijType) (int64, error) {
	id, err := s.store.CreatePartij(ctx, nummer, naam, t)
	if err != nil {
		return 0, err
	}
	applog.NewStructuredLogger(applog.FromContext(ctx)).LogPartijCreated(ctx, id, nummer, t.String())
	return id, nil
}

// CreateMutatie saves the movement and then publishes a mutatie.created event.
func (s *LedgerService) CreateMutatie(ctx context.Context, m core.Mutatie) (int64, error) {
	id, err := s.store.CreateMutatie(ctx, m)
	if err != nil {
		return 0, err
	}

	m.ID = id
	applog.NewStructuredLogger(applog.FromContext(ctx)).
		LogMutatieCreated(ctx, id, m.PartijID, m.Datum.String(), m.Geladen, m.Gelost)

	if err := s.publishCreated(ctx, m); err != nil {
		// The row is committed; the export catches up on the next event.
		slog.ErrorContext(ctx, "Failed to publish mutatie created message",
			"id", id, "partij_id", m.PartijID, "error", err)
	}

	return id, nil
}

func (s *LedgerService) ListMutaties(ctx context.Context) ([]core.MutatieDetail, error) {
	return s.store.ListMutaties(ctx)
}

func (s *LedgerService) ListMutatiesByPartij(ctx context.Context, partijID int64) ([]core.MutatieDetail, error) {
	return s.store.ListMutatiesByPartij(ctx, partijID)
}

func (s *LedgerService) Overzicht(ctx context.Context) ([]core.Balance, error) {
	return s.store.Overzicht(ctx)
}

// Ping reports whether the underlying store is reachable. Stores that cannot
// be pinged are assumed ready.
func (s *LedgerService) Ping(ctx context.Context) error {
	if p, ok := s.store.(ports.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *LedgerService) publishCreated(ctx context.Context, m core.Mutatie) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping mutatie created message")
		return nil
	}
	return s.publisher.PublishMutatieCreated(ctx, m)
}

// Close closes the store and the publisher when they hold resources.
func (s *LedgerService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}
