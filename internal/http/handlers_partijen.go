package http

import (
	"errors"
	"net/http"

	"fust/internal/core"
	applog "fust/internal/log"
)

// msgPartijExists is shown for a duplicate nummer.
const msgPartijExists = "Partij nummer bestaat al"

func (s *Server) handleListPartijen(w http.ResponseWriter, r *http.Request) {
	partijen, err := s.ledger.ListPartijen(r.Context())
	if err != nil {
		writeStoreError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, r, http.StatusOK, partijen)
}

func (s *Server) handleGetPartij(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Ongeldig partij ID")
		return
	}

	p, err := s.ledger.GetPartij(r.Context(), id)
	if errors.Is(err, core.ErrPartijNotFound) {
		writeError(w, r, http.StatusNotFound, "Partij niet gevonden")
		return
	}
	if err != nil {
		writeStoreError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

// handleCreatePartij answers every failure with 400, including store errors.
func (s *Server) handleCreatePartij(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PartijRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.rejectCreate(w, r, err)
		return
	}
	nummer, naam, t, err := req.ParsePartij()
	if err != nil {
		s.rejectCreate(w, r, err)
		return
	}

	id, err := s.ledger.CreatePartij(ctx, nummer, naam, t)
	if err != nil {
		s.rejectCreate(w, r, err)
		return
	}

	s.metrics.partijenCreated.Add(1)
	writeCreated(w, r, id)
}

// rejectCreate maps a write failure to a 400 body. Validation failures are
// logged at warn, anything unexpected at error.
func (s *Server) rejectCreate(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)
	s.metrics.createFailures.Add(1)

	msg := err.Error()
	switch {
	case errors.Is(err, core.ErrPartijExists):
		msg = msgPartijExists
		logger.WarnContext(ctx, "Create rejected", applog.FieldError, err)
	case isValidationError(err):
		logger.WarnContext(ctx, "Create rejected", applog.FieldError, err)
	default:
		logger.ErrorContext(ctx, "Create failed", applog.FieldError, err, applog.FieldPath, r.URL.Path)
	}
	writeFailure(w, r, http.StatusBadRequest, msg)
}

func isValidationError(err error) bool {
	for _, target := range []error{
		errInvalidJSON,
		core.ErrEmptyNummer,
		core.ErrInvalidPartijType,
		core.ErrPartijNotFound,
		core.ErrInvalidDatum,
		core.ErrNegativeAmount,
		core.ErrInvalidCount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
