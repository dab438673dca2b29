package http

import (
	"errors"
	"net/http"

	"fust/internal/core"
	applog "fust/internal/log"
	"fust/internal/services"
)

// importResponse is ImportResult with the success flag the UI checks.
type importResponse struct {
	Success bool `json:"success"`
	services.ImportResult
}

func (s *Server) handleListMutaties(w http.ResponseWriter, r *http.Request) {
	mutaties, err := s.ledger.ListMutaties(r.Context())
	if err != nil {
		writeStoreError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, r, http.StatusOK, mutaties)
}

// handleListMutatiesByPartij lists the movements of one counterparty. An
// unknown id yields an empty list.
func (s *Server) handleListMutatiesByPartij(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Ongeldig partij ID")
		return
	}

	mutaties, err := s.ledger.ListMutatiesByPartij(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, applog.OpList, err)
		return
	}
	if mutaties == nil {
		mutaties = []core.MutatieDetail{}
	}
	writeJSON(w, r, http.StatusOK, mutaties)
}

func (s *Server) handleCreateMutatie(w http.ResponseWriter, r *http.Request) {
	var req MutatieRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.rejectCreate(w, r, err)
		return
	}
	m, err := req.ParseMutatie()
	if err != nil {
		s.rejectCreate(w, r, err)
		return
	}

	id, err := s.ledger.CreateMutatie(r.Context(), m)
	if err != nil {
		s.rejectCreate(w, r, err)
		return
	}

	s.metrics.mutatiesCreated.Add(1)
	writeCreated(w, r, id)
}

// handleImportCSV records the movements of an uploaded CSV file. Row
// failures are part of the 200 result; only an unusable file is a 400.
func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFailure(w, r, http.StatusBadRequest, "Bestand is te groot")
			return
		}
		logger.WarnContext(ctx, "Parse multipart form error", applog.FieldError, err)
		writeFailure(w, r, http.StatusBadRequest, "Geen bestand geüpload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeFailure(w, r, http.StatusBadRequest, "Geen bestand geüpload")
		return
	}
	defer file.Close()

	result, err := s.ledger.ImportCSV(ctx, file)
	if err != nil {
		logger.WarnContext(ctx, "CSV import rejected", applog.FieldError, err, "filename", header.Filename)
		writeFailure(w, r, http.StatusBadRequest, err.Error())
		return
	}

	s.metrics.csvImports.Add(1)
	s.metrics.csvRowsImported.Add(int64(result.Successful))
	logger.DebugContext(ctx, "CSV upload processed", applog.FieldOperation, applog.OpImport, "filename", header.Filename)

	writeJSON(w, r, http.StatusOK, importResponse{Success: true, ImportResult: result})
}
