package http

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fust/internal/core"
	applog "fust/internal/log"
)

var exportHeader = []string{"nummer", "naam", "type", "totaal_geladen", "totaal_gelost", "balans"}

func (s *Server) handleOverzicht(w http.ResponseWriter, r *http.Request) {
	overzicht, err := s.ledger.Overzicht(r.Context())
	if err != nil {
		writeStoreError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, r, http.StatusOK, overzicht)
}

// handleExportOverzicht streams the balance overview as a CSV attachment.
func (s *Server) handleExportOverzicht(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	overzicht, err := s.ledger.Overzicht(ctx)
	if err != nil {
		writeStoreError(w, r, applog.OpExport, err)
		return
	}

	filename := fmt.Sprintf("fust-overzicht-%s.csv", time.Now().Format(core.DateLayout))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "CSV export failed", applog.FieldError, err)
		return
	}
	for _, b := range overzicht {
		if err := cw.Write(balanceRecord(b)); err != nil {
			applog.FromContext(ctx).ErrorContext(ctx, "CSV export failed", applog.FieldError, err)
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "CSV export failed", applog.FieldError, err)
	}
}

func balanceRecord(b core.Balance) []string {
	naam := ""
	if b.Naam != nil {
		naam = *b.Naam
	}
	return []string{
		b.Nummer,
		naam,
		b.Type.String(),
		strconv.FormatInt(b.TotaalGeladen, 10),
		strconv.FormatInt(b.TotaalGelost, 10),
		strconv.FormatInt(b.Balans, 10),
	}
}
