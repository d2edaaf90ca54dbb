package http

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"conti/internal/core"
	"conti/internal/ledger"
	"conti/internal/log"
)

// kindOption feeds the kind selects in the templates.
type kindOption struct {
	Value core.EntryKind
	Label string
}

func kindOptions() []kindOption {
	return []kindOption{
		{Value: core.LegalExpense, Label: kindLabel(core.LegalExpense)},
		{Value: core.OtherExpense, Label: kindLabel(core.OtherExpense)},
		{Value: core.RentIncome, Label: kindLabel(core.RentIncome)},
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := struct {
		Members []core.Member
		Kinds   []kindOption
		Today   string
	}{
		Members: s.group.Members(),
		Kinds:   kindOptions(),
		Today:   core.Today().ISO(),
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	entry, errResp := parseEntryForm(r, s.group)
	if errResp != nil {
		errResp.Write(w)
		return
	}

	id, err := s.svc.Create(r.Context(), entry)
	if err != nil {
		if isValidationError(err) {
			slog.WarnContext(r.Context(), "Entry rejected", "error", err,
				log.Kind(string(entry.Kind)), log.Member(string(entry.Payer)))
			UnprocessableEntityError("Dati non validi: " + err.Error()).
				TriggerErrorNotification("Dati non validi").
				Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Entry append error", "error", err,
			log.Kind(string(entry.Kind)), log.Amount(entry.Amount))
		InternalServerError("Errore nel salvataggio").Write(w)
		return
	}

	s.invalidateSnapshots()

	NewHTMXResponse().
		TriggerEntryCreated(id).
		TriggerBalancesRefresh().
		TriggerFormReset().
		TriggerSuccessNotification("Movimento registrato").
		BodyHTML(`<div class="success">Movimento registrato (#` + strconv.FormatInt(id, 10) + `): ` +
			template.HTMLEscapeString(kindLabel(entry.Kind)) +
			` ` + formatEuros(entry.Amount) +
			` (` + template.HTMLEscapeString(s.group.Label(entry.Payer)) + `)</div>`).
		Write(w)
}

func (s *Server) handleSetSettled(w http.ResponseWriter, r *http.Request) {
	id, errResp := parseEntryID(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formato richiesta non valido").Write(w)
		return
	}
	settled := r.Form.Get("settled") != "false"

	if err := s.svc.SetSettled(r.Context(), id, settled); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			NotFoundError("Movimento non trovato").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Set settled error", "error", err, log.EntryID(id))
		InternalServerError("Errore nell'aggiornamento").Write(w)
		return
	}

	s.invalidateSnapshots()

	NewHTMXResponse().
		TriggerEntryUpdated(id).
		Write(w)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, errResp := parseEntryID(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}

	if err := s.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			NotFoundError("Movimento non trovato").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Entry delete error", "error", err, log.EntryID(id))
		InternalServerError("Errore nella cancellazione").Write(w)
		return
	}

	s.invalidateSnapshots()

	NewHTMXResponse().
		TriggerEntryDeleted(id).
		TriggerBalancesRefresh().
		TriggerSuccessNotification("Movimento eliminato").
		Write(w)
}

// handleLedger renders the entry table partial, optionally narrowed by
// kind.
func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	kind := parseKindFilter(r)
	snap, err := s.getSnapshot(r.Context(), kind)
	if err != nil {
		slog.ErrorContext(r.Context(), "Ledger snapshot error", "error", err, log.Kind(string(kind)))
		_, _ = w.Write([]byte(`<section id="ledger" class="ledger"><div class="placeholder">Errore caricando il registro</div></section>`))
		return
	}

	type row struct {
		ID      int64
		Date    string
		Kind    string
		Payer   string
		Amount  string
		Note    string
		Settled bool
		Income  bool
	}
	data := struct {
		Kind  core.EntryKind
		Kinds []kindOption
		Rows  []row
	}{Kind: kind, Kinds: kindOptions()}

	for _, e := range snap.Entries {
		data.Rows = append(data.Rows, row{
			ID:      e.ID,
			Date:    e.Date.ISO(),
			Kind:    kindLabel(e.Kind),
			Payer:   s.group.Label(e.Payer),
			Amount:  formatEuros(e.Amount),
			Note:    e.Note,
			Settled: e.Settled,
			Income:  e.Kind.IsIncome(),
		})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="ledger" class="ledger"><div class="placeholder">` + strconv.Itoa(len(data.Rows)) + ` movimenti</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "ledger.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "ledger.html")
		_, _ = w.Write([]byte(`<section id="ledger" class="ledger"><div class="placeholder">Errore rendering registro</div></section>`))
	}
}

// handleBalances renders the balances and settlement plan partial.
// Balances always come from the full entry list, never a filtered one.
func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	snap, err := s.getSnapshot(r.Context(), "")
	if err != nil {
		slog.ErrorContext(r.Context(), "Balances snapshot error", "error", err)
		_, _ = w.Write([]byte(`<section id="balances" class="balances"><div class="placeholder">Errore caricando i saldi</div></section>`))
		return
	}

	type balanceRow struct {
		Member   string
		Amount   string
		Creditor bool
	}
	type transferRow struct {
		From, To, Amount string
	}
	data := struct {
		Balances  []balanceRow
		Transfers []transferRow
		AllEven   bool
	}{}

	for _, id := range s.group.IDs() {
		v := snap.Balances[id]
		data.Balances = append(data.Balances, balanceRow{
			Member:   s.group.Label(id),
			Amount:   formatEuros(v),
			Creditor: v > 0,
		})
	}
	for _, in := range snap.Instructions {
		data.Transfers = append(data.Transfers, transferRow{
			From:   s.group.Label(in.From),
			To:     s.group.Label(in.To),
			Amount: formatEuros(in.Amount),
		})
	}
	data.AllEven = len(data.Transfers) == 0

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="balances" class="balances"><div class="placeholder">` + strconv.Itoa(len(data.Transfers)) + ` trasferimenti</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "balances.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "balances.html")
		_, _ = w.Write([]byte(`<section id="balances" class="balances"><div class="placeholder">Errore rendering saldi</div></section>`))
	}
}

// isValidationError reports whether the error stems from entry
// admission rather than storage.
func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrUnknownKind,
		core.ErrInvalidDate,
		core.ErrInvalidAmount,
		core.ErrUnknownMember,
		core.ErrNoteTooLong,
		core.ErrSplitSum,
		core.ErrNegativeShare,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
