package http

import (
	"net/http"
	"strconv"
	"strings"

	"conti/internal/core"
)

// parseEntryForm builds an entry from the creation form. It returns a
// ready error response when the input cannot even be assembled;
// semantic validation stays with core.Entry.Validate.
//
// Expected fields: kind, date (YYYY-MM-DD, today when empty), amount,
// payer, note, split (equal|custom) and share_<member> fractions when
// custom.
func parseEntryForm(r *http.Request, group core.Group) (core.Entry, *HTMXResponseBuilder) {
	if err := r.ParseForm(); err != nil {
		return core.Entry{}, BadRequestError("Formato richiesta non valido")
	}

	kind := core.EntryKind(sanitizeInput(r.Form.Get("kind")))

	date := core.Today()
	if v := strings.TrimSpace(r.Form.Get("date")); v != "" {
		parsed, err := core.ParseDate(v)
		if err != nil {
			return core.Entry{}, UnprocessableEntityError("Data non valida")
		}
		date = parsed
	}

	amount, err := core.ParseAmount(strings.TrimSpace(r.Form.Get("amount")))
	if err != nil {
		return core.Entry{}, UnprocessableEntityError("Importo non valido")
	}

	payer := core.MemberID(sanitizeInput(r.Form.Get("payer")))
	note := sanitizeInput(r.Form.Get("note"))

	split, errResp := parseSplit(r, group)
	if errResp != nil {
		return core.Entry{}, errResp
	}

	return core.Entry{
		Kind:   kind,
		Date:   date,
		Amount: amount,
		Payer:  payer,
		Split:  split,
		Note:   note,
	}, nil
}

// parseSplit reads the split mode and, for custom splits, one fraction
// per member from share_<id> fields. Missing fields mean a zero share.
func parseSplit(r *http.Request, group core.Group) (core.SplitRatio, *HTMXResponseBuilder) {
	mode := strings.TrimSpace(r.Form.Get("split"))
	if mode == "" || mode == "equal" {
		return core.EqualSplit(group), nil
	}
	if mode != "custom" {
		return nil, UnprocessableEntityError("Ripartizione non valida")
	}

	split := make(core.SplitRatio, group.Size())
	for _, id := range group.IDs() {
		v := strings.TrimSpace(r.Form.Get("share_" + string(id)))
		if v == "" {
			continue
		}
		share, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
		if err != nil {
			return nil, UnprocessableEntityError("Quota non valida per " + group.Label(id))
		}
		split[id] = share
	}
	return split, nil
}

// parseEntryID extracts the {id} path value.
func parseEntryID(r *http.Request) (int64, *HTMXResponseBuilder) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, BadRequestError("Identificativo non valido")
	}
	return id, nil
}

// parseKindFilter reads the optional kind query parameter. An unknown
// kind falls back to the unfiltered view.
func parseKindFilter(r *http.Request) core.EntryKind {
	kind := core.EntryKind(strings.TrimSpace(r.URL.Query().Get("kind")))
	if kind == "" || !kind.Valid() {
		return ""
	}
	return kind
}
