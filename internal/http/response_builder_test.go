package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBuilderWritesTriggersAndBody(t *testing.T) {
	rec := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerEntryCreated(12).
		TriggerBalancesRefresh().
		BodyHTML(`<div class="success">ok</div>`).
		Write(rec)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Errorf("content type = %q", got)
	}

	var triggers map[string]json.RawMessage
	if err := json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &triggers); err != nil {
		t.Fatalf("HX-Trigger not valid JSON: %v", err)
	}
	if _, ok := triggers["entry:created"]; !ok {
		t.Errorf("missing entry:created trigger")
	}
	if _, ok := triggers["balances:refresh"]; !ok {
		t.Errorf("missing balances:refresh trigger")
	}
}

func TestErrorResponseEscapesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	UnprocessableEntityError(`<script>alert(1)</script>`).Write(rec)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "<script>") {
		t.Errorf("message not escaped: %s", rec.Body.String())
	}
}

func TestNotificationTriggerPayload(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHTMXResponse().TriggerSuccessNotification("fatto").Write(rec)

	var triggers map[string]struct {
		Type     string `json:"type"`
		Message  string `json:"message"`
		Duration int    `json:"duration"`
	}
	if err := json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &triggers); err != nil {
		t.Fatalf("HX-Trigger not valid JSON: %v", err)
	}
	n, ok := triggers["show-notification"]
	if !ok {
		t.Fatalf("missing show-notification trigger")
	}
	if n.Type != string(NotificationSuccess) || n.Message != "fatto" || n.Duration != 3000 {
		t.Errorf("payload = %+v", n)
	}
}

func TestNoTriggerHeaderWithoutTriggers(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHTMXResponse().BodyHTML("ok").Write(rec)

	if rec.Header().Get("HX-Trigger") != "" {
		t.Errorf("unexpected HX-Trigger header")
	}
}
