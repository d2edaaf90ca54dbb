package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"conti/internal/core"
)

// formatEuros formats an amount in euros as a currency string
// (e.g. "€12,34"). Amounts round to the cent for display only.
func formatEuros(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "€0,00"
	}
	cents := int64(math.Round(amount * 100))
	neg := cents < 0
	if neg {
		cents = -cents
	}
	euros := cents / 100
	rem := cents % 100
	s := strconv.FormatInt(euros, 10) + "," + fmt.Sprintf("%02d", rem)
	if neg {
		return "-€" + s
	}
	return "€" + s
}

// kindLabel maps an entry kind to its display label.
func kindLabel(kind core.EntryKind) string {
	switch kind {
	case core.LegalExpense:
		return "Spese legali"
	case core.OtherExpense:
		return "Altre spese"
	case core.RentIncome:
		return "Affitto"
	default:
		return string(kind)
	}
}

// sanitizeInput removes potentially dangerous characters and trims
// whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
