package sheets

import (
	"context"

	"conti/internal/core"
)

// Exporter mirrors ledger entries to an external spreadsheet, the
// group's legacy shared view. Rows are keyed by entry id so removals
// can find their row without the original data.
type Exporter interface {
	AppendEntry(ctx context.Context, id int64, e core.Entry) error
	RemoveEntry(ctx context.Context, id int64) error
}
