package ledger

import (
	"context"
	"errors"

	"conti/internal/core"
)

// ErrNotFound is returned by stores when the referenced entry does
// not exist.
var ErrNotFound = errors.New("entry not found")

// Ports for the entry stores. The core never talks to storage directly;
// it only sees the snapshot the service hands it.
type (
	EntryWriter interface {
		Append(ctx context.Context, e core.Entry) (id int64, err error)
	}

	// EntryLister returns the full entry list: one consistent snapshot
	// per call, oldest first. Balances are always computed from the
	// complete list, so there is no filtered variant at this level.
	EntryLister interface {
		ListEntries(ctx context.Context) ([]core.Entry, error)
	}

	EntryDeleter interface {
		DeleteEntry(ctx context.Context, id int64) error
	}

	// SettledToggler flips the informational settled flag. The flag
	// never feeds back into balance computation.
	SettledToggler interface {
		SetSettled(ctx context.Context, id int64, settled bool) error
	}

	// Store is the full set of operations a backend must provide.
	Store interface {
		EntryWriter
		EntryLister
		EntryDeleter
		SettledToggler
	}

	// Publisher notifies the export pipeline about entry changes.
	Publisher interface {
		PublishEntrySync(ctx context.Context, id int64) error
		PublishEntryDelete(ctx context.Context, id int64) error
	}
)
