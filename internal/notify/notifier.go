package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// BatchEvent describes a batch the scheduler created or extended
type BatchEvent struct {
	UserID     int64
	WordBankID int64
	BatchNo    string
	Created    bool
	// Added lists the words added by this run
	Added []string
}

// Summary renders the event as one line
func (e BatchEvent) Summary() string {
	verb := "extended"
	if e.Created {
		verb = "created"
	}
	return fmt.Sprintf("Batch %s %s for user %d (bank %d): %d new words",
		e.BatchNo, verb, e.UserID, e.WordBankID, len(e.Added))
}

// Body renders the event with its words
func (e BatchEvent) Body() string {
	var b strings.Builder
	b.WriteString(e.Summary())
	if len(e.Added) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(e.Added, ", "))
	}
	return b.String()
}

// Notifier delivers batch events
type Notifier interface {
	NotifyBatch(ctx context.Context, event BatchEvent) error
}

// Nop drops every event
type Nop struct{}

func (Nop) NotifyBatch(context.Context, BatchEvent) error { return nil }

// Multi fans an event out to several notifiers. Every notifier is tried
// and the errors are joined.
type Multi []Notifier

func (m Multi) NotifyBatch(ctx context.Context, event BatchEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyBatch(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
