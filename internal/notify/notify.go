// Package notify delivers comparison and approval events to humans and
// other services. Delivery failures are reported to the caller, who logs
// them; they never change a comparison or an approval.
package notify

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"quotecraft/internal/compare/model"
)

type Notifier interface {
	ComparisonCreated(ctx context.Context, c *model.ComparisonResult) error
	ApprovalDecided(ctx context.Context, a *model.Approval) error
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) ComparisonCreated(ctx context.Context, c *model.ComparisonResult) error {
	var errs []error
	for _, n := range m {
		if err := n.ComparisonCreated(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) ApprovalDecided(ctx context.Context, a *model.Approval) error {
	var errs []error
	for _, n := range m {
		if err := n.ApprovalDecided(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Nop struct{}

func (Nop) ComparisonCreated(context.Context, *model.ComparisonResult) error { return nil }
func (Nop) ApprovalDecided(context.Context, *model.Approval) error           { return nil }

// Async runs notifications in the background and logs failures.
// The caller's request never waits for, or fails because of, delivery.
type Async struct {
	next Notifier
	log  zerolog.Logger
}

func NewAsync(next Notifier, logger zerolog.Logger) *Async {
	return &Async{next: next, log: logger}
}

func (a *Async) ComparisonCreated(ctx context.Context, c *model.ComparisonResult) error {
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := a.next.ComparisonCreated(ctx, c); err != nil {
			a.log.Warn().Err(err).Str("comparison_id", c.ID).Msg("comparison notification failed")
		}
	}()
	return nil
}

func (a *Async) ApprovalDecided(ctx context.Context, ap *model.Approval) error {
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := a.next.ApprovalDecided(ctx, ap); err != nil {
			a.log.Warn().Err(err).Str("approval_id", ap.ID).Msg("approval notification failed")
		}
	}()
	return nil
}
