// Package reconcile keeps the unavailability index in step with the live
// subscription slots and one-off bookings of each venue.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"venuebook/internal/database"
	"venuebook/internal/domain"
	"venuebook/internal/logger"
	"venuebook/internal/pkg/keymutex"
	"venuebook/internal/repository"
)

// Publisher forwards one index change to the remote counterpart.
type Publisher interface {
	Publish(ctx context.Context, action domain.ChangeAction, entry domain.UnavailabilityEntry, ownerPhone string) error
}

// RemoteNotifier tells the remote counterpart that a venue was reconciled.
type RemoteNotifier interface {
	SyncDone(ctx context.Context, venueID int64) error
}

// Change is one index write performed by a run.
type Change struct {
	Action domain.ChangeAction
	Entry  domain.UnavailabilityEntry
}

// Report summarises one run.
type Report struct {
	VenueID  int64         `json:"venue_id"`
	Created  int           `json:"created"`
	Updated  int           `json:"updated"`
	Deleted  int           `json:"deleted"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration_ns"`
}

func (r *Report) Changed() bool {
	return r.Created+r.Updated+r.Deleted > 0
}

type Reconciler struct {
	store     *repository.Store
	locks     *keymutex.Mutex[int64]
	publisher Publisher
	remote    RemoteNotifier
	newID     func() string
	log       *zap.Logger
}

type Option func(*Reconciler)

// WithStableIDs replaces the stable id generator.
func WithStableIDs(fn func() string) Option {
	return func(r *Reconciler) { r.newID = fn }
}

// New builds a reconciler. publisher and remote may be nil.
func New(store *repository.Store, publisher Publisher, remote RemoteNotifier, log *zap.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:     store,
		locks:     keymutex.New[int64](),
		publisher: publisher,
		remote:    remote,
		newID:     uuid.NewString,
		log:       logger.OrNop(log),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile makes the venue's index mirror its live sources. Runs for the same
// venue are serialized; other venues proceed in parallel. Changes are
// published only after the transaction commits.
func (r *Reconciler) Reconcile(ctx context.Context, venueID int64) (*Report, error) {
	started := time.Now()
	defer func() { runDuration.Observe(time.Since(started).Seconds()) }()

	unlock, err := r.locks.Lock(ctx, venueID)
	if err != nil {
		runsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	defer unlock()

	var (
		applied []Change
		skipped int
	)
	err = r.store.Transaction(ctx, func(tx *repository.Store) error {
		index, err := tx.Unavailability.FindAllForVenue(ctx, venueID)
		if err != nil {
			return err
		}
		slots, err := tx.Subscriptions.FindSlotsForVenue(ctx, venueID)
		if err != nil {
			return err
		}
		bookings, err := tx.Bookings.FindAllForVenue(ctx, venueID)
		if err != nil {
			return err
		}

		plan := BuildPlan(venueID, index, slots, bookings, r.newID)
		if plan.Empty() {
			return nil
		}
		applied, skipped, err = r.apply(ctx, tx, &plan)
		return err
	}, database.ReadCommitted(r.store.DB()))
	if err != nil {
		runsTotal.WithLabelValues("error").Inc()
		r.log.Error("reconcile failed", zap.Int64("venue_id", venueID), zap.Error(err))
		return nil, fmt.Errorf("reconcile venue %d: %w", venueID, err)
	}

	report := &Report{VenueID: venueID, Skipped: skipped}
	for _, ch := range applied {
		changesTotal.WithLabelValues(string(ch.Action)).Inc()
		switch ch.Action {
		case domain.ActionCreated:
			report.Created++
		case domain.ActionUpdated:
			report.Updated++
		case domain.ActionDeleted:
			report.Deleted++
		}
	}

	if len(applied) > 0 {
		r.publish(ctx, venueID, applied)
	}
	r.notifyRemote(ctx, venueID)

	report.Duration = time.Since(started)
	runsTotal.WithLabelValues("ok").Inc()
	if report.Changed() || skipped > 0 {
		r.log.Info("venue reconciled",
			zap.Int64("venue_id", venueID),
			zap.Int("created", report.Created),
			zap.Int("updated", report.Updated),
			zap.Int("deleted", report.Deleted),
			zap.Int("skipped", report.Skipped),
			zap.Duration("took", report.Duration),
		)
	}
	return report, nil
}

// apply writes the plan. A create that collides with a row written by a
// concurrent run elsewhere is skipped; its savepoint keeps the transaction
// usable.
func (r *Reconciler) apply(ctx context.Context, tx *repository.Store, plan *Plan) ([]Change, int, error) {
	changes := make([]Change, 0, len(plan.Creates)+len(plan.Updates)+len(plan.Deletes))
	skipped := 0

	for _, e := range plan.Deletes {
		if err := tx.Unavailability.Delete(ctx, e.ID); err != nil {
			return nil, 0, err
		}
		changes = append(changes, Change{Action: domain.ActionDeleted, Entry: e})
	}
	for i := range plan.Updates {
		e := plan.Updates[i]
		if err := tx.Unavailability.Update(ctx, &e); err != nil {
			return nil, 0, err
		}
		changes = append(changes, Change{Action: domain.ActionUpdated, Entry: e})
	}
	for i := range plan.Creates {
		e := plan.Creates[i]
		err := tx.Transaction(ctx, func(sp *repository.Store) error {
			return sp.Unavailability.Create(ctx, &e)
		})
		if errors.Is(err, repository.ErrDuplicate) {
			skipped++
			r.log.Warn("index entry already exists, skipping",
				zap.Int64("venue_id", plan.VenueID),
				zap.String("source_kind", string(e.SourceKind)),
				zap.Int64p("source_id", e.SourceID),
			)
			continue
		}
		if err != nil {
			return nil, 0, err
		}
		changes = append(changes, Change{Action: domain.ActionCreated, Entry: e})
	}
	return changes, skipped, nil
}

func (r *Reconciler) publish(ctx context.Context, venueID int64, changes []Change) {
	if r.publisher == nil {
		return
	}
	phone, err := r.store.Venues.OwnerPhone(ctx, venueID)
	if err != nil {
		r.log.Warn("owner phone lookup failed", zap.Int64("venue_id", venueID), zap.Error(err))
	}
	for _, ch := range changes {
		if err := r.publisher.Publish(ctx, ch.Action, ch.Entry, phone); err != nil {
			r.log.Warn("publish failed",
				zap.Int64("venue_id", venueID),
				zap.String("action", string(ch.Action)),
				zap.String("stable_id", ch.Entry.StableID),
				zap.Error(err),
			)
		}
	}
}

func (r *Reconciler) notifyRemote(ctx context.Context, venueID int64) {
	if r.remote == nil {
		return
	}
	if err := r.remote.SyncDone(ctx, venueID); err != nil {
		r.log.Warn("remote sync-done notification failed", zap.Int64("venue_id", venueID), zap.Error(err))
	}
}
