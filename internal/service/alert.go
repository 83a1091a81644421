package service

import (
	"context"
	"log"
	"time"

	"github.com/mohaimenalqadi/kick-donations/internal/hub"
	"github.com/mohaimenalqadi/kick-donations/internal/model"
	"github.com/mohaimenalqadi/kick-donations/internal/queue"
	"github.com/mohaimenalqadi/kick-donations/internal/tier"
)

// DonationStore is the slice of the donation repository the lifecycle needs.
// MarkLive and MarkDone are conditional transitions: they fail with
// repository.ErrInvalidTransition when the row is not in the expected state.
type DonationStore interface {
	GetByID(ctx context.Context, id string) (model.Donation, error)
	MarkLive(ctx context.Context, id string) error
	MarkDone(ctx context.Context, id string, displayedAt time.Time) error
}

// TierStore supplies the tier configuration for styling resolution.
type TierStore interface {
	ListAll(ctx context.Context) ([]model.TierSetting, error)
}

// Broadcaster fans lifecycle events out to connected sessions.
type Broadcaster interface {
	BroadcastNewAlert(a hub.AlertPayload)
	BroadcastStatusChanged(donationID string, status model.Status, displayedAt *time.Time)
}

// AlertService drives a donation through its display lifecycle. Dispatch
// moves pending -> live and fans the alert out; Complete moves live -> done,
// mirrors the transition to dashboards and hands the record to the audit
// pipeline. Both transitions are conditional updates in the store, so
// concurrent calls settle to exactly one winner.
type AlertService struct {
	Donations DonationStore
	Tiers     TierStore

	h Broadcaster
}

// NewAlertService returns an AlertService without a hub attached. The hub
// needs the service's Complete method at construction time, so wiring
// happens in two steps: build the service, build the hub around Complete,
// then AttachHub.
func NewAlertService(d DonationStore, t TierStore) *AlertService {
	return &AlertService{Donations: d, Tiers: t}
}

// AttachHub connects the broadcast hub. Must be called before Dispatch.
func (s *AlertService) AttachHub(h Broadcaster) { s.h = h }

// Dispatch transitions the donation from pending to live and broadcasts a
// new_alert event carrying the tier styling resolved right now against the
// donation's frozen tier label. Returns the resolved payload so the HTTP
// handler can echo it back to the operator.
func (s *AlertService) Dispatch(ctx context.Context, id string) (hub.AlertPayload, error) {
	d, err := s.Donations.GetByID(ctx, id)
	if err != nil {
		return hub.AlertPayload{}, err
	}
	if err := s.Donations.MarkLive(ctx, id); err != nil {
		return hub.AlertPayload{}, err
	}
	d.Status = model.StatusLive

	tiers, err := s.Tiers.ListAll(ctx)
	if err != nil {
		// Styling is cosmetic; the transition already happened. Fall back
		// rather than failing the dispatch.
		log.Printf("alert-service: tier lookup failed, using fallback styling: %v", err)
		tiers = nil
	}
	payload := hub.NewAlertPayload(d, tier.Resolve(d.Amount, tiers))
	s.h.BroadcastNewAlert(payload)
	s.h.BroadcastStatusChanged(d.ID, model.StatusLive, nil)
	return payload, nil
}

// Complete transitions the donation from live to done, stamps displayed_at,
// mirrors the change to every session and publishes the audit event. It is
// the hub's completion callback, so a malformed or replayed completion from
// a display session surfaces here as ErrInvalidTransition and is dropped.
func (s *AlertService) Complete(ctx context.Context, id string) error {
	displayedAt := time.Now().UTC()
	if err := s.Donations.MarkDone(ctx, id, displayedAt); err != nil {
		return err
	}
	s.h.BroadcastStatusChanged(id, model.StatusDone, &displayedAt)

	d, err := s.Donations.GetByID(ctx, id)
	if err != nil {
		log.Printf("alert-service: reload after completion failed: %v", err)
		return nil
	}
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = PublishAlertCompleted(pubCtx, queue.AlertCompletedEvent{
			DonationID:  d.ID,
			DonorName:   d.DonorName,
			Amount:      d.Amount,
			Tier:        d.Tier,
			CreatedAt:   d.CreatedAt.Format(time.RFC3339),
			DisplayedAt: displayedAt.Format(time.RFC3339),
		})
	}()
	return nil
}
