package inventory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/queuecare/hospital-backend/internal/notify"
	redisclient "github.com/queuecare/hospital-backend/internal/redis"
)

var (
	ErrTokenInvalid = errors.New("restock token invalid")
	ErrTokenExpired = errors.New("restock token expired")

	ErrInvalidReorderStatus = errors.New("invalid reorder status")
)

// ActionTokens mints and verifies the signed single-purpose credentials that
// authorize a restock without a login.
type ActionTokens interface {
	MintRestockToken(medicineID uuid.UUID) (token string, expiresAt time.Time, err error)
	// ParseRestockToken returns the token id (for single-use tracking), the
	// medicine the token was minted for and its expiry.
	ParseRestockToken(token string) (tokenID string, medicineID uuid.UUID, expiresAt time.Time, err error)
	IsExpired(err error) bool
}

// Lead time in days until expected delivery, keyed by urgency.
var leadDays = map[Urgency]int{
	UrgencyHigh:   2,
	UrgencyMedium: 5,
	UrgencyLow:    7,
}

// Engine owns the reorder workflow: threshold-triggered request creation,
// supplier/admin notification, the token-gated approval protocol and manual
// status updates.
type Engine struct {
	repo     Repository
	notifier notify.Notifier
	tokens   ActionTokens
	consumer redisclient.TokenConsumer
	locker   redisclient.Locker
	now      func() time.Time
}

func NewEngine(repo Repository, notifier notify.Notifier, tokens ActionTokens, consumer redisclient.TokenConsumer, locker redisclient.Locker) *Engine {
	return &Engine{
		repo:     repo,
		notifier: notifier,
		tokens:   tokens,
		consumer: consumer,
		locker:   locker,
		now:      time.Now,
	}
}

// RestockQuantity computes how much to order so the post-restock stock clears
// the threshold with margin: max(reorderQuantity, 2*reorderLevel - stock).
func RestockQuantity(m Medicine) int {
	qty := 2*m.ReorderLevel - m.Stock
	if m.ReorderQuantity > qty {
		qty = m.ReorderQuantity
	}
	if qty <= 0 {
		qty = DefaultRestockQuantity
	}
	return qty
}

// InitiateReorder creates a reorder request for a medicine under its
// threshold. At most one pending request per medicine exists at any time;
// calling again before completion returns the existing request unchanged.
func (e *Engine) InitiateReorder(ctx context.Context, m Medicine) (*ReorderRequest, error) {
	if existing, err := e.repo.GetPendingReorderForMedicine(ctx, m.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrReorderNotFound) {
		return nil, fmt.Errorf("check pending reorder: %w", err)
	}

	urgency := ClassifyUrgency(m)

	req := &ReorderRequest{
		MedicineID:       m.ID,
		Quantity:         RestockQuantity(m),
		Urgency:          urgency,
		ExpectedDelivery: e.now().AddDate(0, 0, leadDays[urgency]),
	}

	created, fresh, err := e.repo.CreatePendingReorder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create reorder request: %w", err)
	}
	if !fresh {
		// Lost the race against a concurrent initiation; theirs stands.
		return created, nil
	}

	if err := e.repo.AppendReorderHistory(ctx, ReorderHistoryEntry{
		RequestID: created.ID,
		Status:    "initiated",
		Date:      e.now(),
		UpdatedBy: "system",
	}); err != nil {
		log.Printf("failed to append reorder history request=%s: %v", created.ID, err)
	}

	if err := e.repo.MarkReorderRequested(ctx, m.ID, e.now()); err != nil {
		log.Printf("failed to mark medicine reorder-requested medicine=%s: %v", m.ID, err)
	}

	e.dispatchReorderNotifications(m, created)

	return created, nil
}

// ScanAndReorder initiates a reorder for every medicine at or below its
// threshold. Failures on individual medicines are logged and skipped so one
// bad row cannot stall the sweep.
func (e *Engine) ScanAndReorder(ctx context.Context) (int, error) {
	low, err := e.repo.ListBelowReorderLevel(ctx)
	if err != nil {
		return 0, fmt.Errorf("scan inventory: %w", err)
	}

	initiated := 0
	for _, m := range low {
		if _, err := e.InitiateReorder(ctx, m); err != nil {
			log.Printf("failed to initiate reorder medicine=%s: %v", m.ID, err)
			continue
		}
		initiated++
	}
	return initiated, nil
}

// ApproveRestock redeems a signed approval token. Tokens are single-use: the
// first redemption credits the stock, any replay is rejected before touching
// the medicine.
func (e *Engine) ApproveRestock(ctx context.Context, medicineID uuid.UUID, token string) (*Medicine, error) {
	tokenID, tokenMedicineID, expiresAt, err := e.tokens.ParseRestockToken(token)
	if err != nil {
		if e.tokens.IsExpired(err) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if tokenMedicineID != medicineID {
		return nil, ErrTokenInvalid
	}

	var updated *Medicine

	err = e.locker.WithLock(ctx, "restock:"+medicineID.String(), func(lockCtx context.Context) error {
		ttl := time.Until(expiresAt)
		if err := e.consumer.Consume(lockCtx, tokenID, ttl); err != nil {
			if errors.Is(err, redisclient.ErrTokenConsumed) {
				return ErrTokenInvalid
			}
			// Without the consumed-set we cannot guarantee single use;
			// refuse rather than risk a double credit.
			return fmt.Errorf("verify token freshness: %w", err)
		}

		billNo := fmt.Sprintf("PO-%d", e.now().Unix())
		m, err := e.repo.ApplyRestock(lockCtx, medicineID, billNo, e.now())
		if err != nil {
			return fmt.Errorf("apply restock: %w", err)
		}
		updated = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	notify.Dispatch(e.notifier, notify.KindRestockApproved, map[string]any{
		"medicineId": medicineID.String(),
		"name":       updated.Name,
		"stock":      updated.Stock,
	})

	return updated, nil
}

// UpdateStatus moves a reorder request through its workflow. Completing a
// request credits the medicine's stock by the request quantity exactly once;
// terminal requests reject further transitions.
func (e *Engine) UpdateStatus(ctx context.Context, requestID uuid.UUID, to ReorderStatus, updatedBy, notes string) (*ReorderRequest, error) {
	switch to {
	case ReorderApproved, ReorderCompleted, ReorderCancelled:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidReorderStatus, to)
	}

	updated, err := e.repo.TransitionReorder(ctx, requestID, to, updatedBy, notes)
	if err != nil {
		return nil, err
	}

	if to == ReorderCompleted {
		notify.Dispatch(e.notifier, notify.KindReorderAdmin, map[string]any{
			"requestId":  updated.ID.String(),
			"medicineId": updated.MedicineID.String(),
			"quantity":   updated.Quantity,
			"status":     string(to),
		})
	}

	return updated, nil
}

// ListRequests returns reorder requests, optionally filtered by status.
func (e *Engine) ListRequests(ctx context.Context, status ReorderStatus) ([]ReorderRequest, error) {
	return e.repo.ListReordersByStatus(ctx, status)
}

// RequestHistory returns the audit trail of one reorder request.
func (e *Engine) RequestHistory(ctx context.Context, requestID uuid.UUID) ([]ReorderHistoryEntry, error) {
	return e.repo.ListReorderHistory(ctx, requestID)
}

func (e *Engine) dispatchReorderNotifications(m Medicine, req *ReorderRequest) {
	payload := map[string]any{
		"medicineId":       m.ID.String(),
		"name":             m.Name,
		"stock":            m.Stock,
		"quantity":         req.Quantity,
		"urgency":          string(req.Urgency),
		"expectedDelivery": req.ExpectedDelivery.Format("2006-01-02"),
	}

	notify.Dispatch(e.notifier, notify.KindReorderAdmin, payload)

	supplierPayload := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		supplierPayload[k] = v
	}
	if token, expiresAt, err := e.tokens.MintRestockToken(m.ID); err != nil {
		log.Printf("failed to mint restock token medicine=%s: %v", m.ID, err)
	} else {
		supplierPayload["approvalPath"] = fmt.Sprintf("/restock/approve/%s/%s", m.ID, token)
		supplierPayload["approvalExpires"] = expiresAt.Format(time.RFC3339)
	}

	notify.Dispatch(e.notifier, notify.KindReorderSupplier, supplierPayload)
}
