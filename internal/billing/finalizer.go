package billing

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/asaskevich/EventBus"
	"github.com/poskit/billingd/internal/domain"
	"github.com/poskit/billingd/pkg/common"
	"github.com/poskit/billingd/pkg/metrics"
	"go.uber.org/zap"
)

// TopicFinalized is published with the invoice number after a successful
// stock commit. The application subscribes to refresh the catalog
// snapshot so subsequent sales see the decremented stock.
const TopicFinalized = "billing.finalized"

// Finalize actions, matching the operator's print and download buttons.
const (
	ActionPrint    = "print"
	ActionDownload = "download"
)

// State of the finalize cycle.
type State int32

const (
	StateIdle State = iota
	StateCommitting
	StateRendering
)

func (s State) String() string {
	switch s {
	case StateCommitting:
		return "committing"
	case StateRendering:
		return "rendering"
	default:
		return "idle"
	}
}

// StockCommitter commits a finalized cart against authoritative stock.
// The gateway is all-or-nothing: any rejection leaves stock unchanged.
type StockCommitter interface {
	UpdateStock(ctx context.Context, items []domain.StockCommitItem) error
}

// Artifact is a rendered invoice ready to hand to the operator.
type Artifact struct {
	ContentType string
	Filename    string
	Content     []byte
}

// Renderer turns a finalized bill snapshot into a printable or
// downloadable artifact. Failures are returned, never swallowed.
type Renderer interface {
	Render(action string, snap domain.BillSnapshot) (*Artifact, error)
}

// Journal records finalized sales locally.
type Journal interface {
	Save(ctx context.Context, rec *domain.InvoiceRecord) error
}

// EncodeItems serializes snapshot lines for the journal record.
type EncodeItems func(items []domain.CartItem) (string, error)

// Finalizer orchestrates the finalize protocol: commit stock, render the
// artifact, journal the sale, clear the cart. A failed commit preserves
// the cart; a failed render after commit does not roll anything back.
type Finalizer struct {
	cart      *Cart
	committer StockCommitter
	renderer  Renderer
	journal   Journal
	encode    EncodeItems
	bus       EventBus.Bus
	state     int32
}

func NewFinalizer(cart *Cart, committer StockCommitter, renderer Renderer, journal Journal, encode EncodeItems, bus EventBus.Bus) *Finalizer {
	return &Finalizer{
		cart:      cart,
		committer: committer,
		renderer:  renderer,
		journal:   journal,
		encode:    encode,
		bus:       bus,
	}
}

// State reports the current finalize cycle state.
func (f *Finalizer) State() State {
	return State(atomic.LoadInt32(&f.state))
}

// FinalizeResult carries the committed snapshot, its journal record and,
// when rendering succeeded, the artifact.
type FinalizeResult struct {
	Snapshot domain.BillSnapshot
	Record   *domain.InvoiceRecord
	Artifact *Artifact
}

// Finalize runs one commit/render cycle for the given action. Once the
// commit starts it runs to completion or failure; there is no
// cancellation of an in-flight finalize.
func (f *Finalizer) Finalize(ctx context.Context, action string) (*FinalizeResult, error) {
	if action != ActionPrint && action != ActionDownload {
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown finalize action %q", action)}
	}
	if f.cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if !atomic.CompareAndSwapInt32(&f.state, int32(StateIdle), int32(StateCommitting)) {
		return nil, ErrBusy
	}
	defer atomic.StoreInt32(&f.state, int32(StateIdle))

	snap, err := f.cart.Snapshot(nextInvoiceNo())
	if err != nil {
		return nil, err
	}

	items, err := commitItems(snap.Items)
	if err != nil {
		// Logic contract violation, not an operator error. Fail before
		// anything reaches the gateway.
		zap.L().Error("finalize aborted", zap.String("invoice_no", snap.InvoiceNo), zap.Error(err))
		return nil, err
	}

	if err := f.committer.UpdateStock(ctx, items); err != nil {
		metrics.IncrCounter("billing_finalize_rejected", 1)
		zap.L().Warn("stock commit failed, cart preserved",
			zap.String("invoice_no", snap.InvoiceNo),
			zap.Int("lines", len(items)),
			zap.Error(err))
		return nil, &FinalizationError{Err: err}
	}

	atomic.StoreInt32(&f.state, int32(StateRendering))
	artifact, renderErr := f.renderer.Render(action, snap)

	record := f.recordFrom(snap, action)
	if err := f.journal.Save(ctx, record); err != nil {
		// Stock is already committed; losing the journal row must not
		// undo the sale. Log loudly and carry on.
		zap.L().Error("journal write failed for committed sale",
			zap.String("invoice_no", snap.InvoiceNo), zap.Error(err))
	}

	// The sale is recorded either way, so the cart is done. Re-running
	// finalize on the same cart would decrement stock twice.
	f.cart.Clear()
	if f.bus != nil {
		f.bus.Publish(TopicFinalized, snap.InvoiceNo)
	}
	metrics.IncrCounter("billing_finalize_total", 1)

	result := &FinalizeResult{Snapshot: snap, Record: record, Artifact: artifact}
	if renderErr != nil {
		metrics.IncrCounter("billing_render_failed", 1)
		return result, &RenderError{InvoiceNo: snap.InvoiceNo, Err: renderErr}
	}
	zap.L().Info("bill finalized",
		zap.String("invoice_no", snap.InvoiceNo),
		zap.String("action", action),
		zap.Float64("total", snap.Bill.Total))
	return result, nil
}

func (f *Finalizer) recordFrom(snap domain.BillSnapshot, action string) *domain.InvoiceRecord {
	itemsJSON := ""
	if f.encode != nil {
		s, err := f.encode(snap.Items)
		if err != nil {
			zap.L().Error("failed to encode invoice lines", zap.String("invoice_no", snap.InvoiceNo), zap.Error(err))
		} else {
			itemsJSON = s
		}
	}
	return &domain.InvoiceRecord{
		ID:           common.UUIDint64(),
		InvoiceNo:    snap.InvoiceNo,
		CustomerID:   snap.CustomerID,
		CustomerName: snap.CustomerName,
		ItemsJSON:    itemsJSON,
		ItemCount:    len(snap.Items),
		Subtotal:     snap.Bill.Subtotal,
		Discount:     snap.Discount,
		DiscountAmt:  snap.Bill.DiscountAmount,
		Total:        snap.Bill.Total,
		Action:       action,
		CreatedAt:    snap.CreatedAt,
	}
}

// commitItems derives the update-stock payload from the snapshot and
// fails fast on a duplicate product line.
func commitItems(items []domain.CartItem) ([]domain.StockCommitItem, error) {
	seen := make(map[string]struct{}, len(items))
	out := make([]domain.StockCommitItem, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item.ProductID]; dup {
			return nil, ErrDuplicateLine
		}
		seen[item.ProductID] = struct{}{}
		out = append(out, domain.StockCommitItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return out, nil
}

func nextInvoiceNo() string {
	return fmt.Sprintf("INV-%d", common.UUIDint64())
}
