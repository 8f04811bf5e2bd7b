package billing

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/poskit/billingd/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCommitter struct {
	err   error
	calls int
	items []domain.StockCommitItem
}

func (m *mockCommitter) UpdateStock(ctx context.Context, items []domain.StockCommitItem) error {
	m.calls++
	m.items = items
	return m.err
}

type mockRenderer struct {
	err   error
	calls int
}

func (m *mockRenderer) Render(action string, snap domain.BillSnapshot) (*Artifact, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &Artifact{ContentType: "text/html", Filename: snap.InvoiceNo + ".html", Content: []byte("<html>")}, nil
}

type mockJournal struct {
	err     error
	records []*domain.InvoiceRecord
}

func (m *mockJournal) Save(ctx context.Context, rec *domain.InvoiceRecord) error {
	m.records = append(m.records, rec)
	return m.err
}

func encodeNoop(items []domain.CartItem) (string, error) {
	return "[]", nil
}

func newTestFinalizer(t *testing.T) (*Finalizer, *Cart, *mockCommitter, *mockRenderer, *mockJournal) {
	t.Helper()
	cart := NewCart(testSnapshot(), nil)
	committer := &mockCommitter{}
	renderer := &mockRenderer{}
	journal := &mockJournal{}
	f := NewFinalizer(cart, committer, renderer, journal, encodeNoop, nil)
	return f, cart, committer, renderer, journal
}

func TestFinalizeSuccess(t *testing.T) {
	f, cart, committer, renderer, journal := newTestFinalizer(t)
	require.NoError(t, cart.AddItem("p1", 2))
	require.NoError(t, cart.AddItem("p2", 1))
	require.NoError(t, cart.SetCustomer("c1"))

	result, err := f.Finalize(context.Background(), ActionPrint)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotNil(t, result.Artifact)
	assert.Contains(t, result.Snapshot.InvoiceNo, "INV-")
	assert.Equal(t, 225.0, result.Snapshot.Bill.Total)

	// commit payload carries one line per product
	require.Len(t, committer.items, 2)
	assert.Equal(t, domain.StockCommitItem{ProductID: "p1", Quantity: 2}, committer.items[0])
	assert.Equal(t, domain.StockCommitItem{ProductID: "p2", Quantity: 1}, committer.items[1])
	assert.Equal(t, 1, renderer.calls)

	// journaled with the snapshot's figures
	require.Len(t, journal.records, 1)
	assert.Equal(t, result.Snapshot.InvoiceNo, journal.records[0].InvoiceNo)
	assert.Equal(t, 225.0, journal.records[0].Total)
	assert.Equal(t, ActionPrint, journal.records[0].Action)

	// cart and discount reset for the next sale
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, 0.0, cart.Discount())
	assert.Equal(t, StateIdle, f.State())
}

func TestFinalizeEmptyCart(t *testing.T) {
	f, _, committer, renderer, journal := newTestFinalizer(t)

	_, err := f.Finalize(context.Background(), ActionPrint)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, committer.calls)
	assert.Zero(t, renderer.calls)
	assert.Empty(t, journal.records)
}

func TestFinalizeUnknownAction(t *testing.T) {
	f, cart, committer, _, _ := newTestFinalizer(t)
	require.NoError(t, cart.AddItem("p1", 1))

	var vErr *ValidationError
	_, err := f.Finalize(context.Background(), "fax")
	assert.ErrorAs(t, err, &vErr)
	assert.Zero(t, committer.calls)
}

func TestFinalizeCommitFailurePreservesCart(t *testing.T) {
	f, cart, committer, renderer, journal := newTestFinalizer(t)
	committer.err = errors.New("stock conflict for Rice 5kg")
	require.NoError(t, cart.AddItem("p1", 2))
	require.NoError(t, cart.SetCustomer("c1"))

	result, err := f.Finalize(context.Background(), ActionDownload)
	assert.Nil(t, result)

	var finErr *FinalizationError
	require.ErrorAs(t, err, &finErr)
	assert.ErrorIs(t, err, committer.err)

	// cart untouched, nothing rendered or journaled, ready for retry
	assert.Len(t, cart.Items(), 1)
	assert.Equal(t, 10.0, cart.Discount())
	assert.Zero(t, renderer.calls)
	assert.Empty(t, journal.records)
	assert.Equal(t, StateIdle, f.State())
}

func TestFinalizeRenderFailureAfterCommit(t *testing.T) {
	f, cart, committer, renderer, journal := newTestFinalizer(t)
	renderer.err = errors.New("template exploded")
	require.NoError(t, cart.AddItem("p2", 3))

	result, err := f.Finalize(context.Background(), ActionPrint)

	var renderFail *RenderError
	require.ErrorAs(t, err, &renderFail)
	assert.ErrorIs(t, err, renderer.err)

	// stock is committed and the sale is journaled despite the failure
	assert.Equal(t, 1, committer.calls)
	require.NotNil(t, result)
	assert.Nil(t, result.Artifact)
	assert.Equal(t, renderFail.InvoiceNo, result.Snapshot.InvoiceNo)
	require.Len(t, journal.records, 1)

	// re-running finalize must not double-decrement stock
	assert.True(t, cart.IsEmpty())
}

func TestFinalizeJournalFailureDoesNotUndoSale(t *testing.T) {
	f, cart, committer, _, journal := newTestFinalizer(t)
	journal.err = errors.New("disk full")
	require.NoError(t, cart.AddItem("p1", 1))

	result, err := f.Finalize(context.Background(), ActionPrint)
	require.NoError(t, err)
	assert.NotNil(t, result.Artifact)
	assert.Equal(t, 1, committer.calls)
	assert.True(t, cart.IsEmpty())
}

func TestFinalizeBusyGuard(t *testing.T) {
	f, cart, _, _, _ := newTestFinalizer(t)
	require.NoError(t, cart.AddItem("p1", 1))

	atomic.StoreInt32(&f.state, int32(StateCommitting))
	_, err := f.Finalize(context.Background(), ActionPrint)
	assert.ErrorIs(t, err, ErrBusy)

	atomic.StoreInt32(&f.state, int32(StateIdle))
	_, err = f.Finalize(context.Background(), ActionPrint)
	assert.NoError(t, err)
}

func TestCommitItemsDuplicateLine(t *testing.T) {
	items := []domain.CartItem{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "p1", Quantity: 2},
	}
	_, err := commitItems(items)
	assert.ErrorIs(t, err, ErrDuplicateLine)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "committing", StateCommitting.String())
	assert.Equal(t, "rendering", StateRendering.String())
}
