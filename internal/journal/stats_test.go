package journal

import (
	"testing"

	"github.com/poskit/billingd/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	records := []domain.InvoiceRecord{
		{Total: 100, DiscountAmt: 10},
		{Total: 300, DiscountAmt: 0},
		{Total: 200, DiscountAmt: 25},
	}

	s := Summarize(records)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 600.0, s.Gross)
	assert.Equal(t, 35.0, s.DiscountTotal)
	assert.Equal(t, 200.0, s.MeanBill)
	assert.Equal(t, 200.0, s.MedianBill)
	assert.Equal(t, 300.0, s.LargestBill)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, Summary{}, s)
}

func TestRecordSnapshotRebuild(t *testing.T) {
	items := []domain.CartItem{
		{ProductID: "p1", Name: "Rice 5kg", UnitPrice: 100, Quantity: 2},
	}
	encoded, err := EncodeItems(items)
	require.NoError(t, err)

	rec := &domain.InvoiceRecord{
		InvoiceNo:    "INV-42",
		CustomerName: "Asha Mehta",
		ItemsJSON:    encoded,
		Subtotal:     200,
		Discount:     10,
		DiscountAmt:  20,
		Total:        180,
	}
	snap, err := RecordSnapshot(rec)
	require.NoError(t, err)
	assert.Equal(t, "INV-42", snap.InvoiceNo)
	assert.Equal(t, items, snap.Items)
	assert.Equal(t, 180.0, snap.Bill.Total)
	assert.Equal(t, 10.0, snap.Discount)
}

func TestRecordSnapshotEmptyItems(t *testing.T) {
	snap, err := RecordSnapshot(&domain.InvoiceRecord{InvoiceNo: "INV-43"})
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
}

func TestRecordSnapshotBadItems(t *testing.T) {
	_, err := RecordSnapshot(&domain.InvoiceRecord{InvoiceNo: "INV-44", ItemsJSON: "{not json"})
	assert.Error(t, err)
}
