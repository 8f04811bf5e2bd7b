package catalog

import (
	"testing"
	"time"

	"github.com/poskit/billingd/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededSnapshot() *Snapshot {
	s := NewSnapshot()
	s.Replace(
		[]domain.Product{
			{ID: "p1", Name: "Basmati Rice", Price: 120, Stock: 8},
			{ID: "p2", Name: "Brown Sugar", Price: 60, Stock: 4},
			{ID: "p3", Name: "Green Tea", Price: 200, Stock: 12},
		},
		[]domain.Customer{
			{ID: "c1", Name: "Asha Mehta", Phone: "9000000001", DiscountPercentage: 10},
			{ID: "c2", Name: "Ravi Kumar", Phone: "8111111111", DiscountPercentage: 5},
		},
		time.Now(),
	)
	return s
}

func TestSnapshotLookup(t *testing.T) {
	s := seededSnapshot()

	p, ok := s.ProductByID("p2")
	require.True(t, ok)
	assert.Equal(t, "Brown Sugar", p.Name)

	_, ok = s.ProductByID("ghost")
	assert.False(t, ok)

	c, ok := s.CustomerByID("c1")
	require.True(t, ok)
	assert.Equal(t, 10.0, c.DiscountPercentage)
}

func TestSnapshotSearchProducts(t *testing.T) {
	s := seededSnapshot()

	assert.Len(t, s.SearchProducts(""), 3)
	assert.Len(t, s.SearchProducts("  "), 3)

	hits := s.SearchProducts("riCE")
	require.Len(t, hits, 1)
	assert.Equal(t, "p1", hits[0].ID)

	assert.Empty(t, s.SearchProducts("coffee"))
}

func TestSnapshotSearchCustomers(t *testing.T) {
	s := seededSnapshot()

	hits := s.SearchCustomers("asha")
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ID)

	// phone fragments match too
	hits = s.SearchCustomers("8111")
	require.Len(t, hits, 1)
	assert.Equal(t, "c2", hits[0].ID)
}

func TestSnapshotReplace(t *testing.T) {
	s := seededSnapshot()
	at := time.Now().Add(time.Minute)

	s.Replace([]domain.Product{{ID: "p9", Name: "New", Stock: 1}}, nil, at)

	_, ok := s.ProductByID("p1")
	assert.False(t, ok)
	_, ok = s.ProductByID("p9")
	assert.True(t, ok)
	assert.Equal(t, at, s.FetchedAt())

	products, customers := s.Counts()
	assert.Equal(t, 1, products)
	assert.Equal(t, 0, customers)
}

func TestSnapshotEmpty(t *testing.T) {
	s := NewSnapshot()
	_, ok := s.ProductByID("p1")
	assert.False(t, ok)
	assert.True(t, s.FetchedAt().IsZero())
	assert.Empty(t, s.SearchProducts(""))
}
