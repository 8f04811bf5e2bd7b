package catalog

import (
	"strings"
	"sync"
	"time"

	"github.com/poskit/billingd/internal/domain"
)

// Snapshot is the most recently fetched, possibly stale, copy of catalog
// data. The cart validates against it optimistically; the authoritative
// stock check happens again when the finalizer commits.
type Snapshot struct {
	mu          sync.RWMutex
	products    []domain.Product
	customers   []domain.Customer
	productIdx  map[string]int
	customerIdx map[string]int
	fetchedAt   time.Time
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		productIdx:  map[string]int{},
		customerIdx: map[string]int{},
	}
}

// Replace swaps in a freshly fetched catalog atomically.
func (s *Snapshot) Replace(products []domain.Product, customers []domain.Customer, at time.Time) {
	productIdx := make(map[string]int, len(products))
	for i, p := range products {
		productIdx[p.ID] = i
	}
	customerIdx := make(map[string]int, len(customers))
	for i, c := range customers {
		customerIdx[c.ID] = i
	}

	s.mu.Lock()
	s.products = products
	s.customers = customers
	s.productIdx = productIdx
	s.customerIdx = customerIdx
	s.fetchedAt = at
	s.mu.Unlock()
}

func (s *Snapshot) ProductByID(id string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.productIdx[id]
	if !ok {
		return domain.Product{}, false
	}
	return s.products[i], true
}

func (s *Snapshot) CustomerByID(id string) (domain.Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.customerIdx[id]
	if !ok {
		return domain.Customer{}, false
	}
	return s.customers[i], true
}

// SearchProducts filters by case-insensitive substring over the product
// name. An empty query returns the full list.
func (s *Snapshot) SearchProducts(query string) []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if q == "" || strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	return out
}

// SearchCustomers filters by case-insensitive substring over name and
// phone, matching how the register search box behaves.
func (s *Snapshot) SearchCustomers(query string) []domain.Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		if q == "" || strings.Contains(strings.ToLower(c.Name+" "+c.Phone), q) {
			out = append(out, c)
		}
	}
	return out
}

// FetchedAt reports when the snapshot was last replaced; zero means no
// successful fetch yet.
func (s *Snapshot) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}

// Counts returns the product and customer totals, mostly for gauges.
func (s *Snapshot) Counts() (products, customers int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products), len(s.customers)
}
