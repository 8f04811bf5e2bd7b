package billing

import (
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/poskit/billingd/internal/domain"
)

// TopicCartChanged is published on every successful cart or discount
// mutation. Subscribers recompute anything derived from the bill; this is
// the explicit replacement for implicit UI re-render triggers.
const TopicCartChanged = "billing.cart.changed"

// SnapshotReader is the catalog view the cart validates against. Stock
// figures may be stale relative to the gateway; the authoritative check
// happens again at commit time.
type SnapshotReader interface {
	ProductByID(id string) (domain.Product, bool)
	CustomerByID(id string) (domain.Customer, bool)
}

// Cart holds the operator's in-progress bill: ordered line items, unique
// per product, plus the discount sourced from the selected customer.
// One logical register drives a cart, but handlers run on server
// goroutines, so mutations are serialized with a mutex.
type Cart struct {
	mu            sync.Mutex
	snap          SnapshotReader
	bus           EventBus.Bus
	items         []domain.CartItem
	customerID    string
	customerName  string
	customerPhone string
	discount      float64
}

func NewCart(snap SnapshotReader, bus EventBus.Bus) *Cart {
	return &Cart{snap: snap, bus: bus}
}

// AddItem validates quantity against the current snapshot stock and
// merges into an existing row or appends a new one. The stock check is
// point-in-time: existing quantity in cart plus the request must not
// exceed the product's snapshot stock.
func (c *Cart) AddItem(productID string, quantity int) error {
	if quantity < 1 {
		return &ValidationError{Reason: "quantity must be at least 1"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	product, found := c.snap.ProductByID(productID)
	if !found {
		return &NotFoundError{Kind: "product", ID: productID}
	}

	inCart := 0
	idx := -1
	for i, item := range c.items {
		if item.ProductID == productID {
			inCart = item.Quantity
			idx = i
			break
		}
	}

	if inCart+quantity > product.Stock {
		return &StockError{
			ProductID:   productID,
			ProductName: product.Name,
			Requested:   quantity,
			InCart:      inCart,
			Stock:       product.Stock,
		}
	}

	if idx >= 0 {
		c.items[idx].Quantity += quantity
	} else {
		c.items = append(c.items, domain.CartItem{
			ProductID: productID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  quantity,
		})
	}
	c.publishChanged()
	return nil
}

// RemoveItem deletes the row for productID. Removing an absent id is a
// no-op, not an error.
func (c *Cart) RemoveItem(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, item := range c.items {
		if item.ProductID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			c.publishChanged()
			return
		}
	}
}

// SetCustomer attaches the customer's discount to the cart. An empty id
// selects the guest customer and resets the discount to zero; cart items
// are kept either way.
func (c *Cart) SetCustomer(customerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if customerID == "" {
		c.customerID = ""
		c.customerName = ""
		c.customerPhone = ""
		c.discount = 0
		c.publishChanged()
		return nil
	}

	customer, found := c.snap.CustomerByID(customerID)
	if !found {
		return &NotFoundError{Kind: "customer", ID: customerID}
	}
	c.customerID = customer.ID
	c.customerName = customer.Name
	c.customerPhone = customer.Phone
	c.discount = clampDiscount(customer.DiscountPercentage)
	c.publishChanged()
	return nil
}

// Clear empties the cart and resets discount and customer selection.
// Used after a successful finalize and on explicit cancel.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.customerID = ""
	c.customerName = ""
	c.customerPhone = ""
	c.discount = 0
	c.publishChanged()
}

// Items returns a copy of the cart rows in insertion order.
func (c *Cart) Items() []domain.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyItems()
}

func (c *Cart) Discount() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.discount
}

// Customer returns the selected customer id and name, empty for guest.
func (c *Cart) Customer() (id, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.customerID, c.customerName
}

func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) == 0
}

// Bill recomputes the derived totals from the current items and discount.
func (c *Cart) Bill() domain.Bill {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Calculate(c.items, c.discount)
}

// Snapshot freezes the cart into a bill snapshot for the finalizer. The
// copy is taken under the lock, so concurrent edits after this call do
// not alter what gets committed or rendered.
func (c *Cart) Snapshot(invoiceNo string) (domain.BillSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return domain.BillSnapshot{}, ErrEmptyCart
	}
	items := c.copyItems()
	name := c.customerName
	if name == "" {
		name = "Guest Customer"
	}
	return domain.BillSnapshot{
		InvoiceNo:     invoiceNo,
		Items:         items,
		CustomerID:    c.customerID,
		CustomerName:  name,
		CustomerPhone: c.customerPhone,
		Discount:      c.discount,
		Bill:          Calculate(items, c.discount),
		CreatedAt:     time.Now(),
	}, nil
}

func (c *Cart) copyItems() []domain.CartItem {
	items := make([]domain.CartItem, len(c.items))
	copy(items, c.items)
	return items
}

// publishChanged is called with the lock held; subscribers must not call
// back into the cart synchronously.
func (c *Cart) publishChanged() {
	if c.bus != nil {
		c.bus.Publish(TopicCartChanged, Calculate(c.items, c.discount))
	}
}
