package domain

import "time"

// CartItem is one row of the in-progress bill. The cart keeps a single
// row per product; re-adding a product merges quantities.
type CartItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// Bill is derived from the cart and discount on every mutation. It is
// never stored on its own; currency rounding happens only at render time.
type Bill struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discount_amount"`
	Total          float64 `json:"total"`
}

// BillSnapshot is the frozen view of a cart handed to the finalizer.
// Concurrent cart edits after the snapshot is taken must not change
// what gets committed or rendered.
type BillSnapshot struct {
	InvoiceNo     string     `json:"invoice_no"`
	Items         []CartItem `json:"items"`
	CustomerID    string     `json:"customer_id"`
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone"`
	Discount      float64    `json:"discount"`
	Bill          Bill       `json:"bill"`
	CreatedAt     time.Time  `json:"created_at"`
}
