package domain

// Product is a catalog product as served by the external catalog gateway.
// The billing service never mutates products directly; stock changes go
// through the gateway's update-stock endpoint.
type Product struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// Customer is a catalog customer record. DiscountPercentage is applied to
// the bill subtotal when the customer is selected at the register.
type Customer struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Phone              string  `json:"phone"`
	Email              string  `json:"email"`
	DiscountPercentage float64 `json:"discountPercentage"`
}

// StockCommitItem is one line of an update-stock request sent to the
// catalog gateway when a bill is finalized.
type StockCommitItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}
