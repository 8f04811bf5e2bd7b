package domain

import "time"

// InvoiceRecord is a finalized sale persisted in the local sales journal.
// Line items are stored as a JSON blob; the catalog remains the source of
// truth for product data.
type InvoiceRecord struct {
	ID           int64     `gorm:"primaryKey" json:"id,string" csv:"-"`
	InvoiceNo    string    `gorm:"size:64;uniqueIndex" json:"invoice_no" csv:"invoice_no"`
	CustomerID   string    `gorm:"size:64;index" json:"customer_id" csv:"customer_id"`
	CustomerName string    `gorm:"size:200" json:"customer_name" csv:"customer_name"`
	ItemsJSON    string    `gorm:"type:text" json:"items_json" csv:"-"`
	ItemCount    int       `json:"item_count" csv:"item_count"`
	Subtotal     float64   `json:"subtotal" csv:"subtotal"`
	Discount     float64   `json:"discount" csv:"discount"`
	DiscountAmt  float64   `json:"discount_amount" csv:"discount_amount"`
	Total        float64   `json:"total" csv:"total"`
	Action       string    `gorm:"size:16" json:"action" csv:"action"`
	CreatedAt    time.Time `json:"created_at" csv:"created_at"`
}

// TableName Specify table name
func (InvoiceRecord) TableName() string {
	return "invoice_record"
}

// AppSetting is a register-level setting row (store name, currency symbol
// and similar values printed on invoices).
type AppSetting struct {
	ID        int64     `json:"id,string" form:"id"`
	Sort      int       `json:"sort" form:"sort"`
	Category  string    `gorm:"index" json:"category" form:"category"`
	Name      string    `gorm:"index" json:"name" form:"name"`
	Value     string    `json:"value" form:"value"`
	Remark    string    `json:"remark" form:"remark"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (AppSetting) TableName() string {
	return "app_setting"
}

var Tables = []interface{}{
	&InvoiceRecord{},
	&AppSetting{},
}
