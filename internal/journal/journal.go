package journal

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/poskit/billingd/internal/domain"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no journal record matches.
var ErrNotFound = errors.New("journal: invoice record not found")

// ListQuery bounds and pages a journal listing. Zero time bounds are
// open-ended.
type ListQuery struct {
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}

// Journal persists finalized sales. The finalizer writes through this
// interface so the core tests run against a fake.
type Journal interface {
	Save(ctx context.Context, rec *domain.InvoiceRecord) error
	GetByNumber(ctx context.Context, invoiceNo string) (*domain.InvoiceRecord, error)
	List(ctx context.Context, q ListQuery) ([]domain.InvoiceRecord, int64, error)
	Purge(ctx context.Context, olderThan time.Time) (int64, error)
}

// GormJournal stores invoice records in the local database.
type GormJournal struct {
	db *gorm.DB
}

func NewGormJournal(db *gorm.DB) *GormJournal {
	return &GormJournal{db: db}
}

var _ Journal = (*GormJournal)(nil)

func (j *GormJournal) Save(ctx context.Context, rec *domain.InvoiceRecord) error {
	if err := j.db.WithContext(ctx).Create(rec).Error; err != nil {
		return errors.Wrap(err, "journal: save invoice record")
	}
	return nil
}

func (j *GormJournal) GetByNumber(ctx context.Context, invoiceNo string) (*domain.InvoiceRecord, error) {
	var rec domain.InvoiceRecord
	err := j.db.WithContext(ctx).Where("invoice_no = ?", invoiceNo).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "journal: query invoice record")
	}
	return &rec, nil
}

func (j *GormJournal) List(ctx context.Context, q ListQuery) ([]domain.InvoiceRecord, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 500 {
		q.PageSize = 20
	}
	db := j.db.WithContext(ctx).Model(&domain.InvoiceRecord{})
	if !q.From.IsZero() {
		db = db.Where("created_at >= ?", q.From)
	}
	if !q.To.IsZero() {
		db = db.Where("created_at < ?", q.To)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "journal: count invoice records")
	}
	var records []domain.InvoiceRecord
	if err := db.Order("created_at DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&records).Error; err != nil {
		return nil, 0, errors.Wrap(err, "journal: list invoice records")
	}
	return records, total, nil
}

func (j *GormJournal) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	res := j.db.WithContext(ctx).
		Where("created_at < ?", olderThan).
		Delete(&domain.InvoiceRecord{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "journal: purge invoice records")
	}
	return res.RowsAffected, nil
}

// EncodeItems serializes bill lines for storage in a record.
func EncodeItems(items []domain.CartItem) (string, error) {
	data, err := jsoniter.MarshalToString(items)
	if err != nil {
		return "", errors.Wrap(err, "journal: encode items")
	}
	return data, nil
}

// DecodeItems restores the bill lines of a stored record.
func DecodeItems(rec *domain.InvoiceRecord) ([]domain.CartItem, error) {
	var items []domain.CartItem
	if rec.ItemsJSON == "" {
		return items, nil
	}
	if err := jsoniter.UnmarshalFromString(rec.ItemsJSON, &items); err != nil {
		return nil, errors.Wrap(err, "journal: decode items")
	}
	return items, nil
}

// RecordSnapshot rebuilds a bill snapshot from a journal record so the
// invoice artifact can be regenerated after the fact.
func RecordSnapshot(rec *domain.InvoiceRecord) (domain.BillSnapshot, error) {
	items, err := DecodeItems(rec)
	if err != nil {
		return domain.BillSnapshot{}, err
	}
	return domain.BillSnapshot{
		InvoiceNo:    rec.InvoiceNo,
		Items:        items,
		CustomerID:   rec.CustomerID,
		CustomerName: rec.CustomerName,
		Discount:     rec.Discount,
		Bill: domain.Bill{
			Subtotal:       rec.Subtotal,
			DiscountAmount: rec.DiscountAmt,
			Total:          rec.Total,
		},
		CreatedAt: rec.CreatedAt,
	}, nil
}
