package journal

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/poskit/billingd/internal/domain"
)

// WriteCSV streams journal records as a CSV export.
func WriteCSV(w io.Writer, records []domain.InvoiceRecord) error {
	if err := gocsv.Marshal(&records, w); err != nil {
		return errors.Wrap(err, "journal: csv export")
	}
	return nil
}
