package journal

import (
	"github.com/montanaflynn/stats"
	"github.com/poskit/billingd/internal/domain"
)

// Summary aggregates journal figures for a date range.
type Summary struct {
	Count         int     `json:"count"`
	Gross         float64 `json:"gross"`
	DiscountTotal float64 `json:"discount_total"`
	MeanBill      float64 `json:"mean_bill"`
	MedianBill    float64 `json:"median_bill"`
	LargestBill   float64 `json:"largest_bill"`
}

// Summarize computes sales statistics over a set of records.
func Summarize(records []domain.InvoiceRecord) Summary {
	if len(records) == 0 {
		return Summary{}
	}
	totals := make([]float64, 0, len(records))
	var discountTotal float64
	for _, rec := range records {
		totals = append(totals, rec.Total)
		discountTotal += rec.DiscountAmt
	}
	gross, _ := stats.Sum(totals)
	mean, _ := stats.Mean(totals)
	median, _ := stats.Median(totals)
	max, _ := stats.Max(totals)
	return Summary{
		Count:         len(records),
		Gross:         gross,
		DiscountTotal: discountTotal,
		MeanBill:      mean,
		MedianBill:    median,
		LargestBill:   max,
	}
}
