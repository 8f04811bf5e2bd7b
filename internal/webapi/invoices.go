package webapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/labstack/echo/v4"
	"github.com/poskit/billingd/internal/journal"
	"github.com/poskit/billingd/internal/webserver"
)

func registerInvoiceRoutes() {
	webserver.ApiGET("/invoices", listInvoices)
	webserver.ApiGET("/invoices/stats", invoiceStats)
	webserver.ApiGET("/invoices/export", exportInvoices)
	webserver.ApiGET("/invoices/:no/print", printInvoice)
	webserver.ApiGET("/invoices/:no/download", downloadInvoice)
	webserver.ApiPOST("/invoices/:no/email", emailInvoice)
}

// parseDateRange reads optional start/end query params in any common
// date format. End is exclusive and bumped by a day when given without
// a time component, so ?end=2026-01-31 includes that whole day.
func parseDateRange(c echo.Context) (from, to time.Time, err error) {
	if s := strings.TrimSpace(c.QueryParam("start")); s != "" {
		from, err = dateparse.ParseAny(s)
		if err != nil {
			return from, to, fmt.Errorf("invalid start date %q", s)
		}
	}
	if s := strings.TrimSpace(c.QueryParam("end")); s != "" {
		to, err = dateparse.ParseAny(s)
		if err != nil {
			return from, to, fmt.Errorf("invalid end date %q", s)
		}
		if to.Hour() == 0 && to.Minute() == 0 && to.Second() == 0 {
			to = to.Add(24 * time.Hour)
		}
	}
	return from, to, nil
}

func listInvoices(c echo.Context) error {
	from, to, err := parseDateRange(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}
	page, pageSize := parsePagination(c)
	records, total, err := deps.Journal.List(c.Request().Context(), journal.ListQuery{
		From: from, To: to, Page: page, PageSize: pageSize,
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query invoices", err.Error())
	}
	return paged(c, records, total, page, pageSize)
}

func invoiceStats(c echo.Context) error {
	from, to, err := parseDateRange(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}
	records, _, err := deps.Journal.List(c.Request().Context(), journal.ListQuery{
		From: from, To: to, Page: 1, PageSize: 500,
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query invoices", err.Error())
	}
	return ok(c, journal.Summarize(records))
}

func exportInvoices(c echo.Context) error {
	from, to, err := parseDateRange(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}
	records, _, err := deps.Journal.List(c.Request().Context(), journal.ListQuery{
		From: from, To: to, Page: 1, PageSize: 500,
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query invoices", err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="invoices.csv"`)
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return journal.WriteCSV(c.Response(), records)
}

func printInvoice(c echo.Context) error {
	rec, err := deps.Journal.GetByNumber(c.Request().Context(), c.Param("no"))
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Invoice not found", nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query invoice", err.Error())
	}
	snap, err := journal.RecordSnapshot(rec)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "RENDER_FAILED", "Stored invoice lines are unreadable", err.Error())
	}
	artifact, err := deps.Renderer.RenderHTML(snap)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "RENDER_FAILED", "Failed to render invoice", err.Error())
	}
	return c.HTMLBlob(http.StatusOK, artifact.Content)
}

func downloadInvoice(c echo.Context) error {
	rec, err := deps.Journal.GetByNumber(c.Request().Context(), c.Param("no"))
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Invoice not found", nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query invoice", err.Error())
	}
	snap, err := journal.RecordSnapshot(rec)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "RENDER_FAILED", "Stored invoice lines are unreadable", err.Error())
	}
	artifact, err := deps.Renderer.RenderXLSX(snap)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "RENDER_FAILED", "Failed to render invoice", err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, artifact.Filename))
	return c.Blob(http.StatusOK, artifact.ContentType, artifact.Content)
}

type emailPayload struct {
	To string `json:"to"`
}

func emailInvoice(c echo.Context) error {
	if deps.Mailer == nil || !deps.Mailer.Enabled() {
		return fail(c, http.StatusBadRequest, "MAIL_DISABLED", "SMTP delivery is not configured", nil)
	}
	var payload emailPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse email request", nil)
	}

	rec, err := deps.Journal.GetByNumber(c.Request().Context(), c.Param("no"))
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Invoice not found", nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query invoice", err.Error())
	}

	to := strings.TrimSpace(payload.To)
	if to == "" && rec.CustomerID != "" {
		if customer, found := deps.Snapshot.CustomerByID(rec.CustomerID); found {
			to = customer.Email
		}
	}
	if to == "" {
		return fail(c, http.StatusBadRequest, "NO_RECIPIENT", "No email address for this invoice", nil)
	}

	snap, err := journal.RecordSnapshot(rec)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "RENDER_FAILED", "Stored invoice lines are unreadable", err.Error())
	}
	artifact, err := deps.Renderer.RenderXLSX(snap)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "RENDER_FAILED", "Failed to render invoice", err.Error())
	}
	if err := deps.Mailer.Send(to, snap, artifact); err != nil {
		return fail(c, http.StatusBadGateway, "MAIL_FAILED", "Failed to send invoice", err.Error())
	}
	return ok(c, echo.Map{"invoice_no": rec.InvoiceNo, "to": to})
}
