package webapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/poskit/billingd/internal/billing"
	"github.com/poskit/billingd/internal/catalog"
	"github.com/poskit/billingd/internal/invoice"
	"github.com/poskit/billingd/internal/journal"
)

// Deps are the collaborators the API handlers work against. They are
// wired once at startup.
type Deps struct {
	Snapshot  *catalog.Snapshot
	Refresher *catalog.Refresher
	Cart      *billing.Cart
	Finalizer *billing.Finalizer
	Journal   journal.Journal
	Renderer  *invoice.Renderer
	Mailer    *invoice.Mailer
}

var deps Deps

// Init stores the dependency set and registers all routes.
func Init(d Deps) {
	deps = d
	registerCatalogRoutes()
	registerBillingRoutes()
	registerInvoiceRoutes()
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, echo.Map{"data": data})
}

func fail(c echo.Context, status int, code, message string, detail interface{}) error {
	body := echo.Map{"code": code, "error": message}
	if detail != nil {
		body["detail"] = detail
	}
	return c.JSON(status, body)
}

func paged(c echo.Context, rows interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, echo.Map{
		"data":     rows,
		"total":    total,
		"page":     page,
		"per_page": pageSize,
	})
}

// parsePagination accepts both perPage (front-end) and pageSize (legacy).
func parsePagination(c echo.Context) (page, pageSize int) {
	page = 1
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	pageSize = 20
	for _, param := range []string{"perPage", "pageSize"} {
		if ps, err := strconv.Atoi(c.QueryParam(param)); err == nil && ps > 0 && ps <= 500 {
			pageSize = ps
			break
		}
	}
	return page, pageSize
}
