package webapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/poskit/billingd/internal/webserver"
)

func registerCatalogRoutes() {
	webserver.ApiGET("/catalog/products", listProducts)
	webserver.ApiGET("/catalog/customers", listCustomers)
	webserver.ApiPOST("/catalog/refresh", refreshCatalog)
}

// listProducts serves the register's product picker from the snapshot.
// Data may be stale relative to the gateway; fetched_at tells how stale.
func listProducts(c echo.Context) error {
	products := deps.Snapshot.SearchProducts(c.QueryParam("q"))
	return c.JSON(http.StatusOK, echo.Map{
		"data":       products,
		"fetched_at": deps.Snapshot.FetchedAt(),
	})
}

func listCustomers(c echo.Context) error {
	customers := deps.Snapshot.SearchCustomers(c.QueryParam("q"))
	return c.JSON(http.StatusOK, echo.Map{
		"data":       customers,
		"fetched_at": deps.Snapshot.FetchedAt(),
	})
}

func refreshCatalog(c echo.Context) error {
	if err := deps.Refresher.Refresh(c.Request().Context()); err != nil {
		return fail(c, http.StatusBadGateway, "CATALOG_UNAVAILABLE",
			"Catalog refresh failed, serving last known snapshot", err.Error())
	}
	products, customers := deps.Snapshot.Counts()
	return ok(c, echo.Map{
		"products":   products,
		"customers":  customers,
		"fetched_at": deps.Snapshot.FetchedAt(),
	})
}
