package webapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/poskit/billingd/internal/billing"
	"github.com/poskit/billingd/internal/webserver"
	"go.uber.org/zap"
)

func registerBillingRoutes() {
	webserver.ApiGET("/billing/cart", getCart)
	webserver.ApiPOST("/billing/cart/items", addCartItem)
	webserver.ApiDELETE("/billing/cart/items/:productId", removeCartItem)
	webserver.ApiPOST("/billing/customer", selectCustomer)
	webserver.ApiPOST("/billing/clear", clearCart)
	webserver.ApiPOST("/billing/finalize", finalizeBill)
}

type cartView struct {
	Items        interface{} `json:"items"`
	CustomerID   string      `json:"customer_id"`
	CustomerName string      `json:"customer_name"`
	Discount     float64     `json:"discount"`
	Bill         interface{} `json:"bill"`
	State        string      `json:"state"`
	SnapshotAt   time.Time   `json:"snapshot_fetched_at"`
}

func getCart(c echo.Context) error {
	id, name := deps.Cart.Customer()
	return ok(c, cartView{
		Items:        deps.Cart.Items(),
		CustomerID:   id,
		CustomerName: name,
		Discount:     deps.Cart.Discount(),
		Bill:         deps.Cart.Bill(),
		State:        deps.Finalizer.State().String(),
		SnapshotAt:   deps.Snapshot.FetchedAt(),
	})
}

type addItemPayload struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func addCartItem(c echo.Context) error {
	var payload addItemPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse cart item", nil)
	}
	if payload.ProductID == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Please select a product", nil)
	}
	if err := deps.Cart.AddItem(payload.ProductID, payload.Quantity); err != nil {
		return failBilling(c, err)
	}
	return getCart(c)
}

func removeCartItem(c echo.Context) error {
	deps.Cart.RemoveItem(c.Param("productId"))
	return getCart(c)
}

type selectCustomerPayload struct {
	CustomerID string `json:"customerId"`
}

func selectCustomer(c echo.Context) error {
	var payload selectCustomerPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse customer selection", nil)
	}
	if err := deps.Cart.SetCustomer(payload.CustomerID); err != nil {
		return failBilling(c, err)
	}
	return getCart(c)
}

func clearCart(c echo.Context) error {
	deps.Cart.Clear()
	return getCart(c)
}

type finalizePayload struct {
	Action string `json:"action"`
}

func finalizeBill(c echo.Context) error {
	var payload finalizePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse finalize request", nil)
	}
	if payload.Action == "" {
		payload.Action = billing.ActionPrint
	}

	result, err := deps.Finalizer.Finalize(c.Request().Context(), payload.Action)
	if err != nil {
		var renderErr *billing.RenderError
		if errors.As(err, &renderErr) {
			// Stock is committed and the sale journaled; only the
			// artifact failed. The operator regenerates it from the
			// invoice endpoints instead of re-finalizing.
			return fail(c, http.StatusInternalServerError, "RENDER_FAILED",
				"Sale recorded but invoice generation failed, regenerate the artifact", echo.Map{
					"invoice_no": renderErr.InvoiceNo,
				})
		}
		return failBilling(c, err)
	}

	snap := result.Snapshot
	return ok(c, echo.Map{
		"invoice_no":   snap.InvoiceNo,
		"action":       payload.Action,
		"bill":         snap.Bill,
		"item_count":   len(snap.Items),
		"print_url":    fmt.Sprintf("/api/invoices/%s/print", snap.InvoiceNo),
		"download_url": fmt.Sprintf("/api/invoices/%s/download", snap.InvoiceNo),
	})
}

// failBilling maps core billing errors onto the response envelope.
func failBilling(c echo.Context, err error) error {
	var (
		validationErr *billing.ValidationError
		notFoundErr   *billing.NotFoundError
		stockErr      *billing.StockError
		finalizeErr   *billing.FinalizationError
	)
	switch {
	case errors.Is(err, billing.ErrEmptyCart):
		return fail(c, http.StatusBadRequest, "EMPTY_CART", "Cart is empty", nil)
	case errors.Is(err, billing.ErrBusy):
		return fail(c, http.StatusConflict, "BUSY", "A finalize is already in progress", nil)
	case errors.Is(err, billing.ErrDuplicateLine):
		return fail(c, http.StatusInternalServerError, "INVALID_CART", "Cart produced duplicate commit lines", nil)
	case errors.As(err, &validationErr):
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", validationErr.Reason, nil)
	case errors.As(err, &notFoundErr):
		// The referenced row vanished from the snapshot; kick off a
		// refresh so the operator sees current data on retry.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = deps.Refresher.Refresh(ctx)
		}()
		return fail(c, http.StatusNotFound, "NOT_FOUND", notFoundErr.Error(), nil)
	case errors.As(err, &stockErr):
		return fail(c, http.StatusConflict, "INSUFFICIENT_STOCK", stockErr.Error(), echo.Map{
			"product_id": stockErr.ProductID,
			"stock":      stockErr.Stock,
			"in_cart":    stockErr.InCart,
			"requested":  stockErr.Requested,
			"available":  stockErr.Available(),
		})
	case errors.As(err, &finalizeErr):
		return fail(c, http.StatusBadGateway, "FINALIZE_FAILED", finalizeErr.Error(), nil)
	default:
		zap.L().Error("unexpected billing error", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "INTERNAL", "Unexpected error", nil)
	}
}
