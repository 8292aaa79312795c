// Package storefront exposes the shop over HTTP as JSON view models.
package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/payments"
	"github.com/joao-fontenele/storefront/internal/shop"
	"github.com/joao-fontenele/storefront/internal/users"
)

// ConfirmHeader must be "true" on destructive requests. Without it the
// handler answers 428 with the prompt the client should show.
const ConfirmHeader = "X-Confirm"

const readinessTimeout = 2 * time.Second

// HealthChecker reports whether a dependency answers.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type Handler struct {
	shop   *shop.Shop
	health HealthChecker
	logger *slog.Logger
}

// NewHandler builds the HTTP handlers. health may be nil, in which case
// readiness only reflects this process.
func NewHandler(s *shop.Shop, health HealthChecker, logger *slog.Logger) *Handler {
	return &Handler{
		shop:   s,
		health: health,
		logger: logger,
	}
}

func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products := h.shop.Products(shop.ProductFilter{
		Search:   q.Get("q"),
		Category: q.Get("category"),
	})

	inCart := make(map[int]int)
	for _, line := range h.shop.Cart().Lines {
		inCart[line.ProductID] = line.Quantity
	}

	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, newProductView(p, inCart[p.ID]))
	}

	h.writeJSON(w, http.StatusOK, productListView{
		Products:   views,
		Categories: h.shop.Categories(),
	})
}

func (h *Handler) HandleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req catalog.NewProduct
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.shop.AddProduct(r.Context(), req)
	if err != nil {
		h.writeShopError(w, err)
		return
	}

	h.logger.Info("product created", "product_id", p.ID)
	h.writeJSON(w, http.StatusCreated, newProductView(p, 0))
}

func (h *Handler) HandleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	confirm := newHeaderConfirmer(r)
	deleted, err := h.shop.DeleteProduct(r.Context(), id, confirm)
	if err != nil {
		h.writeShopError(w, err)
		return
	}
	if !deleted {
		h.writeConfirmationRequired(w, confirm.prompt)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleGetCart(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, newCartView(h.shop.Cart()))
}

type addItemRequest struct {
	ProductID int `json:"productId"`
}

func (h *Handler) HandleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := h.shop.AddToCart(r.Context(), req.ProductID)
	if err != nil {
		h.writeShopError(w, err)
		return
	}

	status := http.StatusOK
	if outcome == cart.OutcomeAdded {
		status = http.StatusCreated
	}
	h.writeJSON(w, status, newCartView(h.shop.Cart()))
}

type changeQuantityRequest struct {
	Delta int `json:"delta"`
}

func (h *Handler) HandleChangeQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "productId")
	if !ok {
		return
	}

	var req changeQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Delta == 0 {
		h.writeError(w, http.StatusBadRequest, "delta must not be zero")
		return
	}

	if _, err := h.shop.ChangeQuantity(r.Context(), id, req.Delta); err != nil {
		h.writeShopError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newCartView(h.shop.Cart()))
}

func (h *Handler) HandleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "productId")
	if !ok {
		return
	}

	if err := h.shop.RemoveFromCart(r.Context(), id); err != nil {
		h.writeShopError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newCartView(h.shop.Cart()))
}

func (h *Handler) HandleClearCart(w http.ResponseWriter, r *http.Request) {
	confirm := newHeaderConfirmer(r)
	cleared, err := h.shop.ClearCart(r.Context(), confirm)
	if err != nil {
		h.writeShopError(w, err)
		return
	}
	if !cleared && confirm.prompted {
		h.writeConfirmationRequired(w, confirm.prompt)
		return
	}

	h.writeJSON(w, http.StatusOK, newCartView(h.shop.Cart()))
}

func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.usersView())
}

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.shop.CreateUser(r.Context(), req.Name, req.Email)
	if err != nil {
		h.writeShopError(w, err)
		return
	}

	h.logger.Info("user created", "user_id", u.ID)
	h.writeJSON(w, http.StatusCreated, u)
}

type selectUserRequest struct {
	ID int `json:"id"`
}

func (h *Handler) HandleSelectUser(w http.ResponseWriter, r *http.Request) {
	var req selectUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := h.shop.SelectUser(r.Context(), req.ID); err != nil {
		h.writeShopError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.usersView())
}

func (h *Handler) HandlePrepareCheckout(w http.ResponseWriter, r *http.Request) {
	draft, err := h.shop.PrepareCheckout(r.Context())
	if err != nil {
		h.writeShopError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, checkoutView{Draft: draft, Methods: paymentMethods()})
}

type checkoutRequest struct {
	Method domain.PaymentMethod `json:"method"`
}

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	receipt, err := h.shop.Checkout(r.Context(), req.Method)
	if err != nil {
		h.writeShopError(w, err)
		return
	}

	h.logger.Info("checkout completed", "order_id", receipt.OrderID, "invoice_number", receipt.InvoiceNumber)
	h.writeJSON(w, http.StatusCreated, receipt)
}

func (h *Handler) HandleListPayments(w http.ResponseWriter, r *http.Request) {
	list, err := h.shop.Payments(r.Context())
	if err != nil {
		h.writeShopError(w, err)
		return
	}

	views := make([]paymentView, 0, len(list))
	for _, p := range list {
		views = append(views, paymentView{Payment: p, MethodLabel: p.Method.Label()})
	}
	h.writeJSON(w, http.StatusOK, views)
}

func (h *Handler) HandleListInvoices(w http.ResponseWriter, r *http.Request) {
	list, err := h.shop.Invoices(r.Context())
	if err != nil {
		h.writeShopError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

func (h *Handler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.shop.Notifications())
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleReady answers 503 while the payments service is unreachable.
func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := h.health.Health(ctx); err != nil {
			h.logger.Warn("payments service not ready", "error", err)
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "unavailable",
				"payments": err.Error(),
			})
			return
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) usersView() usersView {
	v := usersView{Users: h.shop.Users()}
	if u, ok := h.shop.CurrentUser(); ok {
		v.Current = &u
	}
	return v
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

type headerConfirmer struct {
	confirmed bool
	prompted  bool
	prompt    shop.Prompt
}

func newHeaderConfirmer(r *http.Request) *headerConfirmer {
	return &headerConfirmer{confirmed: strings.EqualFold(r.Header.Get(ConfirmHeader), "true")}
}

func (c *headerConfirmer) Confirm(p shop.Prompt) bool {
	c.prompted = true
	c.prompt = p
	return c.confirmed
}

func (h *Handler) writeConfirmationRequired(w http.ResponseWriter, p shop.Prompt) {
	h.writeJSON(w, http.StatusPreconditionRequired, p)
}

func (h *Handler) writeShopError(w http.ResponseWriter, err error) {
	var rejected *payments.ServerRejectedError
	switch {
	case errors.As(err, &rejected):
		h.writeError(w, http.StatusPaymentRequired, rejected.Message)
	case errors.Is(err, payments.ErrConnectivity):
		h.writeError(w, http.StatusBadGateway, payments.ErrConnectivity.Error())
	case errors.Is(err, cart.ErrStockExceeded), errors.Is(err, cart.ErrUnavailable):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, shop.ErrCheckoutInProgress):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, cart.ErrNotInCart),
		errors.Is(err, shop.ErrProductNotFound),
		errors.Is(err, shop.ErrUserNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, catalog.ErrInvalidProduct),
		errors.Is(err, users.ErrInvalidUser),
		errors.Is(err, shop.ErrInvalidMethod):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shop.ErrMissingSelection):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
