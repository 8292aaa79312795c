package storefront

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/payments"
	"github.com/joao-fontenele/storefront/internal/shop"
	"github.com/joao-fontenele/storefront/internal/storage"
)

func newTestHandler(t *testing.T, paymentsURL string) *Handler {
	t.Helper()
	if paymentsURL == "" {
		paymentsURL = "http://localhost:99999"
	}
	client := payments.NewClient(paymentsURL, &http.Client{})
	s, err := shop.Open(context.Background(), shop.Deps{
		Store:    storage.NewMemoryStore(),
		Payments: client,
	})
	if err != nil {
		t.Fatalf("open shop: %v", err)
	}
	return NewHandler(s, client, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid response body %q: %v", rec.Body.String(), err)
	}
	return v
}

func addToCart(t *testing.T, h *Handler, productID int) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(`{"productId":`+itoa(productID)+`}`))
	rec := httptest.NewRecorder()
	h.HandleAddCartItem(rec, req)
	if rec.Code != http.StatusCreated && rec.Code != http.StatusOK {
		t.Fatalf("add to cart: status %d: %s", rec.Code, rec.Body.String())
	}
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestHandler_HandleListProducts(t *testing.T) {
	t.Run("lists the seeded catalog", func(t *testing.T) {
		h := newTestHandler(t, "")
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		rec := httptest.NewRecorder()

		h.HandleListProducts(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if rec.Header().Get("Content-Type") != "application/json" {
			t.Errorf("expected application/json, got %s", rec.Header().Get("Content-Type"))
		}
		body := decode[productListView](t, rec)
		if len(body.Products) != 15 {
			t.Errorf("expected 15 products, got %d", len(body.Products))
		}
		if len(body.Categories) != 5 {
			t.Errorf("expected 5 categories, got %v", body.Categories)
		}
		// Trek Mountain Bike has 4 units.
		if body.Products[10].StockLevel != domain.StockLevelLow {
			t.Errorf("expected low stock level, got %s", body.Products[10].StockLevel)
		}
	})

	t.Run("filters by search and category", func(t *testing.T) {
		h := newTestHandler(t, "")
		req := httptest.NewRequest(http.MethodGet, "/products?q=NIKE&category=Sports", nil)
		rec := httptest.NewRecorder()

		h.HandleListProducts(rec, req)

		body := decode[productListView](t, rec)
		if len(body.Products) != 1 || body.Products[0].Name != "Nike Football" {
			t.Errorf("unexpected products: %+v", body.Products)
		}
	})

	t.Run("reports quantities in cart", func(t *testing.T) {
		h := newTestHandler(t, "")
		addToCart(t, h, 1)
		addToCart(t, h, 1)

		rec := httptest.NewRecorder()
		h.HandleListProducts(rec, httptest.NewRequest(http.MethodGet, "/products", nil))

		body := decode[productListView](t, rec)
		if body.Products[0].InCart != 2 {
			t.Errorf("expected 2 in cart, got %d", body.Products[0].InCart)
		}
	})
}

func TestHandler_HandleCreateProduct(t *testing.T) {
	t.Run("creates a product", func(t *testing.T) {
		h := newTestHandler(t, "")
		req := httptest.NewRequest(http.MethodPost, "/products",
			strings.NewReader(`{"name":"Desk Lamp","category":"Home","price":"25.50","stock":3,"description":"LED"}`))
		rec := httptest.NewRecorder()

		h.HandleCreateProduct(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}
		body := decode[productView](t, rec)
		if body.ID != 16 {
			t.Errorf("expected id 16, got %d", body.ID)
		}
		if body.StockLevel != domain.StockLevelLow {
			t.Errorf("expected low stock level, got %s", body.StockLevel)
		}
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		h := newTestHandler(t, "")
		req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"name":"","price":"1","stock":1}`))
		rec := httptest.NewRecorder()

		h.HandleCreateProduct(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		h := newTestHandler(t, "")
		rec := httptest.NewRecorder()

		h.HandleCreateProduct(rec, httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{`)))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
		if body := decode[map[string]string](t, rec); body["error"] != "invalid request body" {
			t.Errorf("unexpected error body: %v", body)
		}
	})
}

func TestHandler_HandleDeleteProduct(t *testing.T) {
	t.Run("asks for confirmation", func(t *testing.T) {
		h := newTestHandler(t, "")
		req := httptest.NewRequest(http.MethodDelete, "/products/2", nil)
		req.SetPathValue("id", "2")
		rec := httptest.NewRecorder()

		h.HandleDeleteProduct(rec, req)

		if rec.Code != http.StatusPreconditionRequired {
			t.Fatalf("expected status 428, got %d", rec.Code)
		}
		body := decode[shop.Prompt](t, rec)
		if body != shop.DeleteProductPrompt {
			t.Errorf("unexpected prompt: %+v", body)
		}
		if _, ok := h.shop.Product(2); !ok {
			t.Error("product should not be deleted without confirmation")
		}
	})

	t.Run("deletes when confirmed and drops the cart line", func(t *testing.T) {
		h := newTestHandler(t, "")
		addToCart(t, h, 2)

		req := httptest.NewRequest(http.MethodDelete, "/products/2", nil)
		req.SetPathValue("id", "2")
		req.Header.Set(ConfirmHeader, "true")
		rec := httptest.NewRecorder()

		h.HandleDeleteProduct(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d", rec.Code)
		}
		if len(h.shop.Cart().Lines) != 0 {
			t.Error("expected cart line to be removed")
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		h := newTestHandler(t, "")
		req := httptest.NewRequest(http.MethodDelete, "/products/99", nil)
		req.SetPathValue("id", "99")
		req.Header.Set(ConfirmHeader, "true")
		rec := httptest.NewRecorder()

		h.HandleDeleteProduct(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		h := newTestHandler(t, "")
		req := httptest.NewRequest(http.MethodDelete, "/products/abc", nil)
		req.SetPathValue("id", "abc")
		rec := httptest.NewRecorder()

		h.HandleDeleteProduct(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestHandler_Cart(t *testing.T) {
	t.Run("add returns the updated cart", func(t *testing.T) {
		h := newTestHandler(t, "")
		req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(`{"productId":13}`))
		rec := httptest.NewRecorder()

		h.HandleAddCartItem(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d", rec.Code)
		}
		body := decode[cartView](t, rec)
		if body.Count != 1 || len(body.Items) != 1 {
			t.Fatalf("unexpected cart: %+v", body)
		}
		if body.Items[0].LineTotal.String() != "19.99" {
			t.Errorf("unexpected line total: %s", body.Items[0].LineTotal)
		}
	})

	t.Run("stock exceeded is a conflict", func(t *testing.T) {
		h := newTestHandler(t, "")
		for i := 0; i < 4; i++ {
			addToCart(t, h, 11)
		}

		req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(`{"productId":11}`))
		rec := httptest.NewRecorder()
		h.HandleAddCartItem(rec, req)

		if rec.Code != http.StatusConflict {
			t.Errorf("expected status 409, got %d", rec.Code)
		}
		if body := decode[map[string]string](t, rec); body["error"] != "insufficient stock" {
			t.Errorf("unexpected error: %v", body)
		}
	})

	t.Run("change quantity and remove", func(t *testing.T) {
		h := newTestHandler(t, "")
		addToCart(t, h, 4)

		req := httptest.NewRequest(http.MethodPatch, "/cart/items/4", strings.NewReader(`{"delta":2}`))
		req.SetPathValue("productId", "4")
		rec := httptest.NewRecorder()
		h.HandleChangeQuantity(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if body := decode[cartView](t, rec); body.Count != 3 {
			t.Errorf("expected 3 units, got %d", body.Count)
		}

		req = httptest.NewRequest(http.MethodDelete, "/cart/items/4", nil)
		req.SetPathValue("productId", "4")
		rec = httptest.NewRecorder()
		h.HandleRemoveCartItem(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if body := decode[cartView](t, rec); len(body.Items) != 0 {
			t.Errorf("expected empty cart, got %+v", body.Items)
		}

		rec = httptest.NewRecorder()
		h.HandleRemoveCartItem(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("clear needs confirmation", func(t *testing.T) {
		h := newTestHandler(t, "")
		addToCart(t, h, 1)

		rec := httptest.NewRecorder()
		h.HandleClearCart(rec, httptest.NewRequest(http.MethodDelete, "/cart", nil))
		if rec.Code != http.StatusPreconditionRequired {
			t.Fatalf("expected status 428, got %d", rec.Code)
		}
		if len(h.shop.Cart().Lines) != 1 {
			t.Fatal("cart should be untouched")
		}

		req := httptest.NewRequest(http.MethodDelete, "/cart", nil)
		req.Header.Set(ConfirmHeader, "true")
		rec = httptest.NewRecorder()
		h.HandleClearCart(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if len(h.shop.Cart().Lines) != 0 {
			t.Error("expected empty cart")
		}
	})

	t.Run("clearing an empty cart needs no confirmation", func(t *testing.T) {
		h := newTestHandler(t, "")
		rec := httptest.NewRecorder()
		h.HandleClearCart(rec, httptest.NewRequest(http.MethodDelete, "/cart", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
	})
}

func TestHandler_Users(t *testing.T) {
	h := newTestHandler(t, "")

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"name":"Ana","email":"ana@example.com"}`))
	rec := httptest.NewRecorder()
	h.HandleCreateUser(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	created := decode[domain.User](t, rec)

	req = httptest.NewRequest(http.MethodPut, "/users/current", strings.NewReader(`{"id":`+itoa(created.ID)+`}`))
	rec = httptest.NewRecorder()
	h.HandleSelectUser(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decode[usersView](t, rec)
	if body.Current == nil || body.Current.ID != created.ID {
		t.Errorf("expected current user %d, got %+v", created.ID, body.Current)
	}
	if len(body.Users) != 2 {
		t.Errorf("expected 2 users, got %d", len(body.Users))
	}

	req = httptest.NewRequest(http.MethodPut, "/users/current", strings.NewReader(`{"id":77}`))
	rec = httptest.NewRecorder()
	h.HandleSelectUser(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

func TestHandler_Checkout(t *testing.T) {
	t.Run("empty cart", func(t *testing.T) {
		h := newTestHandler(t, "")
		rec := httptest.NewRecorder()
		h.HandlePrepareCheckout(rec, httptest.NewRequest(http.MethodGet, "/checkout", nil))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected status 422, got %d", rec.Code)
		}
	})

	t.Run("draft lists payment methods", func(t *testing.T) {
		h := newTestHandler(t, "")
		addToCart(t, h, 1)

		rec := httptest.NewRecorder()
		h.HandlePrepareCheckout(rec, httptest.NewRequest(http.MethodGet, "/checkout", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		body := decode[checkoutView](t, rec)
		if !strings.HasPrefix(body.OrderID, "ORD-") {
			t.Errorf("unexpected order id: %s", body.OrderID)
		}
		if len(body.Methods) != 4 || body.Methods[2].Label != "PayPal" {
			t.Errorf("unexpected methods: %+v", body.Methods)
		}
	})

	t.Run("successful payment", func(t *testing.T) {
		api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"mensaje":"ok","factura":{"numero_factura":"FAC-9"}}`))
		}))
		defer api.Close()

		h := newTestHandler(t, api.URL)
		addToCart(t, h, 1)

		req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{"method":"paypal"}`))
		rec := httptest.NewRecorder()
		h.HandleCheckout(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if body := decode[domain.Receipt](t, rec); body.InvoiceNumber != "FAC-9" {
			t.Errorf("unexpected receipt: %+v", body)
		}
		p, _ := h.shop.Product(1)
		if p.Stock != 4 {
			t.Errorf("expected stock 4, got %d", p.Stock)
		}
	})

	t.Run("rejected payment keeps the cart", func(t *testing.T) {
		api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"insufficient funds"}`))
		}))
		defer api.Close()

		h := newTestHandler(t, api.URL)
		addToCart(t, h, 1)

		req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{"method":"tarjeta_credito"}`))
		rec := httptest.NewRecorder()
		h.HandleCheckout(rec, req)

		if rec.Code != http.StatusPaymentRequired {
			t.Fatalf("expected status 402, got %d", rec.Code)
		}
		if body := decode[map[string]string](t, rec); body["error"] != "insufficient funds" {
			t.Errorf("unexpected error: %v", body)
		}
		if len(h.shop.Cart().Lines) != 1 {
			t.Error("cart should be untouched")
		}
	})

	t.Run("unreachable payment service", func(t *testing.T) {
		h := newTestHandler(t, "")
		addToCart(t, h, 1)

		req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{"method":"paypal"}`))
		rec := httptest.NewRecorder()
		h.HandleCheckout(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected status 502, got %d", rec.Code)
		}
	})

	t.Run("invalid method", func(t *testing.T) {
		h := newTestHandler(t, "")
		addToCart(t, h, 1)

		req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{"method":"cash"}`))
		rec := httptest.NewRecorder()
		h.HandleCheckout(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestHandler_History(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pagos":
			_, _ = w.Write([]byte(`[{"id":1,"orden_id":"ORD-1","usuario_id":1,"monto_total":22.4,"metodo_pago":"transferencia","estado":"aprobado"}]`))
		default:
			_, _ = w.Write([]byte(`{"unexpected":"object"}`))
		}
	}))
	defer api.Close()

	h := newTestHandler(t, api.URL)

	rec := httptest.NewRecorder()
	h.HandleListPayments(rec, httptest.NewRequest(http.MethodGet, "/payments", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	list := decode[[]map[string]any](t, rec)
	if len(list) != 1 || list[0]["metodo_pago_label"] != "Bank transfer" {
		t.Errorf("unexpected payments: %v", list)
	}

	rec = httptest.NewRecorder()
	h.HandleListInvoices(rec, httptest.NewRequest(http.MethodGet, "/invoices", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty list, got %s", rec.Body.String())
	}
}

func TestHandler_Notifications(t *testing.T) {
	h := newTestHandler(t, "")
	addToCart(t, h, 1)

	rec := httptest.NewRecorder()
	h.HandleNotifications(rec, httptest.NewRequest(http.MethodGet, "/notifications", nil))

	body := decode[[]map[string]any](t, rec)
	if len(body) == 0 {
		t.Fatal("expected at least one notification")
	}
	last := body[len(body)-1]
	if last["kind"] != "success" || last["message"] != "Product added to cart" {
		t.Errorf("unexpected notification: %v", last)
	}
}

func TestHandler_Ready(t *testing.T) {
	t.Run("payments service answers", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/health" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer upstream.Close()

		h := newTestHandler(t, upstream.URL+"/api")
		rec := httptest.NewRecorder()
		h.HandleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got := decode[map[string]string](t, rec)["status"]; got != "ready" {
			t.Errorf("expected ready, got %q", got)
		}
	})

	t.Run("payments service down", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer upstream.Close()

		h := newTestHandler(t, upstream.URL)
		rec := httptest.NewRecorder()
		h.HandleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
		if got := decode[map[string]string](t, rec)["status"]; got != "unavailable" {
			t.Errorf("expected unavailable, got %q", got)
		}
	})
}
