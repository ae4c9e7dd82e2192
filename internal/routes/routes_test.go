package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/whatsapp-storefront/backend/internal/handlers"
	"github.com/whatsapp-storefront/backend/internal/models"
	"github.com/whatsapp-storefront/backend/internal/services"
	"github.com/whatsapp-storefront/backend/internal/storage"
)

const (
	testBaseURL  = "https://shop.example.com"
	testAdminKey = "admin-secret"
	sellerPhone  = "whatsapp:+233241234567"
	sellerID     = "233241234567"
)

type stubCompleter struct {
	reply string
	err   error
}

func (s stubCompleter) Complete(ctx context.Context, query string) (string, error) {
	return s.reply, s.err
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent map[string][]string
}

func (f *fakeNotifier) Notify(ctx context.Context, sellerID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sent == nil {
		f.sent = make(map[string][]string)
	}
	f.sent[sellerID] = append(f.sent[sellerID], message)
	return nil
}

type fakeValidator struct{ valid string }

func (f fakeValidator) ValidateSignature(url string, params map[string]string, signature string) bool {
	return signature == f.valid
}

type downStore struct{ storage.Store }

func (downStore) Ping(ctx context.Context) error { return errors.New("connection refused") }

func (downStore) CreateSeller(ctx context.Context, seller *models.Seller) (*models.Seller, error) {
	return nil, errors.New("connection refused")
}

type testEnv struct {
	app      *fiber.App
	store    storage.Store
	notifier *fakeNotifier
}

type envOption func(*Dependencies)

func newTestEnv(t *testing.T, store storage.Store, completer services.Completer, opts ...envOption) *testEnv {
	t.Helper()
	log := zaptest.NewLogger(t)
	notifier := &fakeNotifier{}

	whatsapp := services.NewWhatsAppService(services.NewIngestionService(store), completer, testBaseURL)
	deps := Dependencies{
		Health:           handlers.NewHealthHandler("test", "memory", store, false, true),
		WhatsApp:         handlers.NewWhatsAppHandler(whatsapp, 2*time.Second, log),
		Storefront:       handlers.NewStorefrontHandler(store),
		Admin:            handlers.NewAdminHandler(store, notifier, whatsapp, log),
		AdminAPIKey:      testAdminKey,
		EnableTestRoutes: true,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	app := NewApp("test", log)
	SetupRoutes(app, deps, zap.NewNop())
	return &testEnv{app: app, store: store, notifier: notifier}
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func webhookRequest(fields url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(fields.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Key", testAdminKey)
	return req
}

func TestWebhookAddProduct(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), stubCompleter{reply: "unused"})

	resp, body := env.do(t, webhookRequest(url.Values{
		"From":      {sellerPhone},
		"Body":      {"/addproduct ₵50 Nice Shirt"},
		"NumMedia":  {"1"},
		"MediaUrl0": {"https://media.example/1"},
	}))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/xml")
	assert.Equal(t, 1, strings.Count(body, "<Message>"))
	assert.Contains(t, body, "₵50")
	assert.Contains(t, body, testBaseURL+"/"+sellerID)

	products, err := env.store.ListProductsBySeller(context.Background(), sellerID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "₵50", products[0].Price)
	assert.Equal(t, "Nice Shirt", products[0].Description)
	assert.Equal(t, "https://media.example/1", products[0].ImageURL)
}

func TestWebhookStoredProductSurvivesLaterRequests(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), stubCompleter{reply: "We sell shirts and shoes, ask away!"})

	env.do(t, webhookRequest(url.Values{
		"From":      {sellerPhone},
		"Body":      {"/addproduct ₵50 Nice Shirt"},
		"NumMedia":  {"1"},
		"MediaUrl0": {"http://m/1"},
	}))
	env.do(t, webhookRequest(url.Values{
		"From":      {"whatsapp:+999999999999"},
		"Body":      {"abcdefghijklmnopqrstuvwxyz, do you deliver to Kumasi?"},
		"NumMedia":  {"0"},
		"MediaUrl0": {"abcdefghij"},
	}))

	products, err := env.store.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, sellerID, products[0].SellerID)
	assert.Equal(t, "₵50", products[0].Price)
	assert.Equal(t, "Nice Shirt", products[0].Description)
	assert.Equal(t, "http://m/1", products[0].ImageURL)
}

func TestWebhookMalformedAndFallback(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), stubCompleter{reply: "We sell shirts!"})

	resp, body := env.do(t, webhookRequest(url.Values{
		"From":     {sellerPhone},
		"Body":     {"/addproduct ₵50 Nice Shirt"},
		"NumMedia": {"0"},
	}))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "/addproduct &lt;currency")

	_, body = env.do(t, webhookRequest(url.Values{
		"From": {sellerPhone},
		"Body": {"what do you sell?"},
	}))
	assert.Contains(t, body, "<Message>We sell shirts!</Message>")

	products, err := env.store.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestWebhookApology(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), stubCompleter{err: errors.New("rate limited")})

	resp, body := env.do(t, webhookRequest(url.Values{"From": {sellerPhone}, "Body": {"hello"}}))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Sorry")
	assert.Equal(t, 1, strings.Count(body, "<Message>"))
}

func TestWebhookSignature(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), stubCompleter{reply: "hi"}, func(d *Dependencies) {
		d.SignatureValidator = fakeValidator{valid: "good"}
		d.PublicWebhookURL = "https://hooks.example.com"
	})
	fields := url.Values{"From": {sellerPhone}, "Body": {"hello"}}

	resp, _ := env.do(t, webhookRequest(fields))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := webhookRequest(fields)
	req.Header.Set("X-Twilio-Signature", "bad")
	resp, _ = env.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = webhookRequest(fields)
	req.Header.Set("X-Twilio-Signature", "good")
	resp, body := env.do(t, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<Message>hi</Message>")
}

func TestTestWebhook(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), stubCompleter{reply: "hi"})

	req := httptest.NewRequest(http.MethodPost, "/test/whatsapp",
		strings.NewReader(`{"from":"+233241234567","message":"/addproduct $12.50 Pen","num_media":1,"media_url":"https://media.example/2"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, body := env.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Success  bool   `json:"success"`
		Outcome  string `json:"outcome"`
		Response string `json:"response"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.True(t, out.Success)
	assert.Equal(t, services.OutcomePersisted.String(), out.Outcome)
	assert.Contains(t, out.Response, "$12.50")

	req = httptest.NewRequest(http.MethodPost, "/test/whatsapp", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = env.do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStorefront(t *testing.T) {
	store := storage.NewMemoryStore()
	env := newTestEnv(t, store, stubCompleter{reply: "hi"})
	ctx := context.Background()

	resp, _ := env.do(t, httptest.NewRequest(http.MethodGet, "/api/storefront/"+sellerID, nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, err := store.CreateProduct(ctx, &models.Product{SellerID: sellerID, Price: "₵50", Description: "Nice Shirt"})
	require.NoError(t, err)

	// orphaned products still render under the default label
	resp, body := env.do(t, httptest.NewRequest(http.MethodGet, "/"+sellerID, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, models.DefaultSellerLabel)
	assert.Contains(t, body, `"displayStatus":"unknown"`)
	assert.Contains(t, body, `"count":1`)

	_, err = store.CreateSeller(ctx, &models.Seller{ID: sellerID, Name: "Ama's Closet", Active: true})
	require.NoError(t, err)
	_, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/storefront/"+sellerID, nil))
	assert.Contains(t, body, "Ama's Closet")
}

func TestAdminRequiresKey(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), stubCompleter{})

	resp, _ := env.do(t, httptest.NewRequest(http.MethodGet, "/admin/sellers", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/admin/sellers", nil)
	req.Header.Set("X-Admin-Key", "wrong")
	resp, _ = env.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, jsonRequest(http.MethodGet, "/admin/sellers", ""))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminSellers(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), stubCompleter{})

	resp, body := env.do(t, jsonRequest(http.MethodPost, "/admin/sellers",
		`{"phone":"+233241234567","name":"Ama's Closet","location":"Accra"}`))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Contains(t, body, testBaseURL+"/"+sellerID)

	resp, _ = env.do(t, jsonRequest(http.MethodPost, "/admin/sellers", `{"phone":"+233241234567","name":"Again"}`))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = env.do(t, jsonRequest(http.MethodPost, "/admin/sellers", `{"name":"No Phone"}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = env.do(t, jsonRequest(http.MethodPatch, "/admin/sellers/"+sellerID, `{"active":false}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"active":false`)

	resp, _ = env.do(t, jsonRequest(http.MethodGet, "/admin/sellers/missing", ""))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminCreateSellerStoreDown(t *testing.T) {
	env := newTestEnv(t, downStore{storage.NewMemoryStore()}, stubCompleter{})

	resp, body := env.do(t, jsonRequest(http.MethodPost, "/admin/sellers", `{"phone":"+233241234567","name":"Ama's Closet"}`))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, body, "connection refused")
}

func TestAdminProducts(t *testing.T) {
	store := storage.NewMemoryStore()
	env := newTestEnv(t, store, stubCompleter{})

	product, err := store.CreateProduct(context.Background(), &models.Product{
		SellerID: sellerID, Price: "₵50", Description: "Nice Shirt",
	})
	require.NoError(t, err)

	resp, _ := env.do(t, jsonRequest(http.MethodPatch, "/admin/products/"+product.ID, `{}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := env.do(t, jsonRequest(http.MethodPatch, "/admin/products/"+product.ID,
		`{"status":"approved","isAvailable":true}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"notified":true`)
	require.Len(t, env.notifier.sent[sellerID], 1)
	assert.Contains(t, env.notifier.sent[sellerID][0], "Nice Shirt")

	// already available, no second notification
	_, body = env.do(t, jsonRequest(http.MethodPatch, "/admin/products/"+product.ID, `{"isAvailable":true}`))
	assert.Contains(t, body, `"notified":false`)
	assert.Len(t, env.notifier.sent[sellerID], 1)

	_, body = env.do(t, jsonRequest(http.MethodGet, "/admin/products?sellerId=%2B"+sellerID, ""))
	assert.Contains(t, body, `"count":1`)

	resp, _ = env.do(t, jsonRequest(http.MethodDelete, "/admin/products/"+product.ID, ""))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = env.do(t, jsonRequest(http.MethodGet, "/admin/products/"+product.ID, ""))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), stubCompleter{})
	resp, body := env.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"healthy"`)

	down := newTestEnv(t, downStore{storage.NewMemoryStore()}, stubCompleter{})
	resp, body = down.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, `"database":false`)

	resp, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
