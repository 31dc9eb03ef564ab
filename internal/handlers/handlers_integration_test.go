package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"printsi/internal/handlers"
	"printsi/internal/middleware"
	"printsi/internal/models"
	"printsi/internal/repositories"
	"printsi/internal/services"
	"printsi/pkg/payments"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// stubGateway is a canned payments.Gateway for integration tests. VerifyEvent
// accepts only the "test-sig" header.
type stubGateway struct {
	session *payments.Session
	event   *payments.Event
	lines   []payments.SettledLine
}

func (g *stubGateway) CreateSession(ctx context.Context, input payments.SessionInput) (*payments.Session, error) {
	if g.session == nil {
		return nil, fmt.Errorf("gateway unavailable")
	}
	return g.session, nil
}

func (g *stubGateway) VerifyEvent(payload []byte, signatureHeader string) (*payments.Event, error) {
	if signatureHeader != "test-sig" {
		return nil, payments.ErrInvalidSignature
	}
	return g.event, nil
}

func (g *stubGateway) ListLineItems(ctx context.Context, sessionID string) ([]payments.SettledLine, error) {
	return g.lines, nil
}

// setupApp wires a Fiber app against an in-memory SQLite database with the
// full handler stack, mirroring main's composition.
func setupApp() (*fiber.App, *stubGateway, error) {
	viper.SetDefault("JWT_SECRET", "test_jwt_secret")
	viper.AutomaticEnv()
	jwtSecret := viper.GetString("JWT_SECRET")

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to in-memory database: %w", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Offer{},
		&models.Order{},
		&models.OrderItem{},
		&models.ShippingDetail{},
		&models.Chat{},
		&models.Message{},
		&models.Notification{},
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	gateway := &stubGateway{}

	userRepo := repositories.NewGORMUserRepository(db)
	offerRepo := repositories.NewGORMOfferRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	chatRepo := repositories.NewGORMChatRepository(db)
	notificationRepo := repositories.NewGORMNotificationRepository(db)

	authService := services.NewAuthService(userRepo, jwtSecret)
	offerService := services.NewOfferService(offerRepo)
	balanceService := services.NewBalanceService(orderRepo)
	shippingService := services.NewShippingService(offerRepo, userRepo)
	fanoutService := services.NewFanoutService(offerRepo, notificationRepo, chatRepo, nil)
	checkoutService := services.NewCheckoutService(orderRepo, offerRepo, userRepo, fanoutService, gateway)
	webhookService := services.NewWebhookService(orderRepo, notificationRepo, gateway, fanoutService)
	chatService := services.NewChatService(chatRepo, offerRepo)

	authHandler := handlers.NewAuthHandler(authService)
	offerHandler := handlers.NewOfferHandler(offerService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	webhookHandler := handlers.NewWebhookHandler(webhookService)
	accountHandler := handlers.NewAccountHandler(balanceService, notificationRepo)
	shippingHandler := handlers.NewShippingHandler(shippingService)
	chatHandler := handlers.NewChatHandler(chatService)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")

	authHandler.RegisterRoutes(apiV1)
	webhookHandler.RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService))
	authHandler.RegisterProtectedRoutes(protected)
	offerHandler.RegisterRoutes(protected)
	checkoutHandler.RegisterRoutes(protected)
	accountHandler.RegisterRoutes(protected)
	shippingHandler.RegisterRoutes(protected)
	chatHandler.RegisterRoutes(protected)

	return app, gateway, nil
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

// postJSON sends a JSON request with an optional bearer token.
func postJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, token string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	resp.Body.Close()
}

// registerAndLogin creates a user and returns (userID, token).
func registerAndLogin(t *testing.T, app *fiber.App, username, country string) (string, string) {
	t.Helper()

	resp := postJSON(t, app, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
		"country":  country,
	}, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var registerResp struct {
		User models.User `json:"user"`
	}
	decodeBody(t, resp, &registerResp)
	assert.NotEmpty(t, registerResp.User.ID)

	resp = postJSON(t, app, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": username,
		"password": "password123",
	}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var loginResp map[string]string
	decodeBody(t, resp, &loginResp)
	assert.NotEmpty(t, loginResp["token"])

	return registerResp.User.ID, loginResp["token"]
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	_, token := registerAndLogin(t, app, "authuser", "PL")

	// Duplicate registration is refused.
	resp := postJSON(t, app, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "authuser",
		"email":    "authuser@example.com",
		"password": "password123",
	}, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// The token opens protected routes, and the profile round-trips updates.
	resp = postJSON(t, app, http.MethodGet, "/api/v1/profile", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var profile models.User
	decodeBody(t, resp, &profile)
	assert.Equal(t, "authuser", profile.Username)

	resp = postJSON(t, app, http.MethodPut, "/api/v1/profile", map[string]string{
		"full_name": "Auth User",
		"country":   "DE",
		"currency":  "EUR",
	}, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, app, http.MethodGet, "/api/v1/profile", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &profile)
	assert.Equal(t, "Auth User", profile.FullName)
	assert.Equal(t, "DE", profile.Country)
}

func TestOfferEndpoints(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	_, sellerToken := registerAndLogin(t, app, "offerseller", "PL")
	_, otherToken := registerAndLogin(t, app, "offerother", "PL")

	// Create
	resp := postJSON(t, app, http.MethodPost, "/api/v1/offers", map[string]interface{}{
		"title":       "Ceramic Mug",
		"description": "Hand thrown mug",
		"price":       18.5,
		"stock":       12,
		"weight":      "400g",
	}, sellerToken)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Offer
	decodeBody(t, resp, &created)
	assert.NotEmpty(t, created.ID)

	// List and fetch
	resp = postJSON(t, app, http.MethodGet, "/api/v1/offers", nil, otherToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var offers []models.Offer
	decodeBody(t, resp, &offers)
	assert.GreaterOrEqual(t, len(offers), 1)

	resp = postJSON(t, app, http.MethodGet, "/api/v1/offers/"+created.ID, nil, otherToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Only the owner can update or delete.
	update := map[string]interface{}{"title": "Ceramic Mug v2", "price": 20.0, "stock": 10}
	resp = postJSON(t, app, http.MethodPut, "/api/v1/offers/"+created.ID, update, otherToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, app, http.MethodPut, "/api/v1/offers/"+created.ID, update, sellerToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, app, http.MethodDelete, "/api/v1/offers/"+created.ID, nil, otherToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, app, http.MethodDelete, "/api/v1/offers/"+created.ID, nil, sellerToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, app, http.MethodGet, "/api/v1/offers/"+created.ID, nil, sellerToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestCardCheckoutAndWebhookSettlement(t *testing.T) {
	app, gateway, err := setupApp()
	assert.NoError(t, err)

	sellerID, sellerToken := registerAndLogin(t, app, "flowseller", "PL")
	buyerID, buyerToken := registerAndLogin(t, app, "flowbuyer", "DE")

	resp := postJSON(t, app, http.MethodPost, "/api/v1/offers", map[string]interface{}{
		"title":  "Art Print",
		"price":  30.0,
		"stock":  5,
		"weight": "200g",
	}, sellerToken)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var offer models.Offer
	decodeBody(t, resp, &offer)

	// A balance checkout fails for a buyer with no earnings, reporting both
	// amounts.
	resp = postJSON(t, app, http.MethodPost, "/api/v1/checkout/balance", map[string]interface{}{
		"items": []map[string]interface{}{{"offer_id": offer.ID, "quantity": 2}},
	}, buyerToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var balanceFailure map[string]interface{}
	decodeBody(t, resp, &balanceFailure)
	assert.Equal(t, "Insufficient balance", balanceFailure["message"])
	assert.Equal(t, 60.0, balanceFailure["required"])
	assert.Equal(t, 0.0, balanceFailure["available"])

	// The card path opens a hosted session.
	gateway.session = &payments.Session{ID: "cs_flow_1", URL: "https://pay.example.com/cs_flow_1"}
	resp = postJSON(t, app, http.MethodPost, "/api/v1/checkout/card", map[string]interface{}{
		"items":         []map[string]interface{}{{"offer_id": offer.ID, "quantity": 2}},
		"shipping_cost": 20.0,
	}, buyerToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var cardResp map[string]interface{}
	decodeBody(t, resp, &cardResp)
	assert.Equal(t, "https://pay.example.com/cs_flow_1", cardResp["redirect_url"])

	// The provider confirms payment through the webhook.
	gateway.event = &payments.Event{
		Type: payments.EventCheckoutCompleted,
		Session: &payments.CompletedSession{
			ID:          "cs_flow_1",
			BuyerID:     buyerID,
			AmountTotal: 80,
			Currency:    "eur",
			Shipping: &payments.ShippingInfo{
				Name: "Flow Buyer", Email: "flowbuyer@example.com",
				Address: "Main St 1", City: "Berlin", ZipCode: "10115", Country: "DE",
			},
		},
	}
	gateway.lines = []payments.SettledLine{
		{Name: "Art Print", OfferID: offer.ID, SellerID: sellerID, Quantity: 2, UnitAmount: 30},
		{Name: "Shipping", Quantity: 1, UnitAmount: 20},
	}

	// A bad signature is rejected.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Stripe-Signature", "bad-sig")
	badResp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, badResp.StatusCode)
	badResp.Body.Close()

	deliver := func() *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Stripe-Signature", "test-sig")
		resp, err := app.Test(req, -1)
		assert.NoError(t, err)
		return resp
	}

	// First delivery settles; the replay is acknowledged without a second
	// order.
	resp = deliver()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = deliver()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, app, http.MethodGet, "/api/v1/orders", nil, buyerToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []models.Order
	decodeBody(t, resp, &orders)
	assert.Len(t, orders, 1)
	assert.Equal(t, 80.0, orders[0].TotalAmount)
	assert.Equal(t, models.StatusPaid, orders[0].Status)
	assert.Equal(t, "cs_flow_1", orders[0].PaymentReference)

	// Stock moved once, the seller earned the item total.
	resp = postJSON(t, app, http.MethodGet, "/api/v1/offers/"+offer.ID, nil, sellerToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var settledOffer models.Offer
	decodeBody(t, resp, &settledOffer)
	assert.Equal(t, 3, settledOffer.Stock)

	resp = postJSON(t, app, http.MethodGet, "/api/v1/balance", nil, sellerToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var balance services.Balance
	decodeBody(t, resp, &balance)
	assert.Equal(t, 60.0, balance.Earned)
	assert.Equal(t, 60.0, balance.Balance)

	// Both parties got notified and the conversation was seeded.
	resp = postJSON(t, app, http.MethodGet, "/api/v1/notifications", nil, sellerToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var sellerNotifications []models.Notification
	decodeBody(t, resp, &sellerNotifications)
	assert.Len(t, sellerNotifications, 1)
	assert.Equal(t, models.NotificationTypeSale, sellerNotifications[0].Type)

	resp = postJSON(t, app, http.MethodGet, "/api/v1/chats", nil, buyerToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var chats []models.Chat
	decodeBody(t, resp, &chats)
	assert.Len(t, chats, 1)

	// With earnings, the seller can now spend through the balance path.
	resp = postJSON(t, app, http.MethodPost, "/api/v1/offers", map[string]interface{}{
		"title": "Sketch Commission",
		"price": 45.0,
		"stock": 1,
	}, buyerToken)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var buyerOffer models.Offer
	decodeBody(t, resp, &buyerOffer)

	resp = postJSON(t, app, http.MethodPost, "/api/v1/checkout/balance", map[string]interface{}{
		"items": []map[string]interface{}{{"offer_id": buyerOffer.ID, "quantity": 1}},
	}, sellerToken)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var balanceResult map[string]interface{}
	decodeBody(t, resp, &balanceResult)
	assert.Equal(t, true, balanceResult["success"])
}

func TestShippingQuoteEndpoint(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	_, token := registerAndLogin(t, app, "shipuser", "PL")

	resp := postJSON(t, app, http.MethodGet, "/api/v1/shipping/quote?from=PL&to=DE&weight=4000", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var quote map[string]interface{}
	decodeBody(t, resp, &quote)
	assert.Equal(t, 39.67, quote["cost"])

	resp = postJSON(t, app, http.MethodGet, "/api/v1/shipping/quote?from=PL&to=US", nil, token)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()
}

func TestProtectedEndpointsWithoutAuth(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/offers", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	req = httptest.NewRequest(http.MethodPost, "/api/v1/checkout/balance", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}
