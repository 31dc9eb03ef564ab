package services_test

import (
	"context"
	"testing"

	"printsi/internal/models"
	"printsi/internal/repositories"
	"printsi/internal/services"
	"printsi/pkg/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// checkoutFixture wires a CheckoutService against in-memory repositories.
type checkoutFixture struct {
	orderRepo        *repositories.MockOrderRepository
	offerRepo        *repositories.MockOfferRepository
	userRepo         *repositories.MockUserRepository
	chatRepo         *repositories.MockChatRepository
	notificationRepo *repositories.MockNotificationRepository
	gateway          *MockGateway
	service          *services.CheckoutService
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	f := &checkoutFixture{
		orderRepo:        repositories.NewMockOrderRepository(),
		offerRepo:        repositories.NewMockOfferRepository(),
		userRepo:         repositories.NewMockUserRepository(),
		chatRepo:         repositories.NewMockChatRepository(),
		notificationRepo: repositories.NewMockNotificationRepository(),
		gateway:          new(MockGateway),
	}
	fanout := services.NewFanoutService(f.offerRepo, f.notificationRepo, f.chatRepo, nil)
	f.service = services.NewCheckoutService(f.orderRepo, f.offerRepo, f.userRepo, fanout, f.gateway)

	assert.NoError(t, f.userRepo.Create(&models.User{ID: "buyer-1", Username: "buyer", Email: "buyer@example.com"}))
	assert.NoError(t, f.userRepo.Create(&models.User{ID: "seller-1", Username: "seller", Email: "seller@example.com", Country: "PL"}))
	assert.NoError(t, f.offerRepo.Create(&models.Offer{ID: "offer-1", SellerID: "seller-1", Title: "Poster", Price: 30, Stock: 5, Weight: "200g"}))
	return f
}

// earn gives the buyer spendable balance by settling a sale of theirs.
func (f *checkoutFixture) earn(t *testing.T, userID string, amount float64) {
	t.Helper()
	err := f.orderRepo.CreateSettlement(&models.Order{
		BuyerID:     "someone-else",
		TotalAmount: amount,
		Status:      models.StatusPaid,
		Items: []models.OrderItem{
			{OfferID: "past-offer", BuyerID: "someone-else", SellerID: userID, Quantity: 1, PriceAtPurchase: amount},
		},
	}, false)
	assert.NoError(t, err)
}

func TestCheckoutService_BalanceCheckout(t *testing.T) {
	f := newCheckoutFixture(t)
	f.earn(t, "buyer-1", 80)

	result, err := f.service.BalanceCheckout("buyer-1", &services.CheckoutRequest{
		Items:        []services.CheckoutItem{{OfferID: "offer-1", Quantity: 2}},
		ShippingCost: 0,
	})
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.OrderID)

	// The settlement is priced from the offer store: 2 x 30.
	order, err := f.orderRepo.GetByID(result.OrderID)
	assert.NoError(t, err)
	assert.Equal(t, 60.0, order.TotalAmount)
	assert.Equal(t, models.StatusPaid, order.Status)
	assert.Contains(t, order.PaymentReference, "balance_")
	assert.Len(t, order.Items, 1)
	assert.Equal(t, 30.0, order.Items[0].PriceAtPurchase)

	// Fanout ran: stock decremented, seller notified, chat seeded.
	offer, err := f.offerRepo.GetByID("offer-1")
	assert.NoError(t, err)
	assert.Equal(t, 3, offer.Stock)

	notifications, err := f.notificationRepo.GetByUser("seller-1")
	assert.NoError(t, err)
	assert.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationTypeSale, notifications[0].Type)

	chats, err := f.chatRepo.GetByUser("buyer-1")
	assert.NoError(t, err)
	assert.Len(t, chats, 1)
	assert.Equal(t, result.OrderID, chats[0].OrderID)
	messages, err := f.chatRepo.GetMessages(chats[0].ID)
	assert.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestCheckoutService_BalanceCheckout_IgnoresClientPrice(t *testing.T) {
	f := newCheckoutFixture(t)
	f.earn(t, "buyer-1", 80)

	// The client claims a unit price of 1; the settlement uses the stored 30.
	result, err := f.service.BalanceCheckout("buyer-1", &services.CheckoutRequest{
		Items: []services.CheckoutItem{{OfferID: "offer-1", Quantity: 1, UnitPrice: 1}},
	})
	assert.NoError(t, err)

	order, err := f.orderRepo.GetByID(result.OrderID)
	assert.NoError(t, err)
	assert.Equal(t, 30.0, order.TotalAmount)
}

func TestCheckoutService_BalanceCheckout_InsufficientBalance(t *testing.T) {
	f := newCheckoutFixture(t)
	f.earn(t, "buyer-1", 50)

	_, err := f.service.BalanceCheckout("buyer-1", &services.CheckoutRequest{
		Items: []services.CheckoutItem{{OfferID: "offer-1", Quantity: 2}},
	})
	assert.Error(t, err)

	var balanceErr *repositories.InsufficientBalanceError
	assert.ErrorAs(t, err, &balanceErr)
	assert.Equal(t, 60.0, balanceErr.Required)
	assert.Equal(t, 50.0, balanceErr.Available)

	// Nothing was written and no stock moved.
	orders, err := f.orderRepo.GetByBuyer("buyer-1")
	assert.NoError(t, err)
	assert.Empty(t, orders)
	offer, err := f.offerRepo.GetByID("offer-1")
	assert.NoError(t, err)
	assert.Equal(t, 5, offer.Stock)
}

func TestCheckoutService_BalanceCheckout_Validation(t *testing.T) {
	f := newCheckoutFixture(t)

	var validationErr *services.ValidationError

	_, err := f.service.BalanceCheckout("buyer-1", &services.CheckoutRequest{})
	assert.ErrorAs(t, err, &validationErr)

	_, err = f.service.BalanceCheckout("", &services.CheckoutRequest{
		Items: []services.CheckoutItem{{OfferID: "offer-1", Quantity: 1}},
	})
	assert.ErrorAs(t, err, &validationErr)

	_, err = f.service.BalanceCheckout("buyer-1", &services.CheckoutRequest{
		Items: []services.CheckoutItem{{OfferID: "offer-1", Quantity: 99}},
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient stock")
}

func TestCheckoutService_CardCheckout(t *testing.T) {
	f := newCheckoutFixture(t)

	f.gateway.On("CreateSession", mock.Anything, mock.MatchedBy(func(input payments.SessionInput) bool {
		return input.BuyerID == "buyer-1" &&
			input.CustomerEmail == "buyer@example.com" &&
			input.Currency == "EUR" &&
			len(input.Lines) == 2 && // one offer line plus the shipping line
			input.Lines[0].UnitAmount == 30 &&
			input.Lines[1].Name == "Shipping"
	})).Return(&payments.Session{ID: "cs_test_1", URL: "https://pay.example.com/cs_test_1"}, nil).Once()

	result, err := f.service.CardCheckout(context.Background(), "buyer-1", &services.CheckoutRequest{
		Items:        []services.CheckoutItem{{OfferID: "offer-1", Quantity: 2}},
		ShippingCost: 15,
	})
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "https://pay.example.com/cs_test_1", result.RedirectURL)
	f.gateway.AssertExpectations(t)

	// The card path writes nothing locally; settlement waits for the webhook.
	orders, err := f.orderRepo.GetByBuyer("buyer-1")
	assert.NoError(t, err)
	assert.Empty(t, orders)
	offer, err := f.offerRepo.GetByID("offer-1")
	assert.NoError(t, err)
	assert.Equal(t, 5, offer.Stock)
}

func TestCheckoutService_CardCheckout_GatewayDown(t *testing.T) {
	f := newCheckoutFixture(t)

	f.gateway.On("CreateSession", mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()

	_, err := f.service.CardCheckout(context.Background(), "buyer-1", &services.CheckoutRequest{
		Items: []services.CheckoutItem{{OfferID: "offer-1", Quantity: 1}},
	})
	assert.Error(t, err)

	var upstreamErr *services.UpstreamError
	assert.ErrorAs(t, err, &upstreamErr)
	assert.True(t, upstreamErr.Retryable)
	f.gateway.AssertExpectations(t)
}

func TestCheckoutService_AdvanceOrderStatus(t *testing.T) {
	f := newCheckoutFixture(t)
	f.earn(t, "buyer-1", 80)

	result, err := f.service.BalanceCheckout("buyer-1", &services.CheckoutRequest{
		Items: []services.CheckoutItem{{OfferID: "offer-1", Quantity: 1}},
	})
	assert.NoError(t, err)

	assert.NoError(t, f.service.AdvanceOrderStatus(result.OrderID, models.StatusShipped))
	assert.NoError(t, f.service.AdvanceOrderStatus(result.OrderID, models.StatusDelivered))

	// Backwards moves and cancelling a non-pending order are rejected.
	assert.Error(t, f.service.AdvanceOrderStatus(result.OrderID, models.StatusPaid))
	assert.Error(t, f.service.AdvanceOrderStatus(result.OrderID, models.StatusCancelled))
}
