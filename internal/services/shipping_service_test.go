package services_test

import (
	"testing"

	"printsi/internal/models"
	"printsi/internal/repositories"
	"printsi/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestParseWeight(t *testing.T) {
	assert.Equal(t, 500, services.ParseWeight("500"))
	assert.Equal(t, 500, services.ParseWeight("500g"))
	assert.Equal(t, 500, services.ParseWeight("500 g"))
	assert.Equal(t, 1500, services.ParseWeight("1.5kg"))
	assert.Equal(t, 1500, services.ParseWeight("1,5 kg"))
	assert.Equal(t, 2000, services.ParseWeight("2KG"))

	// Absent or unparseable weights fall back to the default.
	assert.Equal(t, services.DefaultWeightGrams, services.ParseWeight(""))
	assert.Equal(t, services.DefaultWeightGrams, services.ParseWeight("heavy"))
	assert.Equal(t, services.DefaultWeightGrams, services.ParseWeight("about 2kg"))
}

func TestCalculateShippingCost(t *testing.T) {
	// Domestic routes use the origin's domestic table, not the carrier table.
	cost, err := services.CalculateShippingCost("PL", "PL", 4000)
	assert.NoError(t, err)
	assert.Equal(t, 15.0, cost)

	// The same weight cross-border into PL hits the carrier table.
	cost, err = services.CalculateShippingCost("DE", "PL", 4000)
	assert.NoError(t, err)
	assert.Equal(t, 20.0, cost)

	// Weight bands: just above 5kg moves to the next tier.
	cost, err = services.CalculateShippingCost("PL", "DE", 5000)
	assert.NoError(t, err)
	assert.Equal(t, 39.67, cost)
	cost, err = services.CalculateShippingCost("PL", "DE", 5001)
	assert.NoError(t, err)
	assert.Equal(t, 47.65, cost)

	// Domestic route in a country without a dedicated table uses the default.
	cost, err = services.CalculateShippingCost("LT", "LT", 1000)
	assert.NoError(t, err)
	assert.Equal(t, 23.0, cost)

	// Unserved destination.
	_, err = services.CalculateShippingCost("PL", "US", 1000)
	assert.ErrorIs(t, err, services.ErrUnsupportedRoute)

	// Weight above the carrier ceiling is unsupported everywhere.
	_, err = services.CalculateShippingCost("PL", "DE", 32000)
	assert.ErrorIs(t, err, services.ErrUnsupportedRoute)
	_, err = services.CalculateShippingCost("PL", "PL", 32000)
	assert.ErrorIs(t, err, services.ErrUnsupportedRoute)
}

func TestShippingService_QuoteCart(t *testing.T) {
	offerRepo := repositories.NewMockOfferRepository()
	userRepo := repositories.NewMockUserRepository()
	shippingService := services.NewShippingService(offerRepo, userRepo)

	assert.NoError(t, userRepo.Create(&models.User{ID: "seller-pl", Username: "pl", Email: "pl@example.com", Country: "PL"}))
	assert.NoError(t, userRepo.Create(&models.User{ID: "seller-de", Username: "de", Email: "de@example.com", Country: "DE"}))

	assert.NoError(t, offerRepo.Create(&models.Offer{ID: "offer-mug", SellerID: "seller-pl", Title: "Mug", Price: 12, Stock: 10, Weight: "400g"}))
	assert.NoError(t, offerRepo.Create(&models.Offer{ID: "offer-vase", SellerID: "seller-pl", Title: "Vase", Price: 30, Stock: 5, Weight: "1.2kg"}))
	assert.NoError(t, offerRepo.Create(&models.Offer{ID: "offer-lamp", SellerID: "seller-de", Title: "Lamp", Price: 80, Stock: 3, Weight: "2kg"}))

	// Both PL offers ship as one parcel (2x400g + 1200g = 2000g, PL->PL: 15),
	// the DE offer as another (DE->PL cross-border up to 5kg: 20).
	cost, err := shippingService.QuoteCart([]services.ShippingQuoteLine{
		{OfferID: "offer-mug", Quantity: 2},
		{OfferID: "offer-vase", Quantity: 1},
		{OfferID: "offer-lamp", Quantity: 1},
	}, "PL")
	assert.NoError(t, err)
	assert.Equal(t, 35.0, cost)

	// One seller group over the weight ceiling fails the whole quote.
	_, err = shippingService.QuoteCart([]services.ShippingQuoteLine{
		{OfferID: "offer-mug", Quantity: 1},
		{OfferID: "offer-lamp", Quantity: 16},
	}, "PL")
	assert.ErrorIs(t, err, services.ErrUnsupportedRoute)

	// Empty carts and missing destinations are rejected.
	var validationErr *services.ValidationError
	_, err = shippingService.QuoteCart(nil, "PL")
	assert.ErrorAs(t, err, &validationErr)
	_, err = shippingService.QuoteCart([]services.ShippingQuoteLine{{OfferID: "offer-mug", Quantity: 1}}, "")
	assert.ErrorAs(t, err, &validationErr)
}

func TestShippingService_QuoteCart_DefaultsSellerCountry(t *testing.T) {
	offerRepo := repositories.NewMockOfferRepository()
	userRepo := repositories.NewMockUserRepository()
	shippingService := services.NewShippingService(offerRepo, userRepo)

	// A seller without a profile country ships from the home market.
	assert.NoError(t, userRepo.Create(&models.User{ID: "seller-x", Username: "x", Email: "x@example.com"}))
	assert.NoError(t, offerRepo.Create(&models.Offer{ID: "offer-x", SellerID: "seller-x", Title: "Print", Price: 10, Stock: 1, Weight: "300g"}))

	cost, err := shippingService.QuoteCart([]services.ShippingQuoteLine{{OfferID: "offer-x", Quantity: 1}}, "PL")
	assert.NoError(t, err)
	assert.Equal(t, 15.0, cost)
}
