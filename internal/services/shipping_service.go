package services

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"printsi/internal/repositories"
)

// Carrier limits and parsing defaults.
const (
	// MaxParcelGrams is the carrier's absolute weight ceiling. Heavier
	// parcels are unsupported on every route.
	MaxParcelGrams = 31000
	// DefaultWeightGrams is assumed when an offer's weight field is absent or
	// unparseable. A policy choice, not an error: listings predate the weight
	// field and must stay shippable.
	DefaultWeightGrams = 500
)

// rateTier maps the carrier's weight bands to flat rates in the base
// currency. The smallest band that fits the parcel wins.
type rateTier struct {
	upTo5kg  float64
	upTo10kg float64
	upTo20kg float64
	upTo31kg float64
}

func (t rateTier) rateFor(weightGrams int) float64 {
	kg := float64(weightGrams) / 1000
	switch {
	case kg <= 5:
		return t.upTo5kg
	case kg <= 10:
		return t.upTo10kg
	case kg <= 20:
		return t.upTo20kg
	default:
		return t.upTo31kg
	}
}

// crossBorderRates is the DHL Parcel Connect destination table: rates for a
// parcel entering the destination country from abroad.
var crossBorderRates = map[string]rateTier{
	"PL": {20.00, 25.00, 35.00, 50.00},
	"DE": {39.67, 47.65, 54.67, 73.95},
	"CZ": {39.67, 47.65, 54.67, 73.95},
	"SK": {39.67, 47.65, 54.67, 73.95},
	"NL": {39.67, 47.65, 54.67, 73.95},
	"AT": {43.89, 52.71, 60.45, 81.80},
	"BE": {46.76, 56.18, 64.43, 87.18},
	"LT": {53.53, 64.30, 73.75, 99.77},
	"HU": {55.22, 66.31, 76.09, 102.92},
	"LV": {55.58, 66.77, 76.59, 103.61},
	"IE": {51.67, 62.06, 71.19, 96.32},
	"DK": {58.90, 70.75, 81.16, 109.79},
	"EE": {59.21, 69.60, 79.85, 108.02},
	"LU": {55.59, 66.77, 76.59, 103.61},
	"ES": {55.56, 66.74, 76.58, 103.57},
	"IT": {64.93, 77.99, 89.45, 121.00},
	"FR": {75.64, 80.53, 98.94, 122.68},
	"SE": {67.17, 80.68, 92.55, 125.22},
	"PT": {59.02, 70.88, 81.32, 110.02},
	"HR": {68.35, 82.10, 94.18, 127.37},
	"RO": {56.53, 67.88, 77.88, 105.36},
	"SI": {62.14, 74.62, 85.60, 115.82},
	"FI": {68.56, 82.33, 94.46, 127.78},
	"MC": {73.09, 77.83, 95.60, 118.56},
	"BG": {83.51, 100.28, 115.05, 155.65},
	"GR": {62.64, 75.24, 86.32, 116.79},
	"MT": {506.04, 581.56, 659.32, 740.47},
	"CY": {123.98, 170.19, 218.65, 273.87},
}

// domesticRates covers same-country delivery, based on typical major courier
// prices per country. Countries without an entry fall back to
// domesticDefault.
var domesticRates = map[string]rateTier{
	"PL": {15, 20, 30, 45},
	"DE": {25, 32, 42, 60},
	"FR": {27, 35, 48, 68},
	"NL": {22, 30, 40, 58},
	"AT": {24, 31, 41, 59},
	"BE": {23, 30, 40, 57},
	"ES": {25, 33, 44, 63},
	"IT": {26, 34, 46, 65},
	"SE": {26, 34, 45, 64},
	"CZ": {18, 24, 33, 47},
	"SK": {18, 24, 33, 47},
	"HU": {20, 26, 36, 52},
	"RO": {19, 25, 35, 50},
	"BG": {18, 24, 33, 47},
	"PT": {24, 31, 42, 60},
	"GR": {22, 29, 39, 56},
	"HR": {20, 27, 37, 53},
}

var domesticDefault = rateTier{23, 30, 42, 60}

var (
	kgPattern    = regexp.MustCompile(`^([\d.]+)\s*kg$`)
	gramsPattern = regexp.MustCompile(`^([\d.]+)\s*g?$`)
)

// ParseWeight parses an offer's free-text weight field into grams. Accepts
// "500", "500g", "500 g", "1.5kg", "1,5 kg". Anything unparseable defaults
// to DefaultWeightGrams and never fails.
func ParseWeight(text string) int {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(text)), ",", ".")
	if normalized == "" {
		return DefaultWeightGrams
	}
	if m := kgPattern.FindStringSubmatch(normalized); m != nil {
		if kg, err := strconv.ParseFloat(m[1], 64); err == nil {
			return int(math.Round(kg * 1000))
		}
		return DefaultWeightGrams
	}
	if m := gramsPattern.FindStringSubmatch(normalized); m != nil {
		if g, err := strconv.ParseFloat(m[1], 64); err == nil {
			return int(math.Round(g))
		}
	}
	return DefaultWeightGrams
}

// CalculateShippingCost returns the flat rate for one parcel on the given
// route. Domestic routes use the origin country's domestic tier table (with a
// default for countries we have no dedicated table for); cross-border routes
// use the destination's carrier table and are unsupported when the
// destination is not served.
func CalculateShippingCost(fromCountry, toCountry string, weightGrams int) (float64, error) {
	if weightGrams > MaxParcelGrams {
		return 0, fmt.Errorf("parcel of %dg exceeds %dg ceiling: %w", weightGrams, MaxParcelGrams, ErrUnsupportedRoute)
	}

	if fromCountry == toCountry {
		tier, ok := domesticRates[fromCountry]
		if !ok {
			tier = domesticDefault
		}
		return tier.rateFor(weightGrams), nil
	}

	tier, ok := crossBorderRates[toCountry]
	if !ok {
		return 0, fmt.Errorf("no carrier rate for destination %s: %w", toCountry, ErrUnsupportedRoute)
	}
	return tier.rateFor(weightGrams), nil
}

// ShippingQuoteLine is one cart line submitted for a shipping quote.
type ShippingQuoteLine struct {
	OfferID  string `json:"offer_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gte=1"`
}

// ShippingService quotes shipping for single parcels and whole carts. For
// carts it groups lines per seller: each seller ships one parcel from their
// own country, so the cart cost is the sum over seller groups.
type ShippingService struct {
	offerRepo repositories.OfferRepository
	userRepo  repositories.UserRepository
}

// NewShippingService creates a new ShippingService.
func NewShippingService(offerRepo repositories.OfferRepository, userRepo repositories.UserRepository) *ShippingService {
	return &ShippingService{
		offerRepo: offerRepo,
		userRepo:  userRepo,
	}
}

// QuoteCart computes the total shipping cost of a cart to destCountry. The
// combined weight of each seller's items forms one parcel shipped from that
// seller's profile country. The cart is shippable only if every seller group
// resolves to a supported rate; one unsupported group fails the whole quote.
func (s *ShippingService) QuoteCart(lines []ShippingQuoteLine, destCountry string) (float64, error) {
	if len(lines) == 0 {
		return 0, &ValidationError{Reason: "cart is empty"}
	}
	if destCountry == "" {
		return 0, &ValidationError{Reason: "destination country is required"}
	}

	weightBySeller := make(map[string]int)
	for _, line := range lines {
		if line.Quantity < 1 {
			return 0, &ValidationError{Reason: fmt.Sprintf("invalid quantity for offer %s", line.OfferID)}
		}
		offer, err := s.offerRepo.GetByID(line.OfferID)
		if err != nil {
			return 0, fmt.Errorf("failed to quote shipping: %w", err)
		}
		weightBySeller[offer.SellerID] += ParseWeight(offer.Weight) * line.Quantity
	}

	var total float64
	for sellerID, weight := range weightBySeller {
		seller, err := s.userRepo.GetByID(sellerID)
		if err != nil {
			return 0, fmt.Errorf("failed to resolve seller %s for shipping quote: %w", sellerID, err)
		}
		from := seller.Country
		if from == "" {
			// Sellers onboarded before the country field ship from the home
			// market.
			from = "PL"
		}
		cost, err := CalculateShippingCost(from, destCountry, weight)
		if err != nil {
			return 0, fmt.Errorf("seller %s cannot ship to %s: %w", sellerID, destCountry, err)
		}
		total += cost
	}
	return total, nil
}
