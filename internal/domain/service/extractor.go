package service

import (
	"errors"
	"fmt"
	"math"

	"github.com/confirmly/risk-engine/internal/domain/model"
)

// SchemaVersion identifies the current feature schema. Bumping it invalidates
// every previously trained artifact pair.
const SchemaVersion = "v1"

// ErrNegativeAmount is returned when an order carries a negative amount, which
// has no defined sqrt feature. Input validation belongs to the caller; the
// extractor surfaces the domain error instead of coercing to NaN.
var ErrNegativeAmount = errors.New("order amount is negative")

// SchemaV1 is the explicit ordered column list for schema version v1. Both the
// serving path and the training pipeline derive positional encodings from this
// list and nothing else.
var SchemaV1 = model.NewFeatureSchema(SchemaVersion, []string{
	"amount",
	"amount_log",
	"amount_sqrt",
	"is_cod",
	"is_prepaid",
	"currency_inr",
	"platform_shopify",
	"platform_woocommerce",
	"has_name",
	"name_length",
	"has_address",
	"has_pincode",
	"pincode_length",
	"country_code",
	"country_unknown",
	"has_email",
	"email_length",
	"email_has_at",
	"has_phone",
	"phone_length",
	"phone_numeric",
})

// FeatureExtractor is a stateless domain service turning a raw order into a
// fixed-schema feature vector. Every feature is a pure function of the input
// record; absent fields default to zero, and no feature reads external state,
// so the same extractor runs identically online and in the offline batch path.
type FeatureExtractor struct {
	schema *model.FeatureSchema
}

// NewFeatureExtractor creates an extractor bound to the current schema.
func NewFeatureExtractor() *FeatureExtractor {
	return &FeatureExtractor{schema: SchemaV1}
}

// Schema returns the schema the extractor produces vectors under.
func (e *FeatureExtractor) Schema() *model.FeatureSchema { return e.schema }

// Extract computes the feature vector for one order. The only failure mode is
// a negative amount (ErrNegativeAmount); everything else is total.
func (e *FeatureExtractor) Extract(order model.Order) (model.FeatureVector, error) {
	amount := order.Amount.InexactFloat64()
	if amount < 0 {
		return model.FeatureVector{}, fmt.Errorf("extracting order features: %w", ErrNegativeAmount)
	}

	v := model.NewFeatureVector(e.schema)
	e.orderFeatures(&v, order, amount)
	e.customerFeatures(&v, order.Customer)
	e.contactFeatures(&v, order.Email, order.Phone)
	return v, nil
}

// ExtractBatch applies Extract to each order independently, preserving input
// order. A failing row fails the batch with its index for diagnosis.
func (e *FeatureExtractor) ExtractBatch(orders []model.Order) ([]model.FeatureVector, error) {
	vectors := make([]model.FeatureVector, 0, len(orders))
	for i, order := range orders {
		v, err := e.Extract(order)
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", i, err)
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}

func (e *FeatureExtractor) orderFeatures(v *model.FeatureVector, order model.Order, amount float64) {
	v.Set("amount", amount)
	v.Set("amount_log", math.Log1p(amount))
	v.Set("amount_sqrt", math.Sqrt(amount))
	v.Set("is_cod", boolFeature(order.PaymentMode == model.PaymentModeCOD))
	v.Set("is_prepaid", boolFeature(order.PaymentMode == model.PaymentModePrepaid))
	v.Set("currency_inr", boolFeature(order.Currency == "INR"))
	v.Set("platform_shopify", boolFeature(order.Platform == model.PlatformShopify))
	v.Set("platform_woocommerce", boolFeature(order.Platform == model.PlatformWooCommerce))
}

func (e *FeatureExtractor) customerFeatures(v *model.FeatureVector, c model.Customer) {
	v.Set("has_name", boolFeature(c.Name != ""))
	v.Set("name_length", float64(len(c.Name)))
	v.Set("has_address", boolFeature(c.Address != ""))
	v.Set("has_pincode", boolFeature(c.Pincode != ""))
	v.Set("pincode_length", float64(len(c.Pincode)))
	v.Set("country_code", boolFeature(c.Country == "IN"))
	v.Set("country_unknown", boolFeature(c.Country == ""))
}

func (e *FeatureExtractor) contactFeatures(v *model.FeatureVector, email, phone string) {
	v.Set("has_email", boolFeature(email != ""))
	v.Set("email_length", float64(len(email)))
	v.Set("email_has_at", boolFeature(containsAt(email)))
	v.Set("has_phone", boolFeature(phone != ""))
	v.Set("phone_length", float64(len(phone)))
	v.Set("phone_numeric", boolFeature(isNumeric(phone)))
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func containsAt(s string) bool {
	for _, r := range s {
		if r == '@' {
			return true
		}
	}
	return false
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
