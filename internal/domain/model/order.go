package model

import "github.com/shopspring/decimal"

// Payment modes accepted at checkout.
const (
	PaymentModeCOD     = "cod"
	PaymentModePrepaid = "prepaid"
)

// Platforms an order can originate from.
const (
	PlatformShopify     = "shopify"
	PlatformWooCommerce = "woocommerce"
	PlatformAPI         = "api"
)

// Order statuses that carry a resolved outcome and are usable for training.
const (
	StatusConfirmed   = "confirmed"
	StatusUnconfirmed = "unconfirmed"
	StatusCanceled    = "canceled"
)

// Customer is the nested customer sub-record of an order.
type Customer struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Pincode string `json:"pincode"`
	Country string `json:"country"`
}

// Order is the raw input record for risk scoring. It is owned by the caller
// and read-only to the engine; absent fields stay at their zero values.
type Order struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	PaymentMode string          `json:"paymentMode"`
	Customer    Customer        `json:"customer"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Platform    string          `json:"platform"`
}

// LabeledOrder is a historical order whose outcome has been resolved.
// Status is one of the resolved statuses above; the training pipeline maps
// it to a binary label (confirmed = 1, everything else = 0).
type LabeledOrder struct {
	Order  Order
	Status string
}
