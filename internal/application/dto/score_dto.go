package dto

import (
	"github.com/shopspring/decimal"

	"github.com/confirmly/risk-engine/internal/domain/model"
)

// CustomerPayload is the nested customer object of a scoring request.
type CustomerPayload struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Pincode string `json:"pincode"`
	Country string `json:"country"`
}

// ScoreOrderRequest is the input DTO for the ScoreOrder use case. Field names
// match the wire contract the upstream order API sends.
type ScoreOrderRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	PaymentMode string          `json:"paymentMode"`
	Customer    CustomerPayload `json:"customer"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Platform    string          `json:"platform"`
}

// ToOrder maps the request onto the domain order record.
func (r ScoreOrderRequest) ToOrder() model.Order {
	return model.Order{
		Amount:      r.Amount,
		Currency:    r.Currency,
		PaymentMode: r.PaymentMode,
		Customer: model.Customer{
			Name:    r.Customer.Name,
			Address: r.Customer.Address,
			Pincode: r.Customer.Pincode,
			Country: r.Customer.Country,
		},
		Email:    r.Email,
		Phone:    r.Phone,
		Platform: r.Platform,
	}
}

// ScoreResponse is the output DTO for a scoring request. ModelStatus exposes
// artifact provenance ("loaded", "fallback", or "cached" for cache hits) so a
// caller can detect degraded scoring.
type ScoreResponse struct {
	RiskScore   float64 `json:"riskScore"`
	Confidence  float64 `json:"confidence"`
	RiskBand    string  `json:"riskBand"`
	ModelStatus string  `json:"modelStatus"`
}
