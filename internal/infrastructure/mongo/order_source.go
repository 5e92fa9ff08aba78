package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/confirmly/risk-engine/internal/domain/model"
)

// OrderSource implements port.TrainingDataSource against the orders
// collection. Only orders with a resolved outcome and a previously assigned
// risk score are selected; the score acts purely as a readiness signal and is
// never used as a feature.
type OrderSource struct {
	orders *mongo.Collection
	logger *slog.Logger
}

// NewOrderSource creates a source reading from db.orders.
func NewOrderSource(db *mongo.Database, logger *slog.Logger) *OrderSource {
	return &OrderSource{orders: db.Collection("orders"), logger: logger}
}

type customerDocument struct {
	Name    string `bson:"name"`
	Address string `bson:"address"`
	Pincode string `bson:"pincode"`
	Country string `bson:"country"`
}

type orderDocument struct {
	Amount      float64          `bson:"amount"`
	Currency    string           `bson:"currency"`
	PaymentMode string           `bson:"paymentMode"`
	Customer    customerDocument `bson:"customer"`
	Email       string           `bson:"email"`
	Phone       string           `bson:"phone"`
	Platform    string           `bson:"platform"`
	Status      string           `bson:"status"`
}

// FetchLabeledOrders returns every order usable for training. A store
// failure here is fatal for a training run: there is nothing to train on.
func (s *OrderSource) FetchLabeledOrders(ctx context.Context) ([]model.LabeledOrder, error) {
	filter := bson.M{
		"status":    bson.M{"$in": bson.A{model.StatusConfirmed, model.StatusUnconfirmed, model.StatusCanceled}},
		"riskScore": bson.M{"$exists": true},
	}

	cursor, err := s.orders.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("querying labeled orders: %w", err)
	}
	defer cursor.Close(ctx)

	var out []model.LabeledOrder
	for cursor.Next(ctx) {
		var doc orderDocument
		if err := cursor.Decode(&doc); err != nil {
			s.logger.Warn("skipping undecodable order document", "error", err)
			continue
		}
		out = append(out, model.LabeledOrder{
			Order: model.Order{
				Amount:      decimal.NewFromFloat(doc.Amount),
				Currency:    doc.Currency,
				PaymentMode: doc.PaymentMode,
				Customer: model.Customer{
					Name:    doc.Customer.Name,
					Address: doc.Customer.Address,
					Pincode: doc.Customer.Pincode,
					Country: doc.Customer.Country,
				},
				Email:    doc.Email,
				Phone:    doc.Phone,
				Platform: doc.Platform,
			},
			Status: doc.Status,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterating labeled orders: %w", err)
	}
	return out, nil
}
