package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/order"
)

const (
	OrderPlacedQueue   = "order.placed"
	OrderPaidQueue     = "order.paid"
	OrderCanceledQueue = "order.canceled"
)

func MustDialRabbit(url string) *amqp.Connection {
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Fatalf("connect to RabbitMQ: %v", err)
	}
	return conn
}

// OrderLine mirrors order items on the wire so downstream consumers
// (notifications, vendor dashboards) share one contract.
type OrderLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

type OrderPlaced struct {
	EventType     string      `json:"eventType"`
	OrderID       string      `json:"orderId"`
	UserID        string      `json:"userId"`
	StoreID       string      `json:"storeId"`
	Total         string      `json:"total"`
	PaymentMethod string      `json:"paymentMethod"`
	Items         []OrderLine `json:"items"`
	Timestamp     time.Time   `json:"timestamp"`
}

type OrderPaid struct {
	EventType string    `json:"eventType"`
	OrderIDs  []string  `json:"orderIds"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

type OrderCanceled struct {
	EventType string    `json:"eventType"`
	OrderIDs  []string  `json:"orderIds"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

type Publisher struct {
	ch *amqp.Channel
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare queues so publish never fails due to missing infra
	for _, q := range []string{OrderPlacedQueue, OrderPaidQueue, OrderCanceledQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare %s: %w", q, err)
		}
	}

	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, o *order.Order) error {
	ev := OrderPlaced{
		EventType:     "OrderPlaced",
		OrderID:       o.ID,
		UserID:        o.UserID,
		StoreID:       o.StoreID,
		Total:         o.Total.String(),
		PaymentMethod: string(o.PaymentMethod),
		Timestamp:     time.Now().UTC(),
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, OrderLine{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price.String(),
		})
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderPlaced: %w", err)
	}

	return p.publishJSON(ctx, OrderPlacedQueue, body)
}

func (p *Publisher) PublishOrderPaid(ctx context.Context, orderIDs []string, userID string) error {
	ev := OrderPaid{
		EventType: "OrderPaid",
		OrderIDs:  orderIDs,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderPaid: %w", err)
	}

	return p.publishJSON(ctx, OrderPaidQueue, body)
}

func (p *Publisher) PublishOrderCanceled(ctx context.Context, orderIDs []string, userID string) error {
	ev := OrderCanceled{
		EventType: "OrderCanceled",
		OrderIDs:  orderIDs,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderCanceled: %w", err)
	}

	return p.publishJSON(ctx, OrderCanceledQueue, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		"",         // default exchange
		routingKey, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
