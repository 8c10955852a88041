package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/engagement-engine/internal/models"
)

// PublishMessage публикует сообщение в RabbitMQ.
func PublishMessage(ch *amqp.Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SwipePublisher публикует события свайпов в exchange вовлечённости.
type SwipePublisher struct {
	ch *amqp.Channel
}

// NewSwipePublisher создаёт публикатор поверх открытого канала.
func NewSwipePublisher(ch *amqp.Channel) *SwipePublisher {
	return &SwipePublisher{ch: ch}
}

// PublishSwipe отправляет событие свайпа с ключом маршрутизации "swipe".
func (p *SwipePublisher) PublishSwipe(event models.SwipeEvent) error {
	return PublishMessage(p.ch, ExchangeEngagement, "swipe", event)
}
