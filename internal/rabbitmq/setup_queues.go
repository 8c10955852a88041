package rabbitmq

// ExchangeEngagement — exchange, в который публикуются события вовлечённости.
const ExchangeEngagement = "engagement"

// QueueConfig связывает имя очереди с ключом маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetEngagementQueues возвращает очереди событий вовлечённости.
func GetEngagementQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "engagement.swipes", RoutingKey: "swipe"},
	}
}
