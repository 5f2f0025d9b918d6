package rabbitmq

// ExchangeKind тип exchange для событий лицензирования.
const ExchangeKind = "topic"

// Ключи маршрутизации событий.
const (
	RoutingLicenseIssued    = "license.issued"
	RoutingLicenseValidated = "license.validated"
)

// QueueConfig очередь и ключ, по которому она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetLicensingQueues очереди, которые сервер объявляет при старте.
func GetLicensingQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "licensing.audit", RoutingKey: "license.#"},
	}
}
