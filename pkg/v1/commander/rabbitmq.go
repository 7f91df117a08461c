package commander

import "context"

//go:generate mockery --name RabbitMQPublisher --filename rabbitmqpublisher.go

// RabbitMQPublisher is RabbitMQ messages publisher.
type RabbitMQPublisher interface {
	Publish(context.Context, string, []byte) error
}

// RabbitMQSender sends RMQ messages to routing key of command type.
type RabbitMQSender struct {
	publisher        RabbitMQPublisher
	routingKeyPrefix string
}

// NewRabbitMQSender returns new RabbitMQSender publishing commands to "<routingKeyPrefix>.<command type>".
func NewRabbitMQSender(publisher RabbitMQPublisher, routingKeyPrefix string) RabbitMQSender {
	return RabbitMQSender{
		publisher:        publisher,
		routingKeyPrefix: routingKeyPrefix,
	}
}

// Send sends message to routing key of command type.
func (s RabbitMQSender) Send(ctx context.Context, cmdType CommandType, msg []byte) error {
	return s.publisher.Publish(ctx, RoutingKey(s.routingKeyPrefix, cmdType), msg)
}

// RoutingKey returns routing key of command type.
func RoutingKey(prefix string, cmdType CommandType) string {
	return prefix + "." + string(cmdType)
}
