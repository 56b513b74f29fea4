package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"dream-advisor/shared/interfaces"
	sharedMessaging "dream-advisor/shared/messaging"

	amqp "github.com/rabbitmq/amqp091-go"
)

// rabbitMQUpdatePublisher публикует прогресс пайплайна в fanout-обменник,
// откуда его забирает websocket-консьюмер api-сервиса.
type rabbitMQUpdatePublisher struct {
	channel      *amqp.Channel
	exchangeName string
}

// NewRabbitMQUpdatePublisher создает паблишер клиентских апдейтов.
// Важно: предполагается, что канал уже открыт и будет закрыт в другом месте (например, в main.go).
func NewRabbitMQUpdatePublisher(ch *amqp.Channel) (interfaces.ClientUpdatePublisher, error) {
	exchangeName := sharedMessaging.ClientUpdateExchangeName

	err := ch.ExchangeDeclare(
		exchangeName,
		"fanout",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("не удалось объявить обменник '%s': %w", exchangeName, err)
	}
	log.Printf("Обменник клиентских апдейтов '%s' успешно объявлен", exchangeName)

	return &rabbitMQUpdatePublisher{channel: ch, exchangeName: exchangeName}, nil
}

// PublishClientUpdate публикует апдейт в fanout-обменник.
func (p *rabbitMQUpdatePublisher) PublishClientUpdate(ctx context.Context, payload sharedMessaging.SessionUpdatePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[TaskID: %s] Ошибка сериализации SessionUpdatePayload: %v", payload.TaskID, err)
		return fmt.Errorf("ошибка сериализации апдейта для TaskID %s: %w", payload.TaskID, err)
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchangeName,
		"", // fanout игнорирует routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Transient, // апдейты прогресса не переживают рестарт брокера
			Body:         body,
			Timestamp:    time.Now(),
			AppId:        "session-worker",
			MessageId:    payload.TaskID + "-update",
		},
	)
	if err != nil {
		log.Printf("[TaskID: %s] Ошибка публикации апдейта в RabbitMQ: %v", payload.TaskID, err)
		return fmt.Errorf("ошибка публикации апдейта для TaskID %s: %w", payload.TaskID, err)
	}

	return nil
}

var _ interfaces.ClientUpdatePublisher = (*rabbitMQUpdatePublisher)(nil)
