package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"dream-advisor/shared/interfaces"
	sharedMessaging "dream-advisor/shared/messaging"

	amqp "github.com/rabbitmq/amqp091-go"
)

// rabbitMQTaskPublisher публикует задачи генерации сессий в очередь воркера.
type rabbitMQTaskPublisher struct {
	channel   *amqp.Channel
	queueName string
}

// NewRabbitMQTaskPublisher creates a new session task publisher.
// Паблишер объявляет очередь сам, чтобы система была устойчива к порядку
// запуска сервисов. Параметры (включая DLX) должны совпадать с консьюмером.
func NewRabbitMQTaskPublisher(ch *amqp.Channel) (interfaces.SessionTaskPublisher, error) {
	args := amqp.Table{
		"x-queue-mode":              "lazy",
		"x-dead-letter-exchange":    sharedMessaging.SessionTaskDLXName,
		"x-dead-letter-routing-key": sharedMessaging.SessionTaskDLQRoutingKey,
	}
	_, err := ch.QueueDeclare(
		sharedMessaging.SessionTaskQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		args,
	)
	if err != nil {
		return nil, fmt.Errorf("task publisher: не удалось объявить очередь '%s': %w",
			sharedMessaging.SessionTaskQueueName, err)
	}
	log.Printf("TaskPublisher: очередь '%s' успешно объявлена/найдена", sharedMessaging.SessionTaskQueueName)

	return &rabbitMQTaskPublisher{channel: ch, queueName: sharedMessaging.SessionTaskQueueName}, nil
}

// PublishSessionTask publishes a session generation task.
func (p *rabbitMQTaskPublisher) PublishSessionTask(ctx context.Context, payload sharedMessaging.SessionTaskPayload) error {
	if p.channel == nil {
		return errors.New("канал RabbitMQ не инициализирован")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[TaskID: %s] Ошибка сериализации SessionTaskPayload: %v", payload.TaskID, err)
		return fmt.Errorf("ошибка сериализации задачи для TaskID %s: %w", payload.TaskID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Попытка публикации с retry до 3 раз
	for attempt := 1; attempt <= 3; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			"",          // exchange (используем default)
			p.queueName, // routing key (имя очереди)
			false,       // mandatory
			false,       // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
				Timestamp:    time.Now(),
				AppId:        "dream-advisor-api",
				MessageId:    payload.TaskID,
			},
		)
		if err == nil {
			break
		}
		log.Printf("Ошибка публикации (attempt %d) в очередь '%s': %v", attempt, p.queueName, err)
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	if err != nil {
		return fmt.Errorf("ошибка публикации в очередь %s после retries: %w", p.queueName, err)
	}
	return nil
}

var _ interfaces.SessionTaskPublisher = (*rabbitMQTaskPublisher)(nil)
