package messaging

import (
	"encoding/json"
	"fmt"
	"log"

	"dream-advisor/api/internal/handler"
	sharedMessaging "dream-advisor/shared/messaging"

	amqp "github.com/rabbitmq/amqp091-go"
)

// UpdateConsumer получает апдейты пайплайна из fanout-обменника воркера
// и раздает их подключенным websocket-клиентам.
type UpdateConsumer struct {
	conn        *amqp.Connection
	manager     *handler.ConnectionManager
	stopChannel chan struct{}
}

// NewUpdateConsumer создает нового консьюмера клиентских апдейтов.
func NewUpdateConsumer(conn *amqp.Connection, manager *handler.ConnectionManager) *UpdateConsumer {
	return &UpdateConsumer{
		conn:        conn,
		manager:     manager,
		stopChannel: make(chan struct{}),
	}
}

// StartConsuming начинает прослушивание апдейтов. Блокирующая функция,
// запускать в отдельной горутине.
func (c *UpdateConsumer) StartConsuming() error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("не удалось открыть канал RabbitMQ: %w", err)
	}
	defer ch.Close()

	// Объявляем fanout-обменник (на случай, если воркер еще не стартовал).
	// Параметры должны совпадать с паблишером воркера.
	err = ch.ExchangeDeclare(
		sharedMessaging.ClientUpdateExchangeName,
		"fanout",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("не удалось объявить обменник '%s': %w",
			sharedMessaging.ClientUpdateExchangeName, err)
	}

	// Эксклюзивная очередь этого инстанса api: каждый инстанс получает
	// полную копию апдейтов и раздает их своим websocket-подключениям.
	q, err := ch.QueueDeclare(
		"",    // имя генерирует брокер
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("не удалось объявить очередь апдейтов: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", sharedMessaging.ClientUpdateExchangeName, false, nil); err != nil {
		return fmt.Errorf("не удалось связать очередь '%s' с обменником: %w", q.Name, err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"api-update-consumer", // consumer tag
		false,                 // auto-ack
		false,                 // exclusive
		false,                 // no-local
		false,                 // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("не удалось зарегистрировать консьюмера: %w", err)
	}

	log.Printf("Консьюмер апдейтов запущен, очередь '%s'", q.Name)

	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				log.Println("Канал сообщений RabbitMQ закрыт")
				return nil
			}

			var update sharedMessaging.SessionUpdatePayload
			if err := json.Unmarshal(d.Body, &update); err != nil {
				log.Printf("Ошибка десериализации апдейта: %v. Nack.", err)
				_ = d.Nack(false, false)
				continue
			}
			if update.ProfileID == "" {
				log.Printf("Апдейт без profile_id (TaskID: %s). Nack.", update.TaskID)
				_ = d.Nack(false, false)
				continue
			}

			// Профиль оффлайн - апдейт просто отбрасывается: клиент
			// перечитает состояние сессии по HTTP при переподключении.
			if c.manager.SendToProfile(update.ProfileID, d.Body) {
				_ = d.Ack(false)
			} else {
				_ = d.Nack(false, false)
			}

		case <-c.stopChannel:
			log.Println("Получен сигнал остановки консьюмера апдейтов")
			return nil
		}
	}
}

// Stop останавливает консьюмер.
func (c *UpdateConsumer) Stop() {
	close(c.stopChannel)
}
