package handler

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// WSClient представляет собой одно WebSocket соединение с идентификатором профиля.
type WSClient struct {
	ProfileID string
	Conn      *websocket.Conn
	send      chan []byte // Канал для отправки сообщений этому клиенту
}

// ConnectionManager управляет активными WebSocket соединениями.
type ConnectionManager struct {
	clients    map[string]*WSClient // Карта profileID -> WSClient
	register   chan *WSClient       // Канал для регистрации нового клиента
	unregister chan *WSClient       // Канал для удаления клиента
	mu         sync.RWMutex         // Мьютекс для защиты доступа к clients
}

// NewConnectionManager создает и запускает новый менеджер соединений.
func NewConnectionManager() *ConnectionManager {
	m := &ConnectionManager{
		clients:    make(map[string]*WSClient),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
	}
	go m.run() // Запускаем цикл управления в отдельной горутине
	return m
}

// run запускает основной цикл менеджера для обработки регистрации/дерегистрации.
func (m *ConnectionManager) run() {
	log.Println("ConnectionManager запущен")
	for {
		select {
		case client := <-m.register:
			log.Printf("Регистрация клиента: ProfileID=%s", client.ProfileID)
			m.mu.Lock()
			// Если клиент с таким ProfileID уже есть, закрываем старое соединение
			if oldClient, ok := m.clients[client.ProfileID]; ok {
				log.Printf("Закрытие старого соединения для ProfileID=%s", client.ProfileID)
				close(oldClient.send)
				_ = oldClient.Conn.Close()
			}
			m.clients[client.ProfileID] = client
			m.mu.Unlock()

		case client := <-m.unregister:
			m.mu.Lock()
			// Удаляем только если в карте все еще это соединение: при реконнекте
			// readPump старого соединения не должен выселить новое
			if current, ok := m.clients[client.ProfileID]; ok && current == client {
				log.Printf("Дерегистрация клиента: ProfileID=%s", client.ProfileID)
				delete(m.clients, client.ProfileID)
				close(current.send)
				// Соединение закрывается в readPump/writePump клиента
			}
			m.mu.Unlock()
		}
	}
}

// RegisterClient регистрирует нового клиента.
func (m *ConnectionManager) RegisterClient(client *WSClient) {
	m.register <- client
}

// UnregisterClient удаляет клиента, если он все еще зарегистрирован.
func (m *ConnectionManager) UnregisterClient(client *WSClient) {
	m.unregister <- client
}

// SendToProfile отправляет сообщение конкретному профилю.
// Возвращает true, если профиль онлайн и сообщение поставлено в очередь.
func (m *ConnectionManager) SendToProfile(profileID string, message []byte) bool {
	m.mu.RLock()
	client, ok := m.clients[profileID]
	m.mu.RUnlock()

	if !ok {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		// Канал переполнен или закрыт (клиент отключается)
		log.Printf("Не удалось отправить сообщение ProfileID=%s: очередь переполнена или клиент отключается", profileID)
		return false
	}
}
