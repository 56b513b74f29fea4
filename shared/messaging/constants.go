package messaging

// Exchange Names
const (
	// ClientUpdateExchangeName - fanout exchange, через который воркер
	// рассылает прогресс генерации подключенным клиентам (websocket).
	ClientUpdateExchangeName = "client_updates_exchange"
)

// Queue Names
const (
	// SessionTaskQueueName - очередь задач генерации сессий.
	SessionTaskQueueName = "session_generation_tasks"
	// SessionTaskDLXName / SessionTaskDLQRoutingKey - dead-letter параметры
	// очереди задач. Должны совпадать у паблишера и консьюмера.
	SessionTaskDLXName        = "session_generation_tasks_dlx"
	SessionTaskDLQRoutingKey  = "dlq"
	SessionTaskDLQName        = "session_generation_tasks_dlq"
)

// UpdateStatus определяет статус обновления, отправляемого клиенту.
type UpdateStatus string

const (
	UpdateStatusProgress  UpdateStatus = "progress"
	UpdateStatusCompleted UpdateStatus = "completed"
	UpdateStatusFailed    UpdateStatus = "failed"
)

// PipelineStage - неформальная стадия пайплайна, отображаемая в UI.
type PipelineStage string

const (
	StageScript PipelineStage = "script"
	StageVideo  PipelineStage = "video"
	StageAudio  PipelineStage = "audio"
)
