package messaging

// SessionTaskPayload - структура сообщения для задачи генерации сессии.
// Строки идеи достаточно в payload: воркер не перечитывает идею из БД
// перед генерацией, чтобы пайплайн работал и в ephemeral-режиме.
type SessionTaskPayload struct {
	TaskID    string `json:"task_id"`    // Уникальный ID задачи
	ProfileID string `json:"profile_id"` // ID профиля
	IdeaID    string `json:"idea_id"`    // ID идеи
	SessionID string `json:"session_id"` // ID созданной сессии (строка в статусе generating)
	PersonaID string `json:"persona_id"` // Выбранная персона
	IdeaText  string `json:"idea_text"`  // Текст идеи для генерации
}

// SessionUpdatePayload - сообщение о прогрессе/завершении пайплайна,
// доставляемое клиенту через websocket.
type SessionUpdatePayload struct {
	TaskID    string        `json:"task_id"`
	ProfileID string        `json:"profile_id"`
	SessionID string        `json:"session_id"`
	Status    UpdateStatus  `json:"status"`
	Stage     PipelineStage `json:"stage,omitempty"`
	Script    string        `json:"script,omitempty"`
	Score     float64       `json:"score,omitempty"`
	Verdict   string        `json:"verdict,omitempty"`
	AudioURL  string        `json:"audio_url,omitempty"`
	VideoURL  string        `json:"video_url,omitempty"`
	Error     string        `json:"error,omitempty"`
}
