package models

import (
	"time"

	"github.com/google/uuid"
)

// LeaderboardThreshold - фиксированный порог, начиная с которого сессия
// публикуется в общем рейтинге.
const LeaderboardThreshold = 7.0

// LeaderboardEntry - публичная запись рейтинга. После вставки запись
// неизменяема, кроме флага NFTMinted.
type LeaderboardEntry struct {
	ID          uuid.UUID `json:"id" db:"id"`
	SessionID   uuid.UUID `json:"session_id" db:"session_id"`
	Username    string    `json:"username" db:"username"`
	IdeaTitle   string    `json:"idea_title" db:"idea_title"`
	Score       float64   `json:"score" db:"score"`
	PersonaName string    `json:"persona_name" db:"persona_name"`
	NFTMinted   bool      `json:"nft_minted" db:"nft_minted"`
	IsPublic    bool      `json:"is_public" db:"is_public"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// NFTCertificate - симулированный сертификат "чеканки" для сессии.
// Никакого взаимодействия с блокчейном нигде не происходит.
type NFTCertificate struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	TokenID   string    `json:"token_id"`
	MintedAt  time.Time `json:"minted_at"`
}
