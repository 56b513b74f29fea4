package service

import (
	"context"

	"dream-advisor/shared/models"

	"github.com/google/uuid"
)

// AuthService defines the authentication operations exposed to HTTP handlers.
type AuthService interface {
	// Register создает новый профиль. Возвращает models.ErrUserAlreadyExists /
	// models.ErrEmailAlreadyExists при конфликте уникальности.
	Register(ctx context.Context, username, email, password string) (*models.Profile, error)

	// Login проверяет креды и возвращает пару токенов.
	// Возвращает models.ErrInvalidCredentials при неверном логине/пароле.
	Login(ctx context.Context, username, password string) (*models.TokenDetails, error)

	// Logout инвалидирует пару токенов. Ошибки хранилища не считаются
	// фатальными: логаут всегда успешен с точки зрения клиента.
	Logout(ctx context.Context, profileID uuid.UUID, accessUUID, refreshUUID string) error

	// Refresh проверяет refresh-токен и выпускает новую пару (ротация).
	Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error)

	// VerifyAccessToken парсит и валидирует access-токен, включая проверку
	// наличия в хранилище (отозванные токены невалидны).
	VerifyAccessToken(ctx context.Context, tokenString string) (*models.Claims, error)
}
