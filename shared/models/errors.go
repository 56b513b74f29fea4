package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound     = errors.New("resource not found") // General not found
	ErrIdeaNotFound = errors.New("idea not found")

	// User & Authentication Errors
	ErrProfileNotFound    = errors.New("profile not found")
	ErrUserAlreadyExists  = errors.New("user with this username already exists")
	ErrEmailAlreadyExists = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthorized       = errors.New("unauthorized") // Authentication required or failed
	ErrForbidden          = errors.New("forbidden")    // Authenticated, but lacks permission

	// Token Errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenNotFound  = errors.New("token not found in storage")

	// Session Generation Errors
	ErrSessionNotFound     = errors.New("therapy session not found")
	ErrPersonaNotFound     = errors.New("unknown persona")
	ErrPersonaPremiumOnly  = errors.New("persona requires a premium subscription")
	ErrIdeaTooShort        = errors.New("idea description is too short")
	ErrGenerationInFlight  = errors.New("a session is already being generated for this idea")
	ErrNoSubmissionContent = errors.New("no audio file or text provided")

	// Leaderboard / Certificates
	ErrEntryNotFound    = errors.New("leaderboard entry not found")
	ErrBelowThreshold   = errors.New("session score is below the leaderboard threshold")
	ErrAlreadyMinted    = errors.New("certificate already minted for this session")
	ErrCardDeclined     = errors.New("card declined") // симулируемый отказ платежа
	ErrInvalidCard      = errors.New("invalid card details")
	ErrAlreadySubscribed = errors.New("profile already has this subscription tier")

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
	ErrInvalidInput   = errors.New("invalid input data")
)
