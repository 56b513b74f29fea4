package handler

// --- Request structs ---

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type submitIdeaRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description" binding:"required"`
	SubmissionMethod string `json:"submission_method"`
}

type startSessionRequest struct {
	PersonaID string `json:"persona_id" binding:"required"`
}

type validateCardRequest struct {
	Number string `json:"number" binding:"required"`
	Expiry string `json:"expiry" binding:"required"`
	CVC    string `json:"cvc" binding:"required"`
}

// --- Response structs ---

type therapistResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Personality string `json:"personality"`
	Voice       string `json:"voice"`
}

type healthResponse struct {
	Status    string          `json:"status"`
	Timestamp string          `json:"timestamp"`
	APIs      healthAPIStatus `json:"apis"`
}

type healthAPIStatus struct {
	ElevenLabs bool `json:"elevenlabs"`
	Tavus      bool `json:"tavus"`
}
