package utils

import (
	"fmt"
	"os"
	"strings"
)

// secretsDir - стандартный путь монтирования Docker Secrets.
const secretsDir = "/run/secrets"

// ReadSecret читает секрет (jwt_secret, db_password и т.п.) из файла
// в стандартном пути Docker Secrets.
func ReadSecret(secretName string) (string, error) {
	filePath := fmt.Sprintf("%s/%s", secretsDir, secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		// Не добавляем fallback на env var, чтобы поведение было консистентным
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}
