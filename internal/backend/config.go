package backend

import (
	"errors"
	"fmt"

	"gestaosocial/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		JWTSecret:    appConfig.AuthJWTSecret,
		SessionTTL:   appConfig.AuthSessionTTL,

		SeedFile: appConfig.MemorySeedFile,

		RequireConfirmation: appConfig.AuthRequireConfirmation,
		SeedUserEmail:       appConfig.SeedUserEmail,
		SeedUserPassword:    appConfig.SeedUserPassword,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	if c.Type == SQLiteBackend {
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
		if c.JWTSecret == "" {
			return errors.New("JWT secret is required for sqlite backend")
		}
	}
	if (c.SeedUserEmail == "") != (c.SeedUserPassword == "") {
		return errors.New("seed user needs both email and password")
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return errors.New("AMQP exchange and queue are required when AMQP URL is set")
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, MemoryBackend}
}
