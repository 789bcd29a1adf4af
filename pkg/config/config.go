package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort         string
	FirebaseProject    string
	ServiceAccountJSON string
	ServiceAccountPath string
	StorageBucket      string
	Environment        string
	LogLevel           string
	StoreDriver        string
	HeartbeatInterval  time.Duration
	HiddenGrace        time.Duration
	TypingTTL          time.Duration
	MessagesPerMinute  int
	StorageHostMarker  string
	AllowedOrigins     []string
}

func Load() (*Config, error) {
	godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("STORE_DRIVER", "firestore")
	v.SetDefault("PRESENCE_HEARTBEAT_INTERVAL", 30*time.Second)
	v.SetDefault("PRESENCE_HIDDEN_GRACE", time.Duration(0))
	v.SetDefault("TYPING_TTL", 10*time.Second)
	v.SetDefault("MESSAGE_RATE_PER_MINUTE", 30)
	v.SetDefault("STORAGE_HOST_MARKER", "firebasestorage")
	v.SetDefault("ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("FIREBASE_SERVICE_ACCOUNT_PATH", "./service-account.json")

	config := &Config{
		ServerPort:         v.GetString("SERVER_PORT"),
		FirebaseProject:    v.GetString("FIREBASE_PROJECT_ID"),
		ServiceAccountJSON: v.GetString("FIREBASE_SERVICE_ACCOUNT_JSON"),
		ServiceAccountPath: v.GetString("FIREBASE_SERVICE_ACCOUNT_PATH"),
		StorageBucket:      v.GetString("STORAGE_BUCKET"),
		Environment:        v.GetString("ENVIRONMENT"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		StoreDriver:        v.GetString("STORE_DRIVER"),
		HeartbeatInterval:  v.GetDuration("PRESENCE_HEARTBEAT_INTERVAL"),
		HiddenGrace:        v.GetDuration("PRESENCE_HIDDEN_GRACE"),
		TypingTTL:          v.GetDuration("TYPING_TTL"),
		MessagesPerMinute:  v.GetInt("MESSAGE_RATE_PER_MINUTE"),
		StorageHostMarker:  v.GetString("STORAGE_HOST_MARKER"),
		AllowedOrigins:     v.GetStringSlice("ALLOWED_ORIGINS"),
	}

	return config, nil
}

func (c *Config) IsMemoryStore() bool {
	return c.StoreDriver == "memory"
}
