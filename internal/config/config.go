package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	DBPath           string        `envconfig:"DB_PATH" default:"./data/seniorbuddy.db"`
	TimeZone         string        `envconfig:"TIME_ZONE" default:"Asia/Seoul"`
	LogLevel         string        `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	HTTPAddr         string        `envconfig:"HTTP_ADDR" default:":8080"`
	NotifyDriver     string        `envconfig:"NOTIFY_DRIVER" default:"fcm"` // fcm|telegram
	FCMCredentials   string        `envconfig:"FCM_CREDENTIALS" default:"./fcm_key.json"`
	TelegramToken    string        `envconfig:"TELEGRAM_TOKEN"`
	ExpandAt         string        `envconfig:"EXPAND_AT" default:"00:01"` // local HH:MM
	DispatchInterval time.Duration `envconfig:"DISPATCH_INTERVAL" default:"30s"`
	DispatchBatch    int           `envconfig:"DISPATCH_BATCH" default:"100"`
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
