package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type DispatchConfig struct {
	PollInterval    time.Duration `env:"DISPATCH_POLL_INTERVAL, default=30s"`
	MinSleep        time.Duration `env:"DISPATCH_MIN_SLEEP, default=1s"`
	MaxSleep        time.Duration `env:"DISPATCH_MAX_SLEEP, default=5m"`
	DeliveryTimeout time.Duration `env:"DISPATCH_DELIVERY_TIMEOUT, default=15s"`
	FailureLimit    int           `env:"DISPATCH_FAILURE_LIMIT, default=3"`
	// NotifyWindow is the dedup window for repeated failure notifications.
	NotifyWindow time.Duration `env:"DISPATCH_NOTIFY_WINDOW, default=15m"`
}

func NewDispatchConfigFromEnv() (*DispatchConfig, error) {
	var cfg DispatchConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
