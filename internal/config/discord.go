package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

type DiscordConfig struct {
	Token string `env:"DISCORD_TOKEN, required"`
	// OpsChannelID receives operator failure notifications. When empty,
	// notifications go to the log only.
	OpsChannelID string `env:"DISCORD_OPS_CHANNEL_ID"`
}

func NewDiscordConfigFromEnv() (*DiscordConfig, error) {
	var cfg DiscordConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
