package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL       string
	Factory      string
	PrivateKey   string
	LLMAPIKey    string
	LLMModel     string
	LLMBaseURL   string
	ActivityPath string
	PGDSN        string
	LogLevel     string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("llm-model", "gpt-4o")
	v.SetDefault("llm-base-url", "https://api.openai.com/v1")
	v.SetDefault("activity-path", "./data/activity.jsonl")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:       v.GetString("rpc"),
		Factory:      v.GetString("factory"),
		PrivateKey:   v.GetString("private-key"),
		LLMAPIKey:    v.GetString("llm-api-key"),
		LLMModel:     v.GetString("llm-model"),
		LLMBaseURL:   v.GetString("llm-base-url"),
		ActivityPath: v.GetString("activity-path"),
		PGDSN:        v.GetString("pg-dsn"),
		LogLevel:     v.GetString("log-level"),
	}

	return cfg, nil
}
