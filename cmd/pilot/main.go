package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"swapPilot/internal/actions"
	"swapPilot/internal/activity"
	"swapPilot/internal/activity/postgres"
	"swapPilot/internal/chain"
	"swapPilot/internal/config"
	"swapPilot/internal/dex"
	"swapPilot/internal/llm"
	"swapPilot/internal/plan"
)

func main() {
	root := &cobra.Command{
		Use:          "pilot",
		Short:        "AMM trading copilot",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	root.AddCommand(newAskCmd())
	root.AddCommand(newPlanCmd())
	root.AddCommand(newSuiteCmd())
	root.AddCommand(newExecCmd())
	root.AddCommand(newPoolsCmd())
	root.AddCommand(newTokensCmd())
	root.AddCommand(newCountCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "chain RPC URL")
	cmd.Flags().String("factory", "", "pair factory address")
	cmd.Flags().String("private-key", "", "hex private key for signing transactions")
	cmd.Flags().String("llm-api-key", "", "LLM API key")
	cmd.Flags().String("llm-model", "gpt-4o", "LLM model")
	cmd.Flags().String("llm-base-url", "https://api.openai.com/v1", "LLM API base URL")
	cmd.Flags().String("activity-path", "./data/activity.jsonl", "activity log JSONL path")
	cmd.Flags().String("pg-dsn", "", "optional Postgres DSN for the activity log")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

// app wires the chain client, contracts, activity store, and registry for
// one command invocation.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	client    *chain.Client
	contracts *dex.Contracts
	registry  *actions.Registry
	session   *plan.Session
	store     activity.Store
	pgStore   *postgres.Store
}

func newApp(ctx context.Context, cmd *cobra.Command, needSigner bool) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(cfg.Factory) {
		return nil, fmt.Errorf("factory address is required")
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	var sender *chain.TxSender
	if cfg.PrivateKey != "" {
		sender, err = chain.NewTxSender(ctx, client, cfg.PrivateKey)
		if err != nil {
			client.Close()
			return nil, err
		}
	} else if needSigner {
		client.Close()
		return nil, fmt.Errorf("private key is required")
	}

	var store activity.Store
	var pgStore *postgres.Store
	if cfg.PGDSN != "" {
		pgStore, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		store = pgStore
	} else {
		store = activity.NewJsonlStore(cfg.ActivityPath)
	}

	contracts := dex.NewContracts(client, sender, common.HexToAddress(cfg.Factory), logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		client:    client,
		contracts: contracts,
		registry:  actions.New(contracts, store, logger),
		session:   plan.NewSession(),
		store:     store,
		pgStore:   pgStore,
	}, nil
}

func (a *app) Close() {
	if a.pgStore != nil {
		a.pgStore.Close()
	}
	if a.client != nil {
		a.client.Close()
	}
	if a.logger != nil {
		a.logger.Sync()
	}
}

func (a *app) resolver() (*plan.Resolver, error) {
	client, err := llm.New(llm.Config{
		APIKey:  a.cfg.LLMAPIKey,
		Model:   a.cfg.LLMModel,
		BaseURL: a.cfg.LLMBaseURL,
	})
	if err != nil {
		return nil, err
	}
	return plan.NewResolver(client, a.logger), nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
