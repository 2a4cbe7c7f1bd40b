package dex

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapPilot/internal/model"
)

// PairSource enumerates pairs and resolves token metadata. Satisfied by
// *Contracts.
type PairSource interface {
	PairCount(ctx context.Context) (uint64, error)
	PairAt(ctx context.Context, index uint64) (common.Address, error)
	Token0(ctx context.Context, pair common.Address) (common.Address, error)
	Token1(ctx context.Context, pair common.Address) (common.Address, error)
	TokenMeta(ctx context.Context, token common.Address) (model.TokenMeta, error)
}

// Registry discovers tokens by scanning every known pair. A token is cached
// by lowercase symbol the first time its metadata loads; tokens whose
// metadata calls fail are skipped and only counted. Non-compliant test
// tokens are expected, so a skip is not an error.
type Registry struct {
	source PairSource
	logger *zap.Logger

	mu       sync.RWMutex
	bySymbol map[string]model.TokenMeta
	skipped  int
}

func NewRegistry(source PairSource, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		source:   source,
		logger:   logger,
		bySymbol: make(map[string]model.TokenMeta),
	}
}

// Rebuild rescans the factory and replaces the cached token table.
func (r *Registry) Rebuild(ctx context.Context) error {
	count, err := r.source.PairCount(ctx)
	if err != nil {
		return err
	}

	bySymbol := make(map[string]model.TokenMeta)
	byAddress := make(map[common.Address]struct{})
	skipped := 0

	for i := uint64(0); i < count; i++ {
		pair, err := r.source.PairAt(ctx, i)
		if err != nil {
			return err
		}
		token0, err := r.source.Token0(ctx, pair)
		if err != nil {
			return err
		}
		token1, err := r.source.Token1(ctx, pair)
		if err != nil {
			return err
		}

		for _, token := range []common.Address{token0, token1} {
			if _, seen := byAddress[token]; seen {
				continue
			}
			byAddress[token] = struct{}{}

			meta, err := r.source.TokenMeta(ctx, token)
			if err != nil {
				skipped++
				r.logger.Debug("token metadata fetch failed, skipping",
					zap.String("token", token.Hex()),
					zap.Error(err),
				)
				continue
			}

			key := strings.ToLower(meta.Symbol)
			if _, exists := bySymbol[key]; !exists {
				bySymbol[key] = meta
			}
		}
	}

	r.mu.Lock()
	r.bySymbol = bySymbol
	r.skipped = skipped
	r.mu.Unlock()

	r.logger.Info("token registry rebuilt",
		zap.Int("tokens", len(bySymbol)),
		zap.Int("skipped", skipped),
	)
	return nil
}

// Lookup returns the cached token for a symbol, case-insensitively.
func (r *Registry) Lookup(symbol string) (model.TokenMeta, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.bySymbol[strings.ToLower(symbol)]
	return meta, ok
}

// Tokens returns every cached token sorted by symbol.
func (r *Registry) Tokens() []model.TokenMeta {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.TokenMeta, 0, len(r.bySymbol))
	for _, meta := range r.bySymbol {
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Skipped reports how many tokens were dropped during the last rebuild.
func (r *Registry) Skipped() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.skipped
}
