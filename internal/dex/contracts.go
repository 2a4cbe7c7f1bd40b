package dex

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapPilot/internal/chain"
	"swapPilot/internal/model"
)

// Contracts talks to the pair factory, pairs, and tokens. Reads go through
// eth_call; writes need a TxSender and fail without one.
type Contracts struct {
	client     *chain.Client
	sender     *chain.TxSender
	factory    common.Address
	logger     *zap.Logger
	tokenCache *TokenMetaCache

	pairMu    sync.RWMutex
	pairCache map[common.Address]model.PairMeta
}

// NewContracts builds the contract surface. sender may be nil for a
// read-only instance.
func NewContracts(client *chain.Client, sender *chain.TxSender, factory common.Address, logger *zap.Logger) *Contracts {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Contracts{
		client:     client,
		sender:     sender,
		factory:    factory,
		logger:     logger,
		tokenCache: NewTokenMetaCache(),
		pairCache:  make(map[common.Address]model.PairMeta),
	}
}

func (c *Contracts) call(ctx context.Context, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := c.client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func (c *Contracts) send(ctx context.Context, to common.Address, parsed abi.ABI, method string, args ...interface{}) (string, error) {
	if c.sender == nil {
		return "", fmt.Errorf("no signing key configured, %s needs one", method)
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return "", fmt.Errorf("pack %s: %w", method, err)
	}
	receipt, err := c.sender.Send(ctx, to, data)
	if err != nil {
		return "", fmt.Errorf("send %s: %w", method, err)
	}
	c.logger.Debug("transaction mined",
		zap.String("method", method),
		zap.String("to", to.Hex()),
		zap.String("tx", receipt.TxHash.Hex()),
	)
	return receipt.TxHash.Hex(), nil
}

// PairCount returns the number of pairs the factory has created.
func (c *Contracts) PairCount(ctx context.Context) (uint64, error) {
	parsed, err := FactoryABI()
	if err != nil {
		return 0, err
	}
	values, err := c.call(ctx, c.factory, parsed, "allPairsLength")
	if err != nil {
		return 0, err
	}
	count, err := asBigInt(values[0])
	if err != nil {
		return 0, fmt.Errorf("pair count: %w", err)
	}
	return count.Uint64(), nil
}

// PairAt returns the pair address at the factory index.
func (c *Contracts) PairAt(ctx context.Context, index uint64) (common.Address, error) {
	parsed, err := FactoryABI()
	if err != nil {
		return common.Address{}, err
	}
	values, err := c.call(ctx, c.factory, parsed, "allPairs", new(big.Int).SetUint64(index))
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}

// CreatePair submits a pair-creation transaction and recovers the new pair
// address from the emitted PairCreated event.
func (c *Contracts) CreatePair(ctx context.Context, tokenA, tokenB common.Address) (string, common.Address, error) {
	parsed, err := FactoryABI()
	if err != nil {
		return "", common.Address{}, err
	}
	if c.sender == nil {
		return "", common.Address{}, fmt.Errorf("no signing key configured, createPair needs one")
	}

	data, err := parsed.Pack("createPair", tokenA, tokenB)
	if err != nil {
		return "", common.Address{}, fmt.Errorf("pack createPair: %w", err)
	}
	receipt, err := c.sender.Send(ctx, c.factory, data)
	if err != nil {
		return "", common.Address{}, fmt.Errorf("send createPair: %w", err)
	}

	eventID := parsed.Events["PairCreated"].ID
	for _, entry := range receipt.Logs {
		if len(entry.Topics) == 0 || entry.Topics[0] != eventID {
			continue
		}
		values, err := parsed.Unpack("PairCreated", entry.Data)
		if err != nil {
			return "", common.Address{}, fmt.Errorf("unpack PairCreated: %w", err)
		}
		pair, err := asAddress(values[0])
		if err != nil {
			return "", common.Address{}, fmt.Errorf("PairCreated pair: %w", err)
		}
		return receipt.TxHash.Hex(), pair, nil
	}

	return "", common.Address{}, fmt.Errorf("createPair receipt has no PairCreated event")
}

// Token0 returns the pair's first token, address-ordered by the ledger.
func (c *Contracts) Token0(ctx context.Context, pair common.Address) (common.Address, error) {
	meta, err := c.PairMeta(ctx, pair)
	if err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(meta.Token0), nil
}

// Token1 returns the pair's second token.
func (c *Contracts) Token1(ctx context.Context, pair common.Address) (common.Address, error) {
	meta, err := c.PairMeta(ctx, pair)
	if err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(meta.Token1), nil
}

// PairMeta returns the pair's token addresses. Token ordering never changes
// after pair creation, so results are cached per pair.
func (c *Contracts) PairMeta(ctx context.Context, pair common.Address) (model.PairMeta, error) {
	c.pairMu.RLock()
	meta, ok := c.pairCache[pair]
	c.pairMu.RUnlock()
	if ok {
		return meta, nil
	}

	token0, err := c.pairAddressCall(ctx, pair, "token0")
	if err != nil {
		return model.PairMeta{}, err
	}
	token1, err := c.pairAddressCall(ctx, pair, "token1")
	if err != nil {
		return model.PairMeta{}, err
	}

	meta = model.PairMeta{Token0: token0.Hex(), Token1: token1.Hex()}
	c.pairMu.Lock()
	c.pairCache[pair] = meta
	c.pairMu.Unlock()
	return meta, nil
}

func (c *Contracts) pairAddressCall(ctx context.Context, pair common.Address, method string) (common.Address, error) {
	parsed, err := PairABI()
	if err != nil {
		return common.Address{}, err
	}
	values, err := c.call(ctx, pair, parsed, method)
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}

// Reserves returns the pair's current reserves in base units.
func (c *Contracts) Reserves(ctx context.Context, pair common.Address) (*big.Int, *big.Int, error) {
	parsed, err := PairABI()
	if err != nil {
		return nil, nil, err
	}
	values, err := c.call(ctx, pair, parsed, "getReserves")
	if err != nil {
		return nil, nil, err
	}
	if len(values) < 2 {
		return nil, nil, fmt.Errorf("getReserves returned %d values", len(values))
	}
	r0, err := asBigInt(values[0])
	if err != nil {
		return nil, nil, fmt.Errorf("reserve0: %w", err)
	}
	r1, err := asBigInt(values[1])
	if err != nil {
		return nil, nil, fmt.Errorf("reserve1: %w", err)
	}
	return r0, r1, nil
}

// LPBalance returns the caller's LP token balance for the pair.
func (c *Contracts) LPBalance(ctx context.Context, pair common.Address) (*big.Int, error) {
	if c.sender == nil {
		return nil, fmt.Errorf("no signing key configured, balanceOf needs an owner")
	}
	parsed, err := PairABI()
	if err != nil {
		return nil, err
	}
	values, err := c.call(ctx, pair, parsed, "balanceOf", c.sender.From())
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// TotalSupply returns the pair's LP token supply.
func (c *Contracts) TotalSupply(ctx context.Context, pair common.Address) (*big.Int, error) {
	parsed, err := PairABI()
	if err != nil {
		return nil, err
	}
	values, err := c.call(ctx, pair, parsed, "totalSupply")
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// Transfer moves token amount from the caller to the recipient. Works for
// plain tokens and for LP tokens, which share the ERC20 surface.
func (c *Contracts) Transfer(ctx context.Context, token, to common.Address, amount *big.Int) (string, error) {
	parsed, err := erc20ABIStringInstance()
	if err != nil {
		return "", err
	}
	return c.send(ctx, token, parsed, "transfer", to, amount)
}

// Mint calls the pair's mint, crediting LP tokens to the caller.
func (c *Contracts) Mint(ctx context.Context, pair common.Address) (string, error) {
	if c.sender == nil {
		return "", fmt.Errorf("no signing key configured, mint needs one")
	}
	parsed, err := PairABI()
	if err != nil {
		return "", err
	}
	return c.send(ctx, pair, parsed, "mint", c.sender.From())
}

// Burn calls the pair's burn, paying withdrawn tokens to the caller.
func (c *Contracts) Burn(ctx context.Context, pair common.Address) (string, error) {
	if c.sender == nil {
		return "", fmt.Errorf("no signing key configured, burn needs one")
	}
	parsed, err := PairABI()
	if err != nil {
		return "", err
	}
	return c.send(ctx, pair, parsed, "burn", c.sender.From())
}

// Swap calls the pair's swap with the output-side amounts.
func (c *Contracts) Swap(ctx context.Context, pair common.Address, amount0Out, amount1Out *big.Int) (string, error) {
	if c.sender == nil {
		return "", fmt.Errorf("no signing key configured, swap needs one")
	}
	parsed, err := PairABI()
	if err != nil {
		return "", err
	}
	return c.send(ctx, pair, parsed, "swap", amount0Out, amount1Out, c.sender.From(), []byte{})
}

// TokenSymbol returns the token's display symbol.
func (c *Contracts) TokenSymbol(ctx context.Context, token common.Address) (string, error) {
	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		return "", err
	}
	if values, err := c.call(ctx, token, stringABI, "symbol"); err == nil {
		if symbol, ok := values[0].(string); ok {
			return symbol, nil
		}
	}

	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return "", err
	}
	values, err := c.call(ctx, token, bytes32ABI, "symbol")
	if err != nil {
		return "", err
	}
	symbol, ok := bytes32ToString(values[0])
	if !ok {
		return "", fmt.Errorf("symbol: unsupported type %T", values[0])
	}
	return symbol, nil
}

// TokenMeta returns the token's full metadata record, cached per address.
// Failures are not cached so a flaky token can recover on a later scan.
func (c *Contracts) TokenMeta(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	if meta, ok := c.tokenCache.Get(token); ok {
		return meta, nil
	}
	meta, err := FetchTokenMeta(ctx, c.client, token)
	if err != nil {
		return meta, err
	}
	c.tokenCache.Set(token, meta)
	return meta, nil
}
