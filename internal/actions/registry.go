package actions

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapPilot/internal/activity"
	"swapPilot/internal/amm"
	"swapPilot/internal/model"
)

// Ledger is the contract surface the actions need. Satisfied by
// *dex.Contracts.
type Ledger interface {
	PairCount(ctx context.Context) (uint64, error)
	PairAt(ctx context.Context, index uint64) (common.Address, error)
	CreatePair(ctx context.Context, tokenA, tokenB common.Address) (txHash string, pair common.Address, err error)
	Token0(ctx context.Context, pair common.Address) (common.Address, error)
	Token1(ctx context.Context, pair common.Address) (common.Address, error)
	Reserves(ctx context.Context, pair common.Address) (*big.Int, *big.Int, error)
	LPBalance(ctx context.Context, pair common.Address) (*big.Int, error)
	TotalSupply(ctx context.Context, pair common.Address) (*big.Int, error)
	Transfer(ctx context.Context, token, to common.Address, amount *big.Int) (string, error)
	Mint(ctx context.Context, pair common.Address) (string, error)
	Burn(ctx context.Context, pair common.Address) (string, error)
	Swap(ctx context.Context, pair common.Address, amount0Out, amount1Out *big.Int) (string, error)
	TokenSymbol(ctx context.Context, token common.Address) (string, error)
}

// Registry exposes the fixed set of named operations over a ledger and the
// activity store.
type Registry struct {
	ledger Ledger
	store  activity.Store
	logger *zap.Logger
	now    func() time.Time
}

func New(ledger Ledger, store activity.Store, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		ledger: ledger,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Names lists every registered action.
var Names = []string{
	"selectPool",
	"createPool",
	"deposit",
	"redeem",
	"swap",
	"getReserves",
	"countActions",
}

// Execute runs the named action against the ledger. Mutating actions append
// an activity entry after success; failures short-circuit before logging.
func (r *Registry) Execute(ctx context.Context, name string, args Args) (Result, error) {
	switch name {
	case "selectPool":
		return r.selectPool(ctx, args)
	case "createPool":
		return r.createPool(ctx, args)
	case "deposit":
		return r.deposit(ctx, args)
	case "redeem":
		return r.redeem(ctx, args)
	case "swap":
		return r.swap(ctx, args)
	case "getReserves":
		return r.getReserves(ctx, args)
	case "countActions":
		return r.countActions(ctx, args)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUndefinedAction, name)
	}
}

func (r *Registry) selectPool(ctx context.Context, args Args) (Result, error) {
	poolID := args.Str("poolId")
	symbolA := args.Str("symbolA")
	symbolB := args.Str("symbolB")

	if poolID != "" && common.IsHexAddress(poolID) {
		return Result{"poolAddress": common.HexToAddress(poolID).Hex()}, nil
	}
	if poolID != "" && strings.Contains(poolID, "-") {
		parts := strings.SplitN(poolID, "-", 2)
		symbolA, symbolB = parts[0], parts[1]
	}
	if symbolA == "" || symbolB == "" {
		return nil, fmt.Errorf("%w: selectPool needs symbolA+symbolB or poolId", ErrMissingArgument)
	}

	count, err := r.ledger.PairCount(ctx)
	if err != nil {
		return nil, ledgerErr("pairCount", err)
	}

	for i := uint64(0); i < count; i++ {
		pair, err := r.ledger.PairAt(ctx, i)
		if err != nil {
			return nil, ledgerErr("pairAt", err)
		}
		token0, err := r.ledger.Token0(ctx, pair)
		if err != nil {
			return nil, ledgerErr("token0", err)
		}
		token1, err := r.ledger.Token1(ctx, pair)
		if err != nil {
			return nil, ledgerErr("token1", err)
		}
		symbol0, err := r.ledger.TokenSymbol(ctx, token0)
		if err != nil {
			return nil, ledgerErr("symbol", err)
		}
		symbol1, err := r.ledger.TokenSymbol(ctx, token1)
		if err != nil {
			return nil, ledgerErr("symbol", err)
		}

		if (strings.EqualFold(symbol0, symbolA) && strings.EqualFold(symbol1, symbolB)) ||
			(strings.EqualFold(symbol0, symbolB) && strings.EqualFold(symbol1, symbolA)) {
			return Result{"poolAddress": pair.Hex()}, nil
		}
	}

	return nil, fmt.Errorf("%w: no pool for %s-%s", ErrPoolNotFound, symbolA, symbolB)
}

func (r *Registry) createPool(ctx context.Context, args Args) (Result, error) {
	tokenA := args.Str("tokenA")
	tokenB := args.Str("tokenB")
	if tokenA == "" || tokenB == "" {
		return nil, fmt.Errorf("%w: createPool needs tokenA and tokenB", ErrMissingArgument)
	}
	if !common.IsHexAddress(tokenA) || !common.IsHexAddress(tokenB) {
		return nil, fmt.Errorf("createPool needs token addresses, got %q and %q", tokenA, tokenB)
	}

	txHash, pair, err := r.ledger.CreatePair(ctx, common.HexToAddress(tokenA), common.HexToAddress(tokenB))
	if err != nil {
		return nil, ledgerErr("createPair", err)
	}

	return Result{"txHash": txHash, "poolAddress": pair.Hex()}, nil
}

func (r *Registry) deposit(ctx context.Context, args Args) (Result, error) {
	pool, err := poolArg(args)
	if err != nil {
		return nil, err
	}
	amountA := args.Str("amountA")
	amountB := args.Str("amountB")
	if amountA == "" || amountB == "" {
		return nil, fmt.Errorf("%w: deposit needs amountA and amountB", ErrMissingArgument)
	}
	a0, err := parseAmount(amountA)
	if err != nil {
		return nil, fmt.Errorf("amountA: %w", err)
	}
	a1User, err := parseAmount(amountB)
	if err != nil {
		return nil, fmt.Errorf("amountB: %w", err)
	}

	token0, err := r.ledger.Token0(ctx, pool)
	if err != nil {
		return nil, ledgerErr("token0", err)
	}
	token1, err := r.ledger.Token1(ctx, pool)
	if err != nil {
		return nil, ledgerErr("token1", err)
	}
	r0, r1, err := r.ledger.Reserves(ctx, pool)
	if err != nil {
		return nil, ledgerErr("getReserves", err)
	}

	// Non-empty pool: token1 side follows the pool ratio, user amountB is
	// ignored. Empty pool: both amounts used verbatim.
	a1, err := amm.ProportionalDeposit(r0, r1, a0, a1User)
	if err != nil {
		return nil, err
	}

	if _, err := r.ledger.Transfer(ctx, token0, pool, a0); err != nil {
		return nil, ledgerErr("transfer token0", err)
	}
	if _, err := r.ledger.Transfer(ctx, token1, pool, a1); err != nil {
		return nil, ledgerErr("transfer token1", err)
	}
	txHash, err := r.ledger.Mint(ctx, pool)
	if err != nil {
		return nil, ledgerErr("mint", err)
	}

	r.logMutation(ctx, model.ActivityEntry{
		Type:        "deposit",
		PoolAddress: pool.Hex(),
		Token0:      token0.Hex(),
		Token1:      token1.Hex(),
		Amount0:     a0.String(),
		Amount1:     a1.String(),
		TxHash:      txHash,
	})

	return Result{"deposited": true}, nil
}

func (r *Registry) redeem(ctx context.Context, args Args) (Result, error) {
	percentStr := args.Str("percent")
	if percentStr == "" {
		return nil, fmt.Errorf("%w: redeem needs percent", ErrMissingArgument)
	}
	percent, err := strconv.Atoi(percentStr)
	if err != nil {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidPercent, percentStr)
	}
	if percent < 1 || percent > 100 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPercent, percent)
	}

	pool, err := poolArg(args)
	if err != nil {
		return nil, err
	}

	balance, err := r.ledger.LPBalance(ctx, pool)
	if err != nil {
		return nil, ledgerErr("balanceOf", err)
	}
	lpAmount := new(big.Int).Mul(balance, big.NewInt(int64(percent)))
	lpAmount.Quo(lpAmount, big.NewInt(100))

	supply, err := r.ledger.TotalSupply(ctx, pool)
	if err != nil {
		return nil, ledgerErr("totalSupply", err)
	}
	r0, r1, err := r.ledger.Reserves(ctx, pool)
	if err != nil {
		return nil, ledgerErr("getReserves", err)
	}

	amount0, amount1, err := amm.ProportionalRedeem(lpAmount, supply, r0, r1)
	if err != nil {
		return nil, err
	}

	// LP tokens move to the pair itself before burn.
	if _, err := r.ledger.Transfer(ctx, pool, pool, lpAmount); err != nil {
		return nil, ledgerErr("transfer lp", err)
	}
	txHash, err := r.ledger.Burn(ctx, pool)
	if err != nil {
		return nil, ledgerErr("burn", err)
	}

	token0, err := r.ledger.Token0(ctx, pool)
	if err != nil {
		return nil, ledgerErr("token0", err)
	}
	token1, err := r.ledger.Token1(ctx, pool)
	if err != nil {
		return nil, ledgerErr("token1", err)
	}

	r.logMutation(ctx, model.ActivityEntry{
		Type:        "redeem",
		PoolAddress: pool.Hex(),
		Token0:      token0.Hex(),
		Token1:      token1.Hex(),
		Amount0:     amount0.String(),
		Amount1:     amount1.String(),
		TxHash:      txHash,
	})

	return Result{"redeemed": true}, nil
}

func (r *Registry) swap(ctx context.Context, args Args) (Result, error) {
	pool, err := poolArg(args)
	if err != nil {
		return nil, err
	}
	fromSymbol := args.Str("fromSymbol")
	toSymbol := args.Str("toSymbol")
	if fromSymbol == "" || toSymbol == "" {
		return nil, fmt.Errorf("%w: swap needs fromSymbol and toSymbol", ErrMissingArgument)
	}
	amountStr := args.Str("amount")
	amountOutStr := args.Str("amountOut")
	if amountStr == "" && amountOutStr == "" {
		return nil, fmt.Errorf("%w: swap needs amount or amountOut", ErrMissingArgument)
	}

	token0, err := r.ledger.Token0(ctx, pool)
	if err != nil {
		return nil, ledgerErr("token0", err)
	}
	token1, err := r.ledger.Token1(ctx, pool)
	if err != nil {
		return nil, ledgerErr("token1", err)
	}
	symbol0, err := r.ledger.TokenSymbol(ctx, token0)
	if err != nil {
		return nil, ledgerErr("symbol", err)
	}
	symbol1, err := r.ledger.TokenSymbol(ctx, token1)
	if err != nil {
		return nil, ledgerErr("symbol", err)
	}
	r0, r1, err := r.ledger.Reserves(ctx, pool)
	if err != nil {
		return nil, ledgerErr("getReserves", err)
	}

	var inputToken common.Address
	var reserveIn, reserveOut *big.Int
	zeroToOne := strings.EqualFold(fromSymbol, symbol0) && strings.EqualFold(toSymbol, symbol1)
	switch {
	case zeroToOne:
		inputToken, reserveIn, reserveOut = token0, r0, r1
	case strings.EqualFold(fromSymbol, symbol1) && strings.EqualFold(toSymbol, symbol0):
		inputToken, reserveIn, reserveOut = token1, r1, r0
	default:
		return nil, fmt.Errorf("%w: pool holds %s-%s, asked for %s-%s", ErrPairMismatch, symbol0, symbol1, fromSymbol, toSymbol)
	}

	// Exact input wins when both amounts are present.
	var amountIn, amountOut *big.Int
	if amountStr != "" {
		amountIn, err = parseAmount(amountStr)
		if err != nil {
			return nil, fmt.Errorf("amount: %w", err)
		}
		amountOut, err = amm.SwapExactInput(reserveIn, reserveOut, amountIn)
		if err != nil {
			return nil, err
		}
	} else {
		amountOut, err = parseAmount(amountOutStr)
		if err != nil {
			return nil, fmt.Errorf("amountOut: %w", err)
		}
		amountIn, err = amm.SwapExactOutput(reserveIn, reserveOut, amountOut)
		if err != nil {
			return nil, err
		}
	}

	amount0Out := big.NewInt(0)
	amount1Out := big.NewInt(0)
	if zeroToOne {
		amount1Out = amountOut
	} else {
		amount0Out = amountOut
	}

	if _, err := r.ledger.Transfer(ctx, inputToken, pool, amountIn); err != nil {
		return nil, ledgerErr("transfer input", err)
	}
	txHash, err := r.ledger.Swap(ctx, pool, amount0Out, amount1Out)
	if err != nil {
		return nil, ledgerErr("swap", err)
	}

	r.logMutation(ctx, model.ActivityEntry{
		Type:        "swap",
		PoolAddress: pool.Hex(),
		Token0:      token0.Hex(),
		Token1:      token1.Hex(),
		Amount0:     amount0Out.String(),
		Amount1:     amount1Out.String(),
		TxHash:      txHash,
	})

	return Result{
		"swapped":    true,
		"input":      amountIn.String(),
		"output":     amountOut.String(),
		"fromSymbol": fromSymbol,
		"toSymbol":   toSymbol,
		"txHash":     txHash,
	}, nil
}

func (r *Registry) getReserves(ctx context.Context, args Args) (Result, error) {
	pool, err := poolArg(args)
	if err != nil {
		return nil, err
	}

	r0, r1, err := r.ledger.Reserves(ctx, pool)
	if err != nil {
		return nil, ledgerErr("getReserves", err)
	}
	token0, err := r.ledger.Token0(ctx, pool)
	if err != nil {
		return nil, ledgerErr("token0", err)
	}
	token1, err := r.ledger.Token1(ctx, pool)
	if err != nil {
		return nil, ledgerErr("token1", err)
	}
	symbol0, err := r.ledger.TokenSymbol(ctx, token0)
	if err != nil {
		return nil, ledgerErr("symbol", err)
	}
	symbol1, err := r.ledger.TokenSymbol(ctx, token1)
	if err != nil {
		return nil, ledgerErr("symbol", err)
	}

	return Result{
		"reserves": map[string]string{
			symbol0: formatAmount(r0),
			symbol1: formatAmount(r1),
		},
		"token0":      symbol0,
		"token1":      symbol1,
		"poolAddress": pool.Hex(),
	}, nil
}

func (r *Registry) countActions(ctx context.Context, args Args) (Result, error) {
	actionType := args.Str("type")
	if actionType == "" {
		actionType = "swap"
	}
	poolAddress := args.Str("poolAddress")
	if strings.EqualFold(poolAddress, "any") {
		poolAddress = ""
	}
	date := args.Str("date")
	if date == "" {
		date = r.now().Format("2006-01-02")
	}

	start, end, err := activity.DayWindow(date, time.Local)
	if err != nil {
		return nil, err
	}

	entries, err := r.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read activity log: %w", err)
	}

	count := activity.CountMatching(entries, activity.Query{
		Type:        actionType,
		PoolAddress: poolAddress,
		DayStart:    start,
		DayEnd:      end,
	})

	poolField := poolAddress
	if poolField == "" {
		poolField = "any"
	}
	return Result{
		"type":        actionType,
		"count":       count,
		"date":        date,
		"poolAddress": poolField,
	}, nil
}

func poolArg(args Args) (common.Address, error) {
	value := args.Str("poolAddress")
	if value == "" {
		return common.Address{}, fmt.Errorf("%w: poolAddress", ErrMissingArgument)
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid pool address %q", value)
	}
	return common.HexToAddress(value), nil
}

func (r *Registry) logMutation(ctx context.Context, entry model.ActivityEntry) {
	entry.Timestamp = r.now()
	if err := r.store.Append(ctx, entry); err != nil {
		r.logger.Warn("activity log append failed",
			zap.String("type", entry.Type),
			zap.Error(err),
		)
	}
}
