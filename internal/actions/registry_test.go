package actions

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"swapPilot/internal/activity"
	"swapPilot/internal/amm"
)

var (
	pairAddr  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	tokenAddr = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	tokenBddr = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func units(n int64) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return new(big.Int).Mul(big.NewInt(n), scale)
}

type transferCall struct {
	token, to common.Address
	amount    *big.Int
}

type swapCall struct {
	pair   common.Address
	a0, a1 *big.Int
}

type fakeLedger struct {
	pairs    []common.Address
	token0   map[common.Address]common.Address
	token1   map[common.Address]common.Address
	symbols  map[common.Address]string
	reserves map[common.Address][2]*big.Int
	balance  map[common.Address]*big.Int
	supply   map[common.Address]*big.Int

	transfers []transferCall
	swaps     []swapCall
	mints     []common.Address
	burns     []common.Address
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		pairs:    []common.Address{pairAddr},
		token0:   map[common.Address]common.Address{pairAddr: tokenAddr},
		token1:   map[common.Address]common.Address{pairAddr: tokenBddr},
		symbols:  map[common.Address]string{tokenAddr: "TCA", tokenBddr: "TCB"},
		reserves: map[common.Address][2]*big.Int{pairAddr: {big.NewInt(0), big.NewInt(0)}},
		balance:  map[common.Address]*big.Int{},
		supply:   map[common.Address]*big.Int{},
	}
}

func (f *fakeLedger) PairCount(context.Context) (uint64, error) {
	return uint64(len(f.pairs)), nil
}

func (f *fakeLedger) PairAt(_ context.Context, index uint64) (common.Address, error) {
	return f.pairs[index], nil
}

func (f *fakeLedger) CreatePair(_ context.Context, tokenA, tokenB common.Address) (string, common.Address, error) {
	pair := common.HexToAddress("0x2222222222222222222222222222222222222222")
	f.pairs = append(f.pairs, pair)
	f.token0[pair] = tokenA
	f.token1[pair] = tokenB
	f.reserves[pair] = [2]*big.Int{big.NewInt(0), big.NewInt(0)}
	return "0xc0ffee", pair, nil
}

func (f *fakeLedger) Token0(_ context.Context, pair common.Address) (common.Address, error) {
	return f.token0[pair], nil
}

func (f *fakeLedger) Token1(_ context.Context, pair common.Address) (common.Address, error) {
	return f.token1[pair], nil
}

func (f *fakeLedger) Reserves(_ context.Context, pair common.Address) (*big.Int, *big.Int, error) {
	r := f.reserves[pair]
	return new(big.Int).Set(r[0]), new(big.Int).Set(r[1]), nil
}

func (f *fakeLedger) LPBalance(_ context.Context, pair common.Address) (*big.Int, error) {
	if bal, ok := f.balance[pair]; ok {
		return new(big.Int).Set(bal), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeLedger) TotalSupply(_ context.Context, pair common.Address) (*big.Int, error) {
	if s, ok := f.supply[pair]; ok {
		return new(big.Int).Set(s), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeLedger) Transfer(_ context.Context, token, to common.Address, amount *big.Int) (string, error) {
	f.transfers = append(f.transfers, transferCall{token: token, to: to, amount: new(big.Int).Set(amount)})
	return "0xfeed", nil
}

func (f *fakeLedger) Mint(_ context.Context, pair common.Address) (string, error) {
	f.mints = append(f.mints, pair)
	return "0xabc1", nil
}

func (f *fakeLedger) Burn(_ context.Context, pair common.Address) (string, error) {
	f.burns = append(f.burns, pair)
	return "0xabc2", nil
}

func (f *fakeLedger) Swap(_ context.Context, pair common.Address, amount0Out, amount1Out *big.Int) (string, error) {
	f.swaps = append(f.swaps, swapCall{pair: pair, a0: new(big.Int).Set(amount0Out), a1: new(big.Int).Set(amount1Out)})
	return "0xabc3", nil
}

func (f *fakeLedger) TokenSymbol(_ context.Context, token common.Address) (string, error) {
	return f.symbols[token], nil
}

func newTestRegistry() (*Registry, *fakeLedger, *activity.MemoryStore) {
	ledger := newFakeLedger()
	store := activity.NewMemoryStore()
	registry := New(ledger, store, nil)
	registry.now = func() time.Time {
		return time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local)
	}
	return registry, ledger, store
}

func TestSelectPoolBySymbols(t *testing.T) {
	registry, _, _ := newTestRegistry()

	for _, args := range []Args{
		{"symbolA": "TCA", "symbolB": "TCB"},
		{"symbolA": "tcb", "symbolB": "tca"}, // either order, any case
		{"poolId": "TCA-TCB"},
	} {
		result, err := registry.Execute(context.Background(), "selectPool", args)
		if err != nil {
			t.Fatalf("selectPool %v: %v", args, err)
		}
		if result["poolAddress"] != pairAddr.Hex() {
			t.Fatalf("pool mismatch: %v", result["poolAddress"])
		}
	}
}

func TestSelectPoolByAddress(t *testing.T) {
	registry, _, _ := newTestRegistry()

	result, err := registry.Execute(context.Background(), "selectPool", Args{"poolId": pairAddr.Hex()})
	if err != nil {
		t.Fatalf("selectPool: %v", err)
	}
	if result["poolAddress"] != pairAddr.Hex() {
		t.Fatalf("pool mismatch: %v", result["poolAddress"])
	}
}

func TestSelectPoolNotFound(t *testing.T) {
	registry, _, _ := newTestRegistry()

	_, err := registry.Execute(context.Background(), "selectPool", Args{"symbolA": "TCA", "symbolB": "NOPE"})
	if !errors.Is(err, ErrPoolNotFound) {
		t.Fatalf("expected ErrPoolNotFound, got %v", err)
	}
}

func TestDepositEmptyPoolUsesBothAmounts(t *testing.T) {
	registry, ledger, store := newTestRegistry()

	result, err := registry.Execute(context.Background(), "deposit", Args{
		"poolAddress": pairAddr.Hex(),
		"amountA":     "100",
		"amountB":     "50",
	})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if result["deposited"] != true {
		t.Fatalf("result mismatch: %v", result)
	}

	if len(ledger.transfers) != 2 {
		t.Fatalf("transfer count mismatch: %d", len(ledger.transfers))
	}
	if ledger.transfers[0].amount.Cmp(units(100)) != 0 || ledger.transfers[1].amount.Cmp(units(50)) != 0 {
		t.Fatalf("amounts mismatch: %s / %s", ledger.transfers[0].amount, ledger.transfers[1].amount)
	}
	if len(ledger.mints) != 1 {
		t.Fatalf("mint not called")
	}

	entries, _ := store.ReadAll(context.Background())
	if len(entries) != 1 || entries[0].Type != "deposit" || entries[0].TxHash != "0xabc1" {
		t.Fatalf("activity entry mismatch: %+v", entries)
	}
}

func TestDepositKeepsPoolRatio(t *testing.T) {
	registry, ledger, _ := newTestRegistry()
	ledger.reserves[pairAddr] = [2]*big.Int{units(1000), units(500)}

	if _, err := registry.Execute(context.Background(), "deposit", Args{
		"poolAddress": pairAddr.Hex(),
		"amountA":     "100",
		"amountB":     "999", // ignored for a non-empty pool
	}); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	// amountB recomputed as floor(100 * 500 / 1000) = 50
	if ledger.transfers[1].amount.Cmp(units(50)) != 0 {
		t.Fatalf("token1 amount mismatch: %s", ledger.transfers[1].amount)
	}
}

func TestDepositOneSidedPoolFails(t *testing.T) {
	registry, ledger, store := newTestRegistry()
	ledger.reserves[pairAddr] = [2]*big.Int{big.NewInt(0), units(500)}

	_, err := registry.Execute(context.Background(), "deposit", Args{
		"poolAddress": pairAddr.Hex(),
		"amountA":     "100",
		"amountB":     "50",
	})
	if !errors.Is(err, amm.ErrInsufficientLiquidity) {
		t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
	}

	if len(ledger.transfers) != 0 || len(ledger.mints) != 0 {
		t.Fatalf("one-sided deposit must not touch the ledger: %d transfers, %d mints",
			len(ledger.transfers), len(ledger.mints))
	}
	entries, _ := store.ReadAll(context.Background())
	if len(entries) != 0 {
		t.Fatalf("failed deposit must not be logged: %+v", entries)
	}
}

func TestRedeemInvalidPercent(t *testing.T) {
	registry, ledger, store := newTestRegistry()

	for _, percent := range []string{"0", "101", "-5", "abc"} {
		_, err := registry.Execute(context.Background(), "redeem", Args{
			"poolAddress": pairAddr.Hex(),
			"percent":     percent,
		})
		if !errors.Is(err, ErrInvalidPercent) {
			t.Fatalf("percent %q: expected ErrInvalidPercent, got %v", percent, err)
		}
	}

	if len(ledger.transfers) != 0 || len(ledger.burns) != 0 {
		t.Fatalf("ledger touched on invalid percent")
	}
	entries, _ := store.ReadAll(context.Background())
	if len(entries) != 0 {
		t.Fatalf("activity logged on invalid percent")
	}
}

func TestRedeemComputesWithdrawnAmounts(t *testing.T) {
	registry, ledger, store := newTestRegistry()
	ledger.reserves[pairAddr] = [2]*big.Int{units(1000), units(500)}
	ledger.balance[pairAddr] = units(100)
	ledger.supply[pairAddr] = units(1000)

	result, err := registry.Execute(context.Background(), "redeem", Args{
		"poolAddress": pairAddr.Hex(),
		"percent":     "50",
	})
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if result["redeemed"] != true {
		t.Fatalf("result mismatch: %v", result)
	}

	// lp = 100 * 50 / 100 = 50; amounts = 50 * reserve / 1000
	if ledger.transfers[0].amount.Cmp(units(50)) != 0 {
		t.Fatalf("lp transfer mismatch: %s", ledger.transfers[0].amount)
	}
	entries, _ := store.ReadAll(context.Background())
	if len(entries) != 1 {
		t.Fatalf("activity entry missing")
	}
	if entries[0].Amount0 != units(50).String() || entries[0].Amount1 != units(25).String() {
		t.Fatalf("withdrawn amounts mismatch: %s / %s", entries[0].Amount0, entries[0].Amount1)
	}
}

func TestSwapExactInput(t *testing.T) {
	registry, ledger, store := newTestRegistry()
	ledger.reserves[pairAddr] = [2]*big.Int{units(1000), units(1000)}

	result, err := registry.Execute(context.Background(), "swap", Args{
		"poolAddress": pairAddr.Hex(),
		"fromSymbol":  "TCA",
		"toSymbol":    "TCB",
		"amount":      "100",
	})
	if err != nil {
		t.Fatalf("swap: %v", err)
	}

	wantOut, err := amm.SwapExactInput(units(1000), units(1000), units(100))
	if err != nil {
		t.Fatalf("formula: %v", err)
	}
	if result["output"] != wantOut.String() {
		t.Fatalf("output mismatch: %v, want %s", result["output"], wantOut)
	}
	if result["input"] != units(100).String() {
		t.Fatalf("input mismatch: %v", result["input"])
	}

	// TCA is token0, so output leaves on the token1 side
	if len(ledger.swaps) != 1 || ledger.swaps[0].a0.Sign() != 0 || ledger.swaps[0].a1.Cmp(wantOut) != 0 {
		t.Fatalf("swap call mismatch: %+v", ledger.swaps)
	}
	if ledger.transfers[0].token != tokenAddr || ledger.transfers[0].amount.Cmp(units(100)) != 0 {
		t.Fatalf("input transfer mismatch: %+v", ledger.transfers[0])
	}

	entries, _ := store.ReadAll(context.Background())
	if len(entries) != 1 || entries[0].Type != "swap" {
		t.Fatalf("activity entry mismatch: %+v", entries)
	}
}

func TestSwapExactOutputReverseDirection(t *testing.T) {
	registry, ledger, _ := newTestRegistry()
	ledger.reserves[pairAddr] = [2]*big.Int{units(1000), units(1000)}

	result, err := registry.Execute(context.Background(), "swap", Args{
		"poolAddress": pairAddr.Hex(),
		"fromSymbol":  "tcb",
		"toSymbol":    "tca",
		"amountOut":   "90",
	})
	if err != nil {
		t.Fatalf("swap: %v", err)
	}

	wantIn, err := amm.SwapExactOutput(units(1000), units(1000), units(90))
	if err != nil {
		t.Fatalf("formula: %v", err)
	}
	if result["input"] != wantIn.String() {
		t.Fatalf("input mismatch: %v, want %s", result["input"], wantIn)
	}

	// TCB is token1, so output leaves on the token0 side
	if ledger.swaps[0].a0.Cmp(units(90)) != 0 || ledger.swaps[0].a1.Sign() != 0 {
		t.Fatalf("swap call mismatch: %+v", ledger.swaps[0])
	}
	if ledger.transfers[0].token != tokenBddr {
		t.Fatalf("input token mismatch: %s", ledger.transfers[0].token.Hex())
	}
}

func TestSwapPairMismatch(t *testing.T) {
	registry, _, _ := newTestRegistry()

	_, err := registry.Execute(context.Background(), "swap", Args{
		"poolAddress": pairAddr.Hex(),
		"fromSymbol":  "TCA",
		"toSymbol":    "USDC",
		"amount":      "1",
	})
	if !errors.Is(err, ErrPairMismatch) {
		t.Fatalf("expected ErrPairMismatch, got %v", err)
	}
}

func TestSwapMissingAmount(t *testing.T) {
	registry, _, _ := newTestRegistry()

	_, err := registry.Execute(context.Background(), "swap", Args{
		"poolAddress": pairAddr.Hex(),
		"fromSymbol":  "TCA",
		"toSymbol":    "TCB",
	})
	if !errors.Is(err, ErrMissingArgument) {
		t.Fatalf("expected ErrMissingArgument, got %v", err)
	}
}

func TestSwapDrainRejected(t *testing.T) {
	registry, ledger, _ := newTestRegistry()
	ledger.reserves[pairAddr] = [2]*big.Int{units(1000), units(1000)}

	_, err := registry.Execute(context.Background(), "swap", Args{
		"poolAddress": pairAddr.Hex(),
		"fromSymbol":  "TCA",
		"toSymbol":    "TCB",
		"amountOut":   "1000",
	})
	if !errors.Is(err, amm.ErrInsufficientLiquidity) {
		t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
	}
	if len(ledger.transfers) != 0 {
		t.Fatalf("transfer attempted on failed swap")
	}
}

func TestGetReserves(t *testing.T) {
	registry, ledger, _ := newTestRegistry()
	ledger.reserves[pairAddr] = [2]*big.Int{units(1000), units(500)}

	result, err := registry.Execute(context.Background(), "getReserves", Args{"poolAddress": pairAddr.Hex()})
	if err != nil {
		t.Fatalf("getReserves: %v", err)
	}

	reserves, ok := result["reserves"].(map[string]string)
	if !ok {
		t.Fatalf("reserves type mismatch: %T", result["reserves"])
	}
	if reserves["TCA"] != "1000" || reserves["TCB"] != "500" {
		t.Fatalf("reserves mismatch: %v", reserves)
	}
	if result["token0"] != "TCA" || result["token1"] != "TCB" {
		t.Fatalf("symbols mismatch: %v", result)
	}
}

func TestCountActionsEmpty(t *testing.T) {
	registry, _, _ := newTestRegistry()

	result, err := registry.Execute(context.Background(), "countActions", Args{"type": "swap"})
	if err != nil {
		t.Fatalf("countActions: %v", err)
	}
	if result["count"] != 0 {
		t.Fatalf("count mismatch: %v", result["count"])
	}
	if result["date"] != "2026-08-30" {
		t.Fatalf("defaulted date mismatch: %v", result["date"])
	}
	if result["poolAddress"] != "any" {
		t.Fatalf("pool field mismatch: %v", result["poolAddress"])
	}
}

func TestCountActionsFiltersByPoolAndDay(t *testing.T) {
	registry, ledger, _ := newTestRegistry()
	ledger.reserves[pairAddr] = [2]*big.Int{units(1000), units(1000)}

	for i := 0; i < 3; i++ {
		if _, err := registry.Execute(context.Background(), "swap", Args{
			"poolAddress": pairAddr.Hex(),
			"fromSymbol":  "TCA",
			"toSymbol":    "TCB",
			"amount":      "1",
		}); err != nil {
			t.Fatalf("swap %d: %v", i, err)
		}
	}

	result, err := registry.Execute(context.Background(), "countActions", Args{
		"type":        "swap",
		"poolAddress": pairAddr.Hex(),
	})
	if err != nil {
		t.Fatalf("countActions: %v", err)
	}
	if result["count"] != 3 {
		t.Fatalf("count mismatch: %v", result["count"])
	}

	result, err = registry.Execute(context.Background(), "countActions", Args{
		"type": "swap",
		"date": "2026-08-29",
	})
	if err != nil {
		t.Fatalf("countActions: %v", err)
	}
	if result["count"] != 0 {
		t.Fatalf("previous day should have no entries: %v", result["count"])
	}
	if result["date"] != "2026-08-29" {
		t.Fatalf("explicit date not echoed: %v", result["date"])
	}
}

func TestCountActionsAnyPool(t *testing.T) {
	registry, ledger, _ := newTestRegistry()
	ledger.reserves[pairAddr] = [2]*big.Int{units(1000), units(1000)}

	if _, err := registry.Execute(context.Background(), "swap", Args{
		"poolAddress": pairAddr.Hex(),
		"fromSymbol":  "TCA",
		"toSymbol":    "TCB",
		"amount":      "1",
	}); err != nil {
		t.Fatalf("swap: %v", err)
	}

	result, err := registry.Execute(context.Background(), "countActions", Args{
		"type":        "swap",
		"poolAddress": "any",
	})
	if err != nil {
		t.Fatalf("countActions: %v", err)
	}
	if result["count"] != 1 {
		t.Fatalf("any should match every pool: %v", result["count"])
	}
	if result["poolAddress"] != "any" {
		t.Fatalf("pool field mismatch: %v", result["poolAddress"])
	}
}

func TestUndefinedAction(t *testing.T) {
	registry, _, _ := newTestRegistry()

	_, err := registry.Execute(context.Background(), "teleport", Args{})
	if !errors.Is(err, ErrUndefinedAction) {
		t.Fatalf("expected ErrUndefinedAction, got %v", err)
	}
}

func TestCreatePool(t *testing.T) {
	registry, _, _ := newTestRegistry()

	result, err := registry.Execute(context.Background(), "createPool", Args{
		"tokenA": tokenAddr.Hex(),
		"tokenB": tokenBddr.Hex(),
	})
	if err != nil {
		t.Fatalf("createPool: %v", err)
	}
	if result["txHash"] != "0xc0ffee" {
		t.Fatalf("tx hash mismatch: %v", result["txHash"])
	}
	if result["poolAddress"] != common.HexToAddress("0x2222222222222222222222222222222222222222").Hex() {
		t.Fatalf("pool mismatch: %v", result["poolAddress"])
	}
}
