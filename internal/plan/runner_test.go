package plan

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"swapPilot/internal/actions"
)

type recordedCall struct {
	name string
	args actions.Args
}

type fakeExecutor struct {
	results map[string]actions.Result
	fail    map[string]error
	calls   []recordedCall
}

func (f *fakeExecutor) Execute(_ context.Context, name string, args actions.Args) (actions.Result, error) {
	f.calls = append(f.calls, recordedCall{name: name, args: args})
	if err, ok := f.fail[name]; ok {
		return nil, err
	}
	if result, ok := f.results[name]; ok {
		return result, nil
	}
	return actions.Result{}, nil
}

func TestRunnerSubstitutesPlaceholders(t *testing.T) {
	executor := &fakeExecutor{
		results: map[string]actions.Result{
			"createPool":  {"txHash": "0xc0ffee", "poolAddress": "0xPOOL"},
			"getReserves": {"poolAddress": "0xPOOL"},
		},
	}
	runner := NewRunner(executor, NewSession(), nil)

	result := runner.Run(context.Background(), []Step{
		{Name: "createPool", Args: map[string]any{"tokenA": "0xa", "tokenB": "0xb"}},
		{Name: "getReserves", Args: map[string]any{"poolAddress": "$poolAddress"}},
	})

	if len(executor.calls) != 2 {
		t.Fatalf("call count mismatch: %d", len(executor.calls))
	}
	if executor.calls[1].args["poolAddress"] != "0xPOOL" {
		t.Fatalf("placeholder not substituted: %v", executor.calls[1].args)
	}
	if result.PoolAddress != "0xPOOL" {
		t.Fatalf("resolved pool mismatch: %q", result.PoolAddress)
	}
}

func TestRunnerInjectsRunPool(t *testing.T) {
	executor := &fakeExecutor{
		results: map[string]actions.Result{
			"selectPool": {"poolAddress": "0xSELECTED"},
		},
	}
	runner := NewRunner(executor, NewSession(), nil)

	runner.Run(context.Background(), []Step{
		{Name: "selectPool", Args: map[string]any{"symbolA": "TCA", "symbolB": "TCB"}},
		{Name: "deposit", Args: map[string]any{"amountA": "1", "amountB": "1"}},
	})

	if executor.calls[1].args["poolAddress"] != "0xSELECTED" {
		t.Fatalf("run pool not injected: %v", executor.calls[1].args)
	}
}

func TestRunnerFallsBackToSessionPool(t *testing.T) {
	executor := &fakeExecutor{}
	session := NewSession()
	session.SetPool("0xFROMSESSION")
	runner := NewRunner(executor, session, nil)

	runner.Run(context.Background(), []Step{
		{Name: "getReserves", Args: map[string]any{}},
	})

	if executor.calls[0].args["poolAddress"] != "0xFROMSESSION" {
		t.Fatalf("session pool not injected: %v", executor.calls[0].args)
	}
}

func TestRunnerDoesNotInjectForUnscopedActions(t *testing.T) {
	executor := &fakeExecutor{}
	session := NewSession()
	session.SetPool("0xFROMSESSION")
	runner := NewRunner(executor, session, nil)

	runner.Run(context.Background(), []Step{
		{Name: "createPool", Args: map[string]any{"tokenA": "0xa", "tokenB": "0xb"}},
	})

	if _, ok := executor.calls[0].args["poolAddress"]; ok {
		t.Fatalf("pool injected into createPool: %v", executor.calls[0].args)
	}
}

func TestRunnerContinuesAfterStepFailure(t *testing.T) {
	executor := &fakeExecutor{
		fail: map[string]error{"deposit": fmt.Errorf("insufficient balance")},
		results: map[string]actions.Result{
			"getReserves": {"token0": "TCA", "poolAddress": "0xPOOL"},
		},
	}
	runner := NewRunner(executor, NewSession(), nil)

	result := runner.Run(context.Background(), []Step{
		{Name: "deposit", Args: map[string]any{"poolAddress": "0xPOOL", "amountA": "1", "amountB": "1"}},
		{Name: "getReserves", Args: map[string]any{"poolAddress": "0xPOOL"}},
	})

	if len(executor.calls) != 2 {
		t.Fatalf("second step not attempted after failure: %d calls", len(executor.calls))
	}
	if result.Last["token0"] != "TCA" {
		t.Fatalf("last result should be the surviving step's: %v", result.Last)
	}

	failed := false
	for _, line := range result.Trace {
		if strings.Contains(line, "deposit failed") {
			failed = true
		}
	}
	if !failed {
		t.Fatalf("failure not traced: %v", result.Trace)
	}
}

func TestRunnerWritesPoolBackToSession(t *testing.T) {
	executor := &fakeExecutor{
		results: map[string]actions.Result{
			"selectPool": {"poolAddress": "0xSELECTED"},
		},
	}
	session := NewSession()
	runner := NewRunner(executor, session, nil)

	runner.Run(context.Background(), []Step{
		{Name: "selectPool", Args: map[string]any{"poolId": "TCA-TCB"}},
	})

	if session.Pool() != "0xSELECTED" {
		t.Fatalf("session not updated: %q", session.Pool())
	}
}

func TestRunnerDefaultsCountDate(t *testing.T) {
	executor := &fakeExecutor{}
	runner := NewRunner(executor, NewSession(), nil)
	runner.now = func() time.Time {
		return time.Date(2026, 8, 30, 9, 0, 0, 0, time.Local)
	}

	runner.Run(context.Background(), []Step{
		{Name: "countActions", Args: map[string]any{"type": "swap", "poolAddress": "0xPOOL"}},
	})

	if executor.calls[0].args["date"] != "2026-08-30" {
		t.Fatalf("date not defaulted: %v", executor.calls[0].args)
	}
}

func TestRunnerDoesNotMutatePlanSteps(t *testing.T) {
	executor := &fakeExecutor{
		results: map[string]actions.Result{
			"createPool": {"poolAddress": "0xPOOL"},
		},
	}
	runner := NewRunner(executor, NewSession(), nil)

	steps := []Step{
		{Name: "createPool", Args: map[string]any{"tokenA": "0xa", "tokenB": "0xb"}},
		{Name: "getReserves", Args: map[string]any{"poolAddress": "$poolAddress"}},
	}
	runner.Run(context.Background(), steps)

	if steps[1].Args["poolAddress"] != "$poolAddress" {
		t.Fatalf("plan step mutated: %v", steps[1].Args)
	}
}
