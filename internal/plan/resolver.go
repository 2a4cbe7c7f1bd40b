package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"swapPilot/internal/llm"
)

// ErrPlanFormat marks oracle output that cannot be parsed into a plan.
var ErrPlanFormat = errors.New("oracle output is not a valid plan")

const systemPrompt = `You are an API caller.
Return ONLY a JSON array. Each element MUST be:
{ "name": "<selectPool|createPool|deposit|redeem|swap|getReserves|countActions>", "args": { ... } }.
NO code, NO explanations, NO markdown.

For selectPool:
- If the user mentions a pool like 'ETH-USDC', 'USDT and WBTC', or 'AAA-BBB', add a selectPool step with:
    { "symbolA": "...", "symbolB": "..." } or { "poolId": "AAA-BBB" }
- If the user does NOT mention a pool, DO NOT include selectPool or poolAddress.
- NEVER guess or assume the poolAddress or token symbols yourself.

For createPool:
- Use when the user wants to create a new pool with two tokens.
- Return one step: { "name": "createPool", "args": { "tokenA": "0x...", "tokenB": "0x..." } }
- DO NOT guess addresses; only respond if the user gives two valid token addresses.

For deposit:
- Use when the user wants to add liquidity or provide tokens to a pool.
- Arguments: { "amountA": "...", "amountB": "..." }
- If only one amount is provided, set both amountA and amountB to that value.
- Requires pool selection. If a pool is mentioned, use selectPool first.

For redeem:
- Use when the user wants to remove liquidity or withdraw their share.
- Argument: { "percent": "..." } - the percentage of their LP tokens to redeem.
- Must be a number between 1 and 100.
- If the user says 'redeem all', use { "percent": "100" }.
- Requires pool selection. If a pool is mentioned, use selectPool first.

For swap:
- Use swap when the user wants to exchange one token for another.
- Determine intent based on language:

Exact input (most common):
- User says: 'swap 10 TCA for TCB', 'swap 5 TokenA into TokenB', or 'give 8 DAI to get USDC'
- Use: { "fromSymbol": "TCA", "toSymbol": "TCB", "amount": "10" }

Exact output:
- User says: 'I want to get 15 USDT by swapping ETH', or 'receive 6 TCB using TCA'
- Use: { "fromSymbol": "TCA", "toSymbol": "TCB", "amountOut": "6" }

- If the user provides both, include both amount and amountOut; the system prioritizes amount.
- Do NOT assume token0/token1, just use the symbols as given.
- Requires pool selection. Use selectPool first if a pool is mentioned.
- NEVER confuse 'swap 10 A for B' with exact output - it is exact input.

For getReserves:
- Use this when the user asks about current reserves or token composition of a pool.
- If a pool is mentioned, use selectPool first, then call getReserves with { "poolAddress": "$poolAddress" }.
- If the user says 'current pool' or 'selected pool', call getReserves with empty args: { }.
- DO NOT guess poolAddress or hardcode tokens.

For countActions:
- Use this when the user asks how many swaps, deposits, or redeems happened.
- Argument: { "type": "swap" | "deposit" | "redeem" }
- Optionally include "date": "YYYY-MM-DD".
- If a pool is mentioned, use selectPool first and pass poolAddress: "$poolAddress".
- If no pool is mentioned, omit poolAddress.

NEVER fabricate or assume any token symbols or pool addresses. Only act when user input makes it explicit.`

const userPreamble = "Note: I may or may not have selected a pool already. " +
	"If I did not specify pool symbols or IDs explicitly, do NOT inject any pool-related parameters.\n\n"

// Resolver turns a natural-language instruction into an ordered step list.
// It performs exactly one oracle call and no ledger calls.
type Resolver struct {
	client llm.Client
	logger *zap.Logger
}

func NewResolver(client llm.Client, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{client: client, logger: logger}
}

// Resolve asks the oracle for a plan and normalizes the response.
func (r *Resolver) Resolve(ctx context.Context, instruction string) ([]Step, error) {
	raw, err := r.client.Complete(ctx, systemPrompt, userPreamble+strings.TrimSpace(instruction))
	if err != nil {
		return nil, fmt.Errorf("ask oracle: %w", err)
	}

	r.logger.Debug("oracle reply", zap.String("raw", raw))
	return Parse(raw)
}

// Parse decodes oracle text into normalized steps. Accepts a bare JSON
// array or an object carrying a "plan" array, with optional code fences.
func Parse(raw string) ([]Step, error) {
	cleaned := stripFences(raw)

	var parsed any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlanFormat, err)
	}

	var elements []any
	switch v := parsed.(type) {
	case []any:
		elements = v
	case map[string]any:
		inner, ok := v["plan"].([]any)
		if !ok {
			return nil, fmt.Errorf("%w: no plan array found", ErrPlanFormat)
		}
		elements = inner
	default:
		return nil, fmt.Errorf("%w: expected array, got %T", ErrPlanFormat, parsed)
	}

	steps := make([]Step, 0, len(elements))
	for i, element := range elements {
		raw, ok := element.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: step %d is not an object", ErrPlanFormat, i)
		}
		step, ok := normalizeStep(raw)
		if !ok {
			return nil, fmt.Errorf("%w: step %d has no action name", ErrPlanFormat, i)
		}
		steps = append(steps, step)
	}

	return steps, nil
}

func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	lower := strings.ToLower(cleaned)
	if strings.HasPrefix(lower, "```json") {
		cleaned = cleaned[len("```json"):]
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = cleaned[len("```"):]
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}
