package actions

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Args is the flat argument mapping of one action invocation.
type Args map[string]any

// Result is the flat mapping an action returns.
type Result map[string]any

// Str coerces an argument to a trimmed string. Plan JSON carries scalars as
// strings or float64.
func (a Args) Str(key string) string {
	value, ok := a[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

// amountDecimals is applied to every user-facing amount regardless of the
// token's declared precision. Known simplification: it matches the
// reference deployment where all test tokens use 18 decimals.
const amountDecimals = 18

// parseAmount converts a user-facing decimal amount to base units.
func parseAmount(value string) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("empty amount")
	}

	parts := strings.SplitN(value, ".", 2)
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > amountDecimals {
		fracPart = fracPart[:amountDecimals]
	}
	fracPart += strings.Repeat("0", amountDecimals-len(fracPart))

	amount, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %q", value)
	}
	return amount, nil
}

var baseUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(amountDecimals), nil)

// formatAmount renders a base-unit amount as a decimal string with
// trailing zeros trimmed.
func formatAmount(amount *big.Int) string {
	quo, rem := new(big.Int).QuoRem(amount, baseUnit, new(big.Int))
	if rem.Sign() == 0 {
		return quo.String()
	}
	frac := strings.TrimRight(fmt.Sprintf("%018s", rem.String()), "0")
	return quo.String() + "." + frac
}
