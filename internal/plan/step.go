package plan

// Step is one planned action invocation.
type Step struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Oracle output drifts on field names. These are the accepted aliases,
// checked in order.
var (
	nameAliases = []string{"name", "action", "func", "functionName"}
	argAliases  = []string{"args", "arguments", "params"}
)

// normalizeStep maps one raw plan element onto a Step, applying the alias
// tables and per-action argument renames.
func normalizeStep(raw map[string]any) (Step, bool) {
	step := Step{Args: map[string]any{}}

	for _, key := range nameAliases {
		if name, ok := raw[key].(string); ok && name != "" {
			step.Name = name
			break
		}
	}
	if step.Name == "" {
		return Step{}, false
	}

	for _, key := range argAliases {
		if args, ok := raw[key].(map[string]any); ok {
			for k, v := range args {
				step.Args[k] = v
			}
			break
		}
	}

	// redeem takes a percentage; oracles often call it "amount"
	if step.Name == "redeem" {
		if _, hasPercent := step.Args["percent"]; !hasPercent {
			if amount, hasAmount := step.Args["amount"]; hasAmount {
				step.Args["percent"] = amount
				delete(step.Args, "amount")
			}
		}
	}

	return step, true
}
