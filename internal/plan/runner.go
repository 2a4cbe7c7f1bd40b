package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"swapPilot/internal/actions"
)

// Executor invokes one named action. Satisfied by *actions.Registry.
type Executor interface {
	Execute(ctx context.Context, name string, args actions.Args) (actions.Result, error)
}

// poolScoped actions get the session pool injected when the plan does not
// name one.
var poolScoped = map[string]bool{
	"deposit":      true,
	"redeem":       true,
	"swap":         true,
	"countActions": true,
	"getReserves":  true,
}

// placeholderSigil prefixes arguments resolved from the previous result.
const placeholderSigil = "$"

// RunResult is the terminal state of a plan run.
type RunResult struct {
	// Last is the result of the last successful step.
	Last actions.Result
	// PoolAddress is the pool resolved during the run, if any.
	PoolAddress string
	// Trace holds one human-readable line per attempted step.
	Trace []string
}

// Runner executes steps strictly in sequence: each step's result may feed
// the next. A failed step is recorded and skipped, never fatal.
type Runner struct {
	registry Executor
	session  *Session
	logger   *zap.Logger
	now      func() time.Time
}

func NewRunner(registry Executor, session *Session, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		registry: registry,
		session:  session,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes the plan. The resolved pool, when one appears, is injected
// into later pool-scoped steps and written back to the session at the end.
func (r *Runner) Run(ctx context.Context, steps []Step) RunResult {
	runID := uuid.NewString()
	logger := r.logger.With(zap.String("run_id", runID))

	last := actions.Result{}
	poolAddress := ""
	var trace []string

	for i, step := range steps {
		args := make(actions.Args, len(step.Args))
		for key, value := range step.Args {
			args[key] = value
		}

		// $field placeholders resolve against the previous result
		for key, value := range args {
			if s, ok := value.(string); ok && strings.HasPrefix(s, placeholderSigil) {
				args[key] = last[strings.TrimPrefix(s, placeholderSigil)]
			}
		}

		if poolScoped[step.Name] && args.Str("poolAddress") == "" {
			pool := poolAddress
			if pool == "" && r.session != nil {
				pool = r.session.Pool()
			}
			if pool != "" {
				args["poolAddress"] = pool
			}
		}

		if step.Name == "countActions" && args.Str("date") == "" {
			args["date"] = r.now().Format("2006-01-02")
		}

		trace = append(trace, fmt.Sprintf("> %s %s", step.Name, compactJSON(args)))

		result, err := r.registry.Execute(ctx, step.Name, args)
		if err != nil {
			trace = append(trace, fmt.Sprintf("! %s failed: %v", step.Name, err))
			logger.Warn("step failed",
				zap.Int("step", i),
				zap.String("action", step.Name),
				zap.Error(err),
			)
			continue
		}

		trace = append(trace, fmt.Sprintf("= %s %s", step.Name, compactJSON(result)))
		logger.Info("step done",
			zap.Int("step", i),
			zap.String("action", step.Name),
		)

		last = result
		if pool, ok := result["poolAddress"].(string); ok && pool != "" {
			poolAddress = pool
		}
	}

	if poolAddress != "" && r.session != nil {
		r.session.SetPool(poolAddress)
	}

	return RunResult{Last: last, PoolAddress: poolAddress, Trace: trace}
}

func compactJSON(value any) string {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(encoded)
}
