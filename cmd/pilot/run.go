package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapPilot/internal/plan"
)

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <instruction>",
		Short: "Resolve a natural-language instruction into a plan and execute it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer app.Close()

			resolver, err := app.resolver()
			if err != nil {
				return err
			}

			instruction := strings.Join(args, " ")
			steps, err := resolver.Resolve(ctx, instruction)
			if err != nil {
				return err
			}

			runner := plan.NewRunner(app.registry, app.session, app.logger)
			result := runner.Run(ctx, steps)
			printRun(result)
			return nil
		},
	}

	addCommonFlags(cmd)
	return cmd
}

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <instruction>",
		Short: "Resolve an instruction into a plan without executing it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer app.Close()

			resolver, err := app.resolver()
			if err != nil {
				return err
			}

			steps, err := resolver.Resolve(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(steps, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	addCommonFlags(cmd)
	return cmd
}

// suite runs one instruction per line from a file against a shared session,
// so a selected pool carries across instructions the way it does in a
// conversation.
func newSuiteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suite <file>",
		Short: "Run a file of instructions, one per line, sharing pool context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer app.Close()

			resolver, err := app.resolver()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			runner := plan.NewRunner(app.registry, app.session, app.logger)

			scanner := bufio.NewScanner(f)
			line := 0
			for scanner.Scan() {
				line++
				instruction := strings.TrimSpace(scanner.Text())
				if instruction == "" || strings.HasPrefix(instruction, "#") {
					continue
				}

				fmt.Printf("--- %d: %s\n", line, instruction)
				steps, err := resolver.Resolve(ctx, instruction)
				if err != nil {
					app.logger.Warn("instruction failed to resolve",
						zap.Int("line", line), zap.Error(err))
					continue
				}
				printRun(runner.Run(ctx, steps))
			}
			return scanner.Err()
		},
	}

	addCommonFlags(cmd)
	return cmd
}

func printRun(result plan.RunResult) {
	for _, line := range result.Trace {
		fmt.Println(line)
	}
	if result.Last != nil {
		out, err := json.MarshalIndent(result.Last, "", "  ")
		if err == nil {
			fmt.Println(string(out))
		}
	}
}
