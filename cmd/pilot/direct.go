package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"swapPilot/internal/actions"
	"swapPilot/internal/dex"
	"swapPilot/internal/model"
)

func newExecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <action> [key=value ...]",
		Short: "Execute a single action directly",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			ctx := cmd.Context()

			name := argv[0]
			known := false
			for _, n := range actions.Names {
				if n == name {
					known = true
					break
				}
			}
			if !known {
				return fmt.Errorf("unknown action %q (valid: %s)", name, strings.Join(actions.Names, ", "))
			}

			args := actions.Args{}
			for _, kv := range argv[1:] {
				key, value, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("argument %q is not key=value", kv)
				}
				args[key] = value
			}

			app, err := newApp(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.registry.Execute(ctx, name, args)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
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

func newPoolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pools",
		Short: "List factory pools with token symbols and reserves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer app.Close()

			count, err := app.contracts.PairCount(ctx)
			if err != nil {
				return err
			}

			for i := uint64(0); i < count; i++ {
				pair, err := app.contracts.PairAt(ctx, i)
				if err != nil {
					return err
				}

				result, err := app.registry.Execute(ctx, "getReserves", actions.Args{
					"poolAddress": pair.Hex(),
				})
				if err != nil {
					fmt.Printf("%s  (unreadable: %v)\n", pair.Hex(), err)
					continue
				}

				symbol0, _ := result["token0"].(string)
				symbol1, _ := result["token1"].(string)
				view := model.PairView{
					Address: pair.Hex(),
					Symbol0: symbol0,
					Symbol1: symbol1,
				}
				if reserves, ok := result["reserves"].(map[string]string); ok {
					view.Reserve0 = reserves[view.Symbol0]
					view.Reserve1 = reserves[view.Symbol1]
				}

				fmt.Printf("%s  %s-%s  %s / %s\n",
					view.Address, view.Symbol0, view.Symbol1, view.Reserve0, view.Reserve1)
			}
			if count == 0 {
				fmt.Println("no pools")
			}
			return nil
		},
	}

	addCommonFlags(cmd)
	return cmd
}

func newTokensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Scan factory pools and list distinct tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer app.Close()

			registry := dex.NewRegistry(app.contracts, app.logger)
			if err := registry.Rebuild(ctx); err != nil {
				return err
			}

			for _, token := range registry.Tokens() {
				fmt.Printf("%-12s %-24s %s (decimals=%d)\n",
					token.Symbol, token.Name, token.Address, token.Decimals)
			}
			if skipped := registry.Skipped(); skipped > 0 {
				fmt.Printf("skipped %d tokens with unreadable metadata\n", skipped)
			}
			return nil
		},
	}

	addCommonFlags(cmd)
	return cmd
}

func newCountCmd() *cobra.Command {
	var (
		actionType string
		pool       string
		date       string
	)

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count logged actions for a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer app.Close()

			callArgs := actions.Args{
				"type":        actionType,
				"poolAddress": pool,
			}
			if date != "" {
				callArgs["date"] = date
			}

			result, err := app.registry.Execute(ctx, "countActions", callArgs)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&actionType, "type", "swap", "action type to count")
	cmd.Flags().StringVar(&pool, "pool", "any", "pool address, or any")
	cmd.Flags().StringVar(&date, "date", "", "day to count (YYYY-MM-DD, defaults to today)")
	addCommonFlags(cmd)
	return cmd
}
