package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"okinoko-arena/game"
)

// withSession starts the app, connects the wallet and hands the bound
// session to fn.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := start(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.session.Connect(ctx); err != nil {
		return err
	}
	return fn(ctx, a)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the boss and your avatar",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, a *app) error {
			st, err := a.session.Snapshot(ctx)
			if err != nil {
				return err
			}
			printState(cmd.OutOrStdout(), st, a.cfg.IPFSGateway)
			return nil
		})
	},
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the characters that can be minted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, a *app) error {
			templates, err := a.session.LoadTemplates(ctx)
			if err != nil {
				return err
			}
			printTemplates(cmd.OutOrStdout(), templates, a.cfg.IPFSGateway)
			return nil
		})
	},
}

var mintCmd = &cobra.Command{
	Use:   "mint <index>",
	Short: "Mint the character at index as your avatar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("template index %q: %w", args[0], err)
		}
		return withSession(cmd, func(ctx context.Context, a *app) error {
			st, err := a.session.Snapshot(ctx)
			if err != nil {
				return err
			}
			if st.Avatar == nil && len(st.Templates) == 0 {
				if _, err := a.session.LoadTemplates(ctx); err != nil {
					return err
				}
			}
			tx, err := a.session.Mint(ctx, index)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mint submitted: %s\n", tx.Hex())

			st, err = a.session.Await(ctx, func(st game.State) bool {
				return st.Mint == game.MintMinted || st.Mint == game.MintFailed
			})
			if err != nil {
				return err
			}
			if st.Mint == game.MintFailed {
				return st.Err
			}
			printState(out, st, a.cfg.IPFSGateway)
			return nil
		})
	},
}

var attackCmd = &cobra.Command{
	Use:   "attack",
	Short: "Attack the boss with your avatar",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, a *app) error {
			tx, err := a.session.Attack(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "attack submitted: %s\n", tx.Hex())

			st, err := a.session.Await(ctx, func(st game.State) bool {
				return st.Attack != game.AttackAttacking
			})
			if err != nil {
				return err
			}
			if st.Attack != game.AttackHit {
				return st.Err
			}
			printState(out, st, a.cfg.IPFSGateway)
			return nil
		})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the fight until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, a *app) error {
			out := cmd.OutOrStdout()
			var seen uint64
			for {
				st, err := a.session.Await(ctx, func(st game.State) bool { return st.Version > seen })
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return err
				}
				seen = st.Version
				printState(out, st, a.cfg.IPFSGateway)
			}
		})
	},
}
