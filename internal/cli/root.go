package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// state is shared by every subcommand of one root command.
type state struct {
	cfg    *Config
	client *Client
}

func (s *state) out(cmd *cobra.Command) *Output {
	return NewOutput(s.cfg.Output, cmd.OutOrStdout())
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	s := &state{cfg: DefaultConfig()}

	rootCmd := &cobra.Command{
		Use:   "playerdatactl",
		Short: "Operator CLI for the playerdata service",
		Long: `playerdatactl inspects and adjusts player coin and star balances
through the playerdata HTTP API.

Authenticate with --token (env: PLAYERDATA_TOKEN). Mint a token locally with
"playerdatactl token" when PLAYERDATA_JWT_SECRET is available.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if s.cfg.Output != "text" && s.cfg.Output != "json" {
				return fmt.Errorf("--output must be text or json, got %q", s.cfg.Output)
			}
			s.client = NewClient(s.cfg.ServerURL, s.cfg.Token, s.cfg.Timeout)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&s.cfg.ServerURL, "server", s.cfg.ServerURL, "Server URL (env: PLAYERDATA_SERVER)")
	rootCmd.PersistentFlags().StringVar(&s.cfg.Token, "token", s.cfg.Token, "Bearer token (env: PLAYERDATA_TOKEN)")
	rootCmd.PersistentFlags().StringVarP(&s.cfg.Output, "output", "o", s.cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().DurationVar(&s.cfg.Timeout, "timeout", s.cfg.Timeout, "Request timeout")

	rootCmd.AddCommand(newTokenCmd(s))
	rootCmd.AddCommand(newIdentityCmd(s))
	rootCmd.AddCommand(newShowCmd(s))
	rootCmd.AddCommand(newRefreshCmd(s))
	rootCmd.AddCommand(newUnloadCmd(s))
	rootCmd.AddCommand(newBalanceCmd(s))
	rootCmd.AddCommand(newHasEnoughCmd(s))
	rootCmd.AddCommand(newCreditCmd(s))
	rootCmd.AddCommand(newWithdrawCmd(s))
	rootCmd.AddCommand(newAdjustCmd(s, "increase", "Raise a balance without multiplier"))
	rootCmd.AddCommand(newAdjustCmd(s, "decrease", "Lower a balance, failing if it would go negative"))
	rootCmd.AddCommand(newProjectionCmd(s))
	rootCmd.AddCommand(newEventsCmd(s))
	rootCmd.AddCommand(newHealthCmd(s))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
