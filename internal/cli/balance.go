package cli

import (
	"fmt"
	"strconv"

	"github.com/attaboy/playerdata/internal/domain"
	"github.com/spf13/cobra"
)

func newBalanceCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <player-id> <coins|stars>",
		Short: "Show one balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := balancePath(args[0], args[1])
			if err != nil {
				return err
			}
			var result Balance
			if err := s.client.Get(cmd.Context(), base, &result); err != nil {
				return err
			}
			s.out(cmd).Print(result)
			return nil
		},
	}
}

func newHasEnoughCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "has-enough <player-id> <coins|stars> <amount>",
		Short: "Check whether a balance covers an amount",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := balancePath(args[0], args[1])
			if err != nil {
				return err
			}
			amount, err := amountArg(args[2])
			if err != nil {
				return err
			}
			var result HasEnough
			if err := s.client.Get(cmd.Context(), base+"/has-enough?amount="+strconv.FormatInt(amount, 10), &result); err != nil {
				return err
			}
			s.out(cmd).Print(result)
			return nil
		},
	}
}

func newCreditCmd(s *state) *cobra.Command {
	var reason string
	var noMultiplier bool

	cmd := &cobra.Command{
		Use:   "credit <player-id> <coins|stars> <amount>",
		Short: "Credit a balance, applying the multiplier unless --no-multiplier",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := balancePath(args[0], args[1])
			if err != nil {
				return err
			}
			amount, err := amountArg(args[2])
			if err != nil {
				return err
			}
			apply := !noMultiplier
			req := map[string]any{"amount": amount, "reason": reason, "apply_multiplier": apply}
			var result Receipt
			if err := s.client.Post(cmd.Context(), base+"/credit", req, &result); err != nil {
				return err
			}
			s.out(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded with the credit")
	cmd.Flags().BoolVar(&noMultiplier, "no-multiplier", false, "Credit the raw amount")

	return cmd
}

func newWithdrawCmd(s *state) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "withdraw <player-id> <coins|stars> <amount>",
		Short: "Withdraw from a balance",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := balancePath(args[0], args[1])
			if err != nil {
				return err
			}
			amount, err := amountArg(args[2])
			if err != nil {
				return err
			}
			req := map[string]any{"amount": amount, "reason": reason}
			var result Receipt
			if err := s.client.Post(cmd.Context(), base+"/withdraw", req, &result); err != nil {
				return err
			}
			s.out(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded with the withdrawal")

	return cmd
}

func newAdjustCmd(s *state, verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <player-id> <coins|stars> <by>",
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := balancePath(args[0], args[1])
			if err != nil {
				return err
			}
			by, err := amountArg(args[2])
			if err != nil {
				return err
			}
			var result Balance
			if err := s.client.Post(cmd.Context(), base+"/"+verb, map[string]int64{"by": by}, &result); err != nil {
				return err
			}
			s.out(cmd).Print(result)
			return nil
		},
	}
}

func newProjectionCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "projection <player-id> <coins|stars>",
		Short: "Show the cached balance projection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := playerArg(args[0])
			if err != nil {
				return err
			}
			c, err := domain.ParseCurrency(args[1])
			if err != nil {
				return err
			}
			var result Balance
			if err := s.client.Get(cmd.Context(), "/projections/"+id+"/"+string(c), &result); err != nil {
				return err
			}
			s.out(cmd).Print(result)
			return nil
		},
	}
}

func balancePath(playerArgValue, currencyArg string) (string, error) {
	id, err := playerArg(playerArgValue)
	if err != nil {
		return "", err
	}
	c, err := domain.ParseCurrency(currencyArg)
	if err != nil {
		return "", err
	}
	return "/players/" + id + "/" + string(c), nil
}

func amountArg(arg string) (int64, error) {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", arg, err)
	}
	if err := domain.ValidateAmount(n); err != nil {
		return 0, err
	}
	return n, nil
}
