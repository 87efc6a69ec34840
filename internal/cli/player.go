package cli

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newIdentityCmd(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Player identity commands",
	}
	cmd.AddCommand(newIdentitySetCmd(s))
	return cmd
}

func newIdentitySetCmd(s *state) *cobra.Command {
	var name, nickname string

	cmd := &cobra.Command{
		Use:   "set <player-id>",
		Short: "Create or update a player's names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := playerArg(args[0])
			if err != nil {
				return err
			}
			req := map[string]string{"effective_name": name, "custom_name": nickname}
			var result Player
			if err := s.client.Put(cmd.Context(), "/players/"+id, req, &result); err != nil {
				return err
			}
			s.out(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Effective name (required)")
	cmd.Flags().StringVar(&nickname, "nickname", "", "Custom name; empty clears it")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newShowCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "show <player-id>",
		Short: "Show identity and balances, loading the player if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := playerArg(args[0])
			if err != nil {
				return err
			}
			var result Player
			if err := s.client.Get(cmd.Context(), "/players/"+id, &result); err != nil {
				return err
			}
			s.out(cmd).Print(result)
			return nil
		},
	}
}

func newRefreshCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <player-id>",
		Short: "Reload a player from storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := playerArg(args[0])
			if err != nil {
				return err
			}
			var result Player
			if err := s.client.Post(cmd.Context(), "/players/"+id+"/refresh", nil, &result); err != nil {
				return err
			}
			s.out(cmd).Print(result)
			return nil
		},
	}
}

func newUnloadCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "unload <player-id>",
		Short: "Drop a player's in-memory account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := playerArg(args[0])
			if err != nil {
				return err
			}
			var result Unloaded
			if err := s.client.Delete(cmd.Context(), "/players/"+id, &result); err != nil {
				return err
			}
			s.out(cmd).Print(result)
			return nil
		},
	}
}

func playerArg(arg string) (string, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return "", fmt.Errorf("invalid player id %q: %w", arg, err)
	}
	return url.PathEscape(id.String()), nil
}
