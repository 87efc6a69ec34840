package cli

import (
	"fmt"
	"time"

	"github.com/attaboy/playerdata/internal/auth"
	"github.com/spf13/cobra"
)

func newTokenCmd(s *state) *cobra.Command {
	var realm, subject, role string
	var expiry time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a JWT signed with PLAYERDATA_JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			if s.cfg.JWTSecret == "" {
				return fmt.Errorf("PLAYERDATA_JWT_SECRET is not set")
			}
			mgr := auth.NewJWTManager(s.cfg.JWTSecret, expiry, expiry)
			token, err := mgr.GenerateToken(auth.Realm(realm), subject, role)
			if err != nil {
				return err
			}
			s.out(cmd).Print(Token{Token: token})
			return nil
		},
	}

	cmd.Flags().StringVar(&realm, "realm", string(auth.RealmAdmin), "Realm: server or admin")
	cmd.Flags().StringVar(&subject, "subject", "playerdatactl", "Token subject")
	cmd.Flags().StringVar(&role, "role", auth.RoleOperator, "Admin role: viewer or operator")
	cmd.Flags().DurationVar(&expiry, "expiry", time.Hour, "Token lifetime")

	return cmd
}
