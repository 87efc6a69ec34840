package cli

import (
	"github.com/spf13/cobra"
)

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func newHealthCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult
			if err := s.client.Get(cmd.Context(), "/health", &result); err != nil {
				return err
			}
			s.out(cmd).Print(result)
			return nil
		},
	}
}
