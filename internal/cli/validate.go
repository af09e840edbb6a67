package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newValidateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a chain definition and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadChain(v)
			if err != nil {
				return err
			}
			chain, err := f.Chain()
			if err != nil {
				slog.Error("Invalid chain", "error", err)
				return err
			}

			for _, k := range chain.NonTransient() {
				p, _ := chain.Claims(k)
				slog.Warn("Policy retries a non-transient kind", "policy", p.Name, "kind", k.String())
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, f)
			fmt.Fprintf(out, "\n%s\n", chain)
			return nil
		},
	}
}
