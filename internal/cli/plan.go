package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"andy.dev/again"
	"andy.dev/again/backoff"
)

func newPlanCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the delay schedule of each policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadChain(v)
			if err != nil {
				return err
			}
			chain, err := f.Chain()
			if err != nil {
				return err
			}
			printPlan(cmd, chain.Policies(), v.GetInt("attempts"))
			return nil
		},
	}
	cmd.Flags().Int("attempts", 0, WrapString("Number of retries to print per policy. Zero prints every retry the policy allows"))
	return cmd
}

func printPlan(cmd *cobra.Command, policies []again.Policy, attempts int) {
	out := cmd.OutOrStdout()
	for _, p := range policies {
		kinds := make([]string, len(p.Kinds))
		for i, k := range p.Kinds {
			kinds[i] = k.String()
		}
		fmt.Fprintf(out, "\n%s\n", strings.ToUpper(p.Name))
		fmt.Fprintf(out, "  %-22s: %s\n", "Kinds", strings.Join(kinds, ", "))
		fmt.Fprintf(out, "  %-22s: %d\n", "Max Attempts", p.MaxAttempts)

		// a policy allowing n attempts retries n-1 times
		n := p.MaxAttempts - 1
		if attempts > 0 {
			n = min(n, attempts)
		}
		var total time.Duration
		for i, d := range backoff.Schedule(p.Delay, n) {
			total += d
			fmt.Fprintf(out, "  retry %-16d: %-12v (total %v)\n", i+1, d, total)
		}
	}
}
