package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"andy.dev/again"
	"andy.dev/again/internal/script"
	"andy.dev/again/observe"
)

func newSimulateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a scripted operation through the chain",
		Long: `Run a scripted operation through the chain, logging every retry.

The script is a comma separated list of steps, one per attempt: a failure
kind, optionally repeated with *count, "ok" for success or "hang" for an
attempt that blocks until it is cancelled. The last step repeats.

  again simulate --script "overloaded*2,conflict,ok" --executions 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSimulate(ctx, cmd, v)
		},
	}
	cmd.Flags().String("script", "ok", WrapString("Failure script played by every execution"))
	cmd.Flags().Int("executions", 1, WrapString("Number of executions to run"))
	cmd.Flags().Int("concurrency", 1, WrapString("Number of executions to run at once, all sharing one chain"))
	cmd.Flags().Duration("timeout", 0, WrapString("Timeout of each execution, overriding the chain definition"))
	cmd.Flags().Bool("dump-metrics", false, WrapString("Print the go-metrics registry after the summary"))
	cmd.Flags().String("metrics-addr", "", WrapString("Address to serve metrics on while the simulation runs, e.g. :9464. Prometheus metrics are served on /metrics, VictoriaMetrics on /metrics/vm"))
	return cmd
}

func runSimulate(ctx context.Context, cmd *cobra.Command, v *viper.Viper) error {
	f, err := loadChain(v)
	if err != nil {
		return err
	}
	chain, err := f.Chain()
	if err != nil {
		return err
	}
	steps, err := script.Parse(v.GetString("script"))
	if err != nil {
		return err
	}

	options := f.Options()
	if timeout := v.GetDuration("timeout"); timeout > 0 {
		options = []again.Option{again.Timeout(timeout)}
	}

	reg := prometheus.NewRegistry()
	prom := observe.NewPrometheus(reg, "")
	vm := observe.NewVictoria(metrics.NewSet(), "")
	rec := observe.NewRecorder()
	gm := observe.NewGoMetrics(gometrics.NewRegistry(), "")
	options = append(options, again.Observe(observe.All(
		observe.Log(slog.Default()),
		prom.Observer(),
		vm.Observer(),
		gm.Observer(),
		rec.Observer(),
	)))

	if addr := v.GetString("metrics-addr"); addr != "" {
		shutdown, err := serveMetrics(addr, reg, vm)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	executions := max(v.GetInt("executions"), 1)
	slog.Info("Starting simulation",
		"chain", chain.String(),
		"script", steps.String(),
		"executions", executions,
		"concurrency", v.GetInt("concurrency"),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(v.GetInt("concurrency"), 1))
	for i := range executions {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			n, err := again.Execute(gctx, steps.Operation(), chain, options...)
			prom.Done(err)
			vm.Done(err)
			gm.Done(err)
			rec.Done(err)
			if err != nil {
				slog.Error("Execution failed", "execution", i, "outcome", observe.Outcome(err), "error", err)
				return nil
			}
			slog.Debug("Execution succeeded", "execution", i, "attempt", n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), summary(rec))
	if v.GetBool("dump-metrics") {
		fmt.Fprintln(cmd.OutOrStdout())
		gm.WriteOnce(cmd.OutOrStdout())
	}
	return ctx.Err()
}

func summary(rec *observe.Recorder) string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Outcomes")
	outcomes := rec.Outcomes()
	for _, o := range []string{"success", "exhausted", "timed_out", "cancelled", "failed"} {
		if n, ok := outcomes[o]; ok {
			addField(o, fmt.Sprint(n))
		}
	}

	addSection("Retries")
	counts := rec.Summary()
	if len(counts) == 0 {
		addField("none", "0")
	}
	for _, c := range counts {
		addField(c.Kind.String(), fmt.Sprint(c.Retries))
	}

	return sb.String()
}

// serveMetrics serves reg and vm on addr until the returned func is called.
func serveMetrics(addr string, reg *prometheus.Registry, vm *observe.Victoria) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/metrics/vm", func(w http.ResponseWriter, r *http.Request) {
		vm.WritePrometheus(w)
	})
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "error", err)
		}
	}()
	slog.Info("Serving metrics", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("Error during metrics shutdown", "error", err)
		}
	}, nil
}
