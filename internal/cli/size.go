package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/squad-analytics/checkout-capacity/internal/engines/sizing"
	"github.com/squad-analytics/checkout-capacity/internal/logger"
	"github.com/squad-analytics/checkout-capacity/internal/metrics"
	"github.com/squad-analytics/checkout-capacity/internal/sheet"
	"github.com/squad-analytics/checkout-capacity/pkg/config"
	"github.com/squad-analytics/checkout-capacity/pkg/manager"
)

type sizeOptions struct {
	input         string
	output        string
	configPath    string
	sla           string
	backoff       string
	workers       int
	maxIterations int
	maxServers    int
	metricsFile   string
	table         bool
}

var sizeOpts sizeOptions

var sizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Size checkout capacity for every row of an input sheet",
	Long: `Read rows (store, weekday, period, demand, PDV columns, SLA targets) from an .xlsx or .csv
file and search the number of PDVs meeting the SLA from the current, max and test columns.

With the default strict backoff the result is the smallest PDV count that meets the SLA;
--backoff nearest may keep a neighbour just outside the SLA when its metric is closer.
Rows with a PDV column above maxServers are rejected.

Example:
  checkout-capacity size --input rows.xlsx --output sized.xlsx --sla percent-served --table`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		spec, err := loadSizingSpec(cmd, sizeOpts)
		if err != nil {
			return err
		}
		return runSize(ctx, cmd.OutOrStdout(), spec, sizeOpts, jsonOutput)
	},
}

func init() {
	rootCmd.AddCommand(sizeCmd)
	flags := sizeCmd.Flags()
	flags.StringVarP(&sizeOpts.input, "input", "i", "", "Input rows (.xlsx or .csv)")
	flags.StringVarP(&sizeOpts.output, "output", "o", "", "Output file (.xlsx or .csv)")
	flags.StringVarP(&sizeOpts.configPath, "config", "c", "", "Sizing configuration (YAML)")
	flags.StringVar(&sizeOpts.sla, "sla", "", "SLA kind: mean-wait, conditional-wait, percent-served")
	flags.StringVar(&sizeOpts.backoff, "backoff", "", "Backoff policy: strict (default), nearest")
	flags.IntVar(&sizeOpts.workers, "workers", 0, "Rows sized concurrently (0 = number of CPUs)")
	flags.IntVar(&sizeOpts.maxIterations, "max-iterations", 0, "Bound on capacity steps per search")
	flags.IntVar(&sizeOpts.maxServers, "max-servers", 0, "Largest PDV count a search may start from or reach")
	flags.StringVar(&sizeOpts.metricsFile, "metrics-file", "", "Write run metrics in Prometheus text format")
	flags.BoolVar(&sizeOpts.table, "table", false, "Print a summary table")
	_ = sizeCmd.MarkFlagRequired("input")
}

// loadSizingSpec applies flags over the configuration file and environment
func loadSizingSpec(cmd *cobra.Command, opts sizeOptions) (*config.SizingSpec, error) {
	spec, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("sla") {
		spec.SLAKind = opts.sla
	}
	if flags.Changed("backoff") {
		spec.Backoff = opts.backoff
	}
	if flags.Changed("workers") {
		spec.Workers = opts.workers
	}
	if flags.Changed("max-iterations") {
		spec.MaxIterations = opts.maxIterations
	}
	if flags.Changed("max-servers") {
		spec.MaxServers = opts.maxServers
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

func runSize(ctx context.Context, w io.Writer, spec *config.SizingSpec, opts sizeOptions, jsonOut bool) error {
	rows, err := sheet.ReadRows(opts.input, spec.Sheet, spec.HeaderRows)
	if err != nil {
		return err
	}
	logger.Log.Infow("Input loaded", "file", opts.input, "rows", len(rows))

	registry := prometheus.NewRegistry()
	engine := sizing.NewEngine(spec, metrics.InitMetricsAndEmitter(registry))
	results, err := engine.Run(ctx, rows)
	if err != nil {
		return err
	}

	if opts.output != "" {
		if err := sheet.WriteResults(opts.output, results); err != nil {
			return err
		}
		logger.Log.Infow("Results written", "file", opts.output)
	}
	if opts.metricsFile != "" {
		if err := metrics.WriteTextfile(opts.metricsFile, registry); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	switch {
	case jsonOut:
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
	case opts.table:
		fmt.Fprintln(w, sheet.RenderTable(results))
	default:
		for s := manager.StartCurrent; s < manager.NumStarts; s++ {
			fmt.Fprintf(w, "%-8s %d PDVs\n", s, manager.TotalServers(results, s))
		}
	}
	return nil
}
