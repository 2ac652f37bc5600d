package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/squad-analytics/checkout-capacity/pkg/analyzer"
	"github.com/squad-analytics/checkout-capacity/pkg/config"
)

type analyzeOptions struct {
	arrival     float64 // customers/hour
	serviceTime float64 // seconds
	servers     int
	maxWait     float64 // minutes
	buckets     int
}

var analyzeOpts analyzeOptions

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Print the queue metrics of one checkout configuration",
	Long: `Solve one M/M/c queue and print its utilization, wait probability, mean waits,
tail probabilities and occupancy distribution.

Example:
  checkout-capacity analyze --arrival 50 --service-time 90 --servers 2 --max-wait 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd.OutOrStdout(), analyzeOpts, jsonOutput)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	flags := analyzeCmd.Flags()
	flags.Float64Var(&analyzeOpts.arrival, "arrival", 0, "Arrival rate (customers/hour)")
	flags.Float64Var(&analyzeOpts.serviceTime, "service-time", 0, "Mean service time (seconds)")
	flags.IntVar(&analyzeOpts.servers, "servers", 1, "Open checkouts (PDVs)")
	flags.Float64Var(&analyzeOpts.maxWait, "max-wait", 0, "Wait threshold for the percentage served (minutes)")
	flags.IntVar(&analyzeOpts.buckets, "buckets", config.DefaultOccupancyBuckets, "Occupancy buckets k=0..N")
	_ = analyzeCmd.MarkFlagRequired("arrival")
	_ = analyzeCmd.MarkFlagRequired("service-time")
}

func runAnalyze(w io.Writer, opts analyzeOptions, jsonOut bool) error {
	row := config.RowSpec{ArrivalRate: opts.arrival, ServiceTime: opts.serviceTime}
	lambda, mu, err := row.Rates()
	if err != nil {
		return err
	}
	model, err := analyzer.NewQueueModel(lambda, mu, opts.servers)
	if err != nil {
		var unstable *analyzer.UnstableQueueError
		if errors.As(err, &unstable) {
			return fmt.Errorf("%w: at least %d PDVs are needed", err, analyzer.StabilityFloor(lambda, mu))
		}
		return err
	}

	horizons := make([]float64, 0, len(config.DefaultTailHorizonsMinutes)+1)
	for _, m := range config.DefaultTailHorizonsMinutes {
		horizons = append(horizons, m/config.MinutesPerHour)
	}
	if opts.maxWait > 0 {
		horizons = append(horizons, opts.maxWait/config.MinutesPerHour)
	}
	report, err := model.Report(horizons, opts.buckets)
	if err != nil {
		return err
	}

	if jsonOut {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	minutes := func(h float64) float64 { return h * config.MinutesPerHour }
	fmt.Fprintf(w, "Queue: lambda=%g/h, mu=%.4g/h, PDVs=%d\n", lambda, mu, report.Servers)
	fmt.Fprintf(w, "  Utilization:               %.4f\n", report.Rho)
	fmt.Fprintf(w, "  P(empty):                  %.4f\n", report.IdleProb)
	fmt.Fprintf(w, "  P(wait):                   %.4f\n", report.WaitProb)
	fmt.Fprintf(w, "  Avg wait:                  %.4f min\n", minutes(report.AvgWaitTime))
	fmt.Fprintf(w, "  Avg wait given wait:       %.4f min\n", minutes(report.AvgWaitTimeGivenWait))
	fmt.Fprintf(w, "  Avg queue given wait:      %.4f\n", report.AvgQueueGivenWait)
	fmt.Fprintf(w, "  Avg customers in system:   %.4f (%.4f per PDV)\n", report.AvgSystemSize, report.SystemSizePerServer)
	fmt.Fprintf(w, "  Avg response time:         %.4f min\n", minutes(report.AvgRespTime))
	for _, t := range report.Tail {
		fmt.Fprintf(w, "  %-27s%.4f\n", fmt.Sprintf("P(wait > %g min):", minutes(t.Horizon)), t.Prob)
	}
	if opts.maxWait > 0 {
		pct, err := model.PercentServedWithin(opts.maxWait / config.MinutesPerHour)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %-27s%.2f%%\n", fmt.Sprintf("Served within %g min:", opts.maxWait), pct)
	}
	fmt.Fprintln(w, "  Occupancy:")
	for k, p := range report.Occupancy.Buckets {
		fmt.Fprintf(w, "    k=%-3d %.6f\n", k, p)
	}
	fmt.Fprintf(w, "    k>%-3d %.6f\n", len(report.Occupancy.Buckets)-1, report.Occupancy.Residual)
	if report.Occupancy.PrecisionWarning {
		fmt.Fprintln(w, "  warning: occupancy residual clamped to zero")
	}
	return nil
}
