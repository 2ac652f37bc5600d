package cli

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/squad-analytics/checkout-capacity/internal/logger"
)

// environment file loaded before each command, if present
const EnvFileVar = "CHECKOUT_ENV_FILE"

var (
	logLevel   string
	jsonOutput bool
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "checkout-capacity",
	Short: "Checkout staffing sized with M/M/c queueing",
	Long: `checkout-capacity sizes the number of open checkouts (PDVs) per store, weekday and period
so that customer waiting times meet a service level agreement.

Environment Variables:
  LOG_LEVEL                 debug, info, warn, error (default: info)
  LOG_FORMAT                json or console (default: json)
  CHECKOUT_ENV_FILE         dotenv file loaded at startup (default: .env)
  CHECKOUT_SLA_KIND         mean-wait, conditional-wait, percent-served
  CHECKOUT_BACKOFF          nearest, strict
  CHECKOUT_WORKERS          rows sized concurrently
  CHECKOUT_MAX_ITERATIONS   bound on capacity steps per search
  CHECKOUT_MAX_SERVERS      largest PDV count a search may start from or reach`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(); err != nil {
			return err
		}
		level := logLevel
		if level == "" {
			level = os.Getenv("LOG_LEVEL")
		}
		_, err := logger.InitLoggerWithLevel(level)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.SyncLogger()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
}

// loadEnvFile loads the dotenv file without overriding variables already set
func loadEnvFile() error {
	path := os.Getenv(EnvFileVar)
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
