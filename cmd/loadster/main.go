package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohamed-abdelsamei/loadster/internal/cli"
	"github.com/mohamed-abdelsamei/loadster/internal/config"
	"github.com/mohamed-abdelsamei/loadster/internal/scenario"
	"github.com/mohamed-abdelsamei/loadster/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "loadster",
	Short: "Loadster - concurrent HTTP load testing tool",
	Long: `Loadster is a simple load testing tool that allows you to test the
performance of your web applications by sending concurrent HTTP requests.

Every user fires exactly one request, and all users start at the same time.
Settings can come from flags, a scenario file (-f), or both; explicit flags
take precedence over the scenario.

Examples:
  loadster -u https://api.example.com/health           # 10 users, GET
  loadster -u https://api.example.com/items -c 100     # 100 concurrent users
  loadster -u https://api.example.com -m post -b '{}'  # POST with a body
  loadster -u https://api.example.com -H "Accept: application/json"
  loadster -f scenario.yaml                            # settings from a file
  loadster runs                                        # show run history`,
	Version: version.Version,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Initialize configuration
		if err := config.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		return runLoadTest(cmd)
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded load test runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		return cli.History(cli.HistoryOptions{
			DatabasePath: config.DatabasePath,
			Limit:        runsLimit,
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("loadster %s\n", version.Version)
		if !versionCheck {
			return nil
		}

		available, latest, url, err := version.CheckForUpdate(version.Version)
		if err != nil {
			return fmt.Errorf("failed to check for updates: %w", err)
		}
		if available {
			fmt.Printf("A newer version is available: %s\n%s\n", latest, url)
		} else {
			fmt.Println("You are on the latest version")
		}
		return nil
	},
}

// Flags for the root command
var (
	flagURL       string
	flagMethod    string
	flagUsers     int
	flagTimeout   time.Duration
	flagHeaders   []string
	flagBody      string
	flagVerbose   bool
	flagOutput    string
	flagScenario  string
	flagInsecure  bool
	flagNoHistory bool
)

// Flags for runs
var (
	runsLimit int
)

// Flags for version
var (
	versionCheck bool
)

func init() {
	rootCmd.Flags().StringVarP(&flagURL, "url", "u", "", "The target URL for the load test")
	rootCmd.Flags().StringVarP(&flagMethod, "method", "m", string(scenario.DefaultMethod), "The HTTP method to use (GET, POST, PUT, DELETE, PATCH)")
	rootCmd.Flags().IntVarP(&flagUsers, "users", "c", scenario.DefaultUsers, "The number of concurrent users")
	rootCmd.Flags().DurationVarP(&flagTimeout, "timeout", "t", scenario.DefaultTimeout, "The timeout for each request")
	rootCmd.Flags().StringArrayVarP(&flagHeaders, "header", "H", []string{}, "Additional header (Name: Value), can be repeated")
	rootCmd.Flags().StringVarP(&flagBody, "body", "b", "", "The body of the request (for POST, PUT, PATCH methods)")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Save per-request results to a file")
	rootCmd.Flags().StringVarP(&flagScenario, "scenario", "f", "", "Load run settings from a scenario file (.yaml/.yml/.json)")
	rootCmd.Flags().BoolVar(&flagInsecure, "insecure", false, "Skip TLS certificate verification")
	rootCmd.Flags().BoolVar(&flagNoHistory, "no-history", false, "Do not record this run in the history database")

	// runs flags
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Maximum number of runs to show (0 = all)")

	// version flags
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "Check for a newer release")

	// Add subcommands
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(versionCmd)
}

// runLoadTest executes a load test from the root command flags
func runLoadTest(cmd *cobra.Command) error {
	// Cancel outstanding requests on Ctrl+C
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	databasePath := config.DatabasePath
	if flagNoHistory {
		databasePath = ""
	}

	opts := cli.RunOptions{
		URL:          flagURL,
		Method:       flagMethod,
		Users:        flagUsers,
		Timeout:      flagTimeout,
		Headers:      flagHeaders,
		Body:         flagBody,
		Verbose:      flagVerbose,
		Output:       flagOutput,
		ScenarioPath: flagScenario,
		Insecure:     flagInsecure,
		DatabasePath: databasePath,
	}

	// A flag with a default only overrides the scenario when given explicitly.
	if !cmd.Flags().Changed("method") {
		opts.Method = ""
	}
	if !cmd.Flags().Changed("users") {
		opts.Users = 0
	}
	if !cmd.Flags().Changed("timeout") {
		opts.Timeout = 0
	}

	return cli.Run(ctx, opts)
}
