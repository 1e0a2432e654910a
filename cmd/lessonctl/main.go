package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"easylesson/internal/apiclient"
	"easylesson/internal/logger"
)

var (
	// Global flags
	serverURL    string
	timeout      time.Duration
	mockFallback bool
	useProxies   bool
	verbose      bool

	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "lessonctl",
	Short: "lessonctl - command line client for the EasyLesson API",
	Long: `lessonctl talks to a running EasyLesson server.

It generates stories and lessons, continues them, grades quizzes and
requests narration. Every command prints the server's JSON response.

Example:
  lessonctl generate --kind lesson --grade 5 --subject Science --words 400 --quiz`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		mode := "production"
		if verbose {
			mode = "development"
		}
		var err error
		log, err = logger.New(mode)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", envOr("EASYLESSON_API_URL", "http://localhost:10000/api"), "API base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "per-request timeout")
	rootCmd.PersistentFlags().BoolVar(&mockFallback, "mock", false, "return a placeholder record when the server is unreachable")
	rootCmd.PersistentFlags().BoolVar(&useProxies, "proxy", false, "retry through public CORS proxies on network failure")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	registerGenerateFlags()
	registerListFlags()
	registerContinueFlags()
	narrateCmd.Flags().BoolVar(&narrateForce, "force", false, "synthesize again even if audio exists")

	rootCmd.AddCommand(
		statusCmd,
		generateCmd,
		listCmd,
		getCmd,
		deleteCmd,
		continueCmd,
		gradeCmd,
		narrateCmd,
	)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// newClient builds an API client from the global flags.
func newClient() *apiclient.Client {
	if log == nil {
		log = logger.Nop()
	}
	opts := []apiclient.Option{
		apiclient.WithTimeout(timeout),
		apiclient.WithMockFallback(mockFallback),
		apiclient.WithLogger(log),
	}
	if useProxies {
		opts = append(opts, apiclient.WithProxies(apiclient.DefaultProxies...))
	}
	return apiclient.New(serverURL, opts...)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
