package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/tmdbfav/config"
	"github.com/s0up4200/tmdbfav/filter"
	"github.com/s0up4200/tmdbfav/presenter"
	"github.com/s0up4200/tmdbfav/session"
	"github.com/s0up4200/tmdbfav/tmdb"
)

var (
	cfgFile    string
	verbose    bool
	cfg        *config.Config
	logger     = zerolog.Nop()
	loop       *presenter.Loop
	observer   tmdb.Observer
	client     *tmdb.Client
	operations *tmdb.Operations
	store      *session.Store
	filters    *filter.Manager
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tmdbfav",
	Short: "Manage your movie database favorites from the command line",
	Long: `tmdbfav logs in to your movie database account and lets you list, check,
add and remove favorite movies.

Log in once with "tmdbfav login"; the session is stored locally and reused by
the other commands until "tmdbfav logout".`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	// Flush callbacks still queued for the console
	if loop != nil {
		loop.Close()
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show workflow progress")
}

// initializeApp loads the configuration and wires the client, session store and presenter
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger = setupLogger(cfg.Logging)

	// Callbacks run on the presenter loop, never on the workflow goroutine
	loop = presenter.NewLoop(logger.With().Str("component", "presenter").Logger())
	observer = presenter.OnLoop(loop, presenter.NewConsole(os.Stdout, verbose))

	client, err = tmdb.NewClient(cfg.TMDB.APIKey, logger,
		tmdb.WithBaseURL(cfg.TMDB.BaseURL),
		tmdb.WithImageBaseURL(cfg.TMDB.ImageBaseURL),
		tmdb.WithTimeout(cfg.TMDB.Timeout),
		tmdb.WithObserver(observer),
	)
	if err != nil {
		return fmt.Errorf("failed to create TMDB client: %w", err)
	}

	operations = tmdb.NewOperations(client, logger)

	store, err = session.NewStore(cfg.Session.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}

	filters = filter.NewManager()
	if err := filters.RegisterFilters(cfg.Filters); err != nil {
		return fmt.Errorf("invalid filters in config: %w", err)
	}

	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format, coloured only on a terminal
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isTerminal(os.Stderr),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// loadSession returns the stored session, failing when nobody is logged in
func loadSession() (tmdb.Session, error) {
	sess, err := store.Load()
	if err != nil {
		return tmdb.Session{}, err
	}
	if !sess.LoggedIn() {
		return tmdb.Session{}, fmt.Errorf("not logged in, run 'tmdbfav login' first")
	}
	return sess, nil
}
