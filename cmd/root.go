package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/loog-project/rulist/internal/controller"
	"github.com/loog-project/rulist/internal/filter"
	"github.com/loog-project/rulist/internal/source"
	"github.com/loog-project/rulist/internal/store"
	bboltStore "github.com/loog-project/rulist/internal/store/bbolt"
	"github.com/loog-project/rulist/internal/ui"
)

// persistent flags
var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "rulist [FLAGS]",
	Short: "Random User List",
	Long: `Rulist shows a list of random users fetched from a public HTTP API.
Refresh the whole list or add single users at the top. The list can also be
printed once in headless mode, and every fetch can be recorded for later
inspection with "rulist dump".`,
	Args:    cobra.NoArgs,
	PreRunE: validateArgsAndFlags,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), cmd.OutOrStdout())
	},
	SilenceUsage: true,
}

var setupLog = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
	Timestamp().
	Caller().
	Logger()

// cfg is populated by validateArgsAndFlags.
var cfg *config

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	cobra.OnInitialize(initConfig)

	// global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.rulist.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false,
		"Enable debug mode, which will print additional information to the debug.log file")
	rootCmd.PersistentFlags().Bool("truncate-debug", false,
		"Truncate the debug.log file on startup, if it exists")

	// rulist command flags
	rootCmd.Flags().String("endpoint", source.DefaultEndpoint,
		"URL of the random user API")
	rootCmd.Flags().Int("page-size", controller.DefaultPageSize,
		"Number of users fetched on load and refresh")
	rootCmd.Flags().Duration("timeout", source.DefaultTimeout,
		"Timeout of a single HTTP request")
	rootCmd.Flags().Duration("feedback-delay", controller.DefaultFeedbackDelay,
		"How long the refresh banner stays visible after a refresh settled")
	rootCmd.Flags().Bool("no-feedback", false,
		"Do not show the refresh banner")
	rootCmd.Flags().String("layout", ui.LayoutTrailing.String(),
		"Row layout: trailing (ios) or leading (android)")
	rootCmd.Flags().StringP("filter", "f", filter.MatchAll,
		"Filter expression to select which users are displayed")
	rootCmd.Flags().StringP("record", "o", "",
		"Record every fetch to this file (inspect it with 'rulist dump')")
	rootCmd.Flags().Bool("no-durable-sync", false,
		"Skip fsync on every recorded fetch (unsafe on crashes)")
	rootCmd.Flags().Float64("rate-limit", 0,
		"Maximum requests per second sent to the API (0 disables the limit)")
	rootCmd.Flags().Int("rate-burst", 1,
		"Requests allowed to exceed the rate limit at once")
	rootCmd.Flags().BoolP("headless", "H", false,
		"Load the first page, print it as a table and exit")

	// every flag can also be set via RULIST_* environment variables or the config file
	for _, name := range []string{"debug", "truncate-debug"} {
		mustBind(name, viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)))
	}
	for _, name := range []string{
		"endpoint", "page-size", "timeout", "feedback-delay", "no-feedback", "layout", "filter",
		"record", "no-durable-sync", "rate-limit", "rate-burst", "headless",
	} {
		mustBind(name, viper.BindPFlag(name, rootCmd.Flags().Lookup(name)))
	}

	mustBind("layout", rootCmd.RegisterFlagCompletionFunc("layout", layoutCompletion))
	mustBind("record", rootCmd.MarkFlagFilename("record"))
	mustBind("config", rootCmd.MarkPersistentFlagFilename("config", "yaml", "yml"))
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".rulist")
	}

	viper.SetEnvPrefix("rulist")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		setupLog.Info().Msgf("Using config file: %s", viper.ConfigFileUsed())
	}
}

// setupLogger points log.Logger at the given writers plus debug.log in debug mode.
// The returned function closes the debug log file.
func setupLogger(level zerolog.Level, writers ...io.Writer) (func(), error) {
	closeFn := func() {}

	if cfg.Debug {
		setupLog.Info().Msg("Debug mode is enabled, setting up debug logger...")

		fileMode := os.O_CREATE | os.O_WRONLY
		if cfg.Truncate {
			fileMode |= os.O_TRUNC
		} else {
			fileMode |= os.O_APPEND
		}
		logFile, err := os.OpenFile("debug.log", fileMode, 0o644)
		if err != nil {
			return closeFn, fmt.Errorf("opening debug log file: %w", err)
		}
		closeFn = func() {
			if err := logFile.Close(); err != nil {
				setupLog.Error().Err(err).Msg("Error closing debug log file")
			}
		}
		writers = append(writers, logFile)
		level = zerolog.DebugLevel
	}

	if len(writers) == 0 {
		log.Logger = zerolog.Nop()
		return closeFn, nil
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().
		Timestamp().
		Caller().
		Logger().
		Level(level)
	return closeFn, nil
}

func component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// run is the main entry point for the command execution.
func run(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		uiLogger *ui.UILogger
		closeLog func()
		err      error
	)
	if cfg.Headless {
		closeLog, err = setupLogger(zerolog.WarnLevel, zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		// the TUI owns the terminal, log lines go to the log view instead
		uiLogger = ui.NewUILogger()
		closeLog, err = setupLogger(zerolog.InfoLevel, uiLogger)
	}
	defer closeLog()
	if err != nil {
		return err
	}

	setupLog.Info().
		Str("expression", cfg.Filter).
		Msg("Compiling filter expression...")
	f, err := filter.Compile(cfg.Filter)
	if err != nil {
		return err
	}

	sourceOpts := []func(*source.Options){
		source.WithTimeout(cfg.Timeout),
		source.WithLogger(component("source")),
	}
	if cfg.RateLimit > 0 {
		sourceOpts = append(sourceOpts, source.WithRateLimit(cfg.RateLimit, cfg.RateBurst))
	}
	src, err := source.NewHTTPSource(cfg.Endpoint, sourceOpts...)
	if err != nil {
		return err
	}

	ctrlOpts := []func(*controller.Options){
		controller.WithPageSize(cfg.PageSize),
		controller.WithFeedback(cfg.Feedback, cfg.FeedbackDelay),
		controller.WithLogger(component("controller")),
	}
	if cfg.RecordFile != "" {
		setupLog.Info().
			Str("record-file", cfg.RecordFile).
			Msg("Preparing fetch history store...")
		history, openErr := bboltStore.New(cfg.RecordFile, store.DefaultCodec, cfg.DurableSync)
		if openErr != nil {
			return fmt.Errorf("preparing history store: %w", openErr)
		}
		defer func() {
			if closeErr := history.Close(); closeErr != nil {
				setupLog.Error().Err(closeErr).Msg("Error closing history store")
			}
		}()
		ctrlOpts = append(ctrlOpts, controller.WithHistory(history))
	}

	// interrupting cancels in-flight fetches
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	ctrl := controller.New(ctx, src, ctrlOpts...)
	defer ctrl.Close()

	if cfg.Headless {
		setupLog.Info().Int("page-size", cfg.PageSize).Msg("Running in headless mode")
		return runHeadless(ctrl, f, out)
	}

	setupLog.Info().Str("layout", cfg.Layout.String()).Msg("Running in interactive mode")
	root := ui.NewRoot(ui.DarkTheme, uiLogger, ui.NewUserListView(ctrl, f, cfg.Layout))
	program := tea.NewProgram(root,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx))
	uiLogger.Attach(program)

	if _, teaErr := program.Run(); teaErr != nil && ctx.Err() == nil {
		setupLog.Error().Err(teaErr).Msg("Error running TUI program")
		return teaErr
	}
	setupLog.Info().Msg("TUI program exited, bye!")
	return nil
}

func validateArgsAndFlags(_ *cobra.Command, _ []string) error {
	c, err := loadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg = c
	return nil
}

func mustBind(flagName string, err error) {
	if err != nil {
		log.Fatal().Err(err).Msgf("Failed to bind flag %s", flagName)
	}
}
