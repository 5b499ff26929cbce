package commands

import (
	"errors"
	"fmt"
	"os"

	"air-library/config"
	"air-library/library"
	"air-library/output"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	dbPath   string
	headless bool
	logLevel string

	cfg    *config.Config
	logger = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "air",
	Short: "Air - a personal digital library in your terminal",
	Long: `Air keeps a small catalog of books, comics and PDFs in a local SQLite file.

Readers browse and search the catalog, read titles, keep up to three
favorites and track their reading stats. Administrators curate the
catalog, the top pick banner and broadcast notifications.

Run "air tui" for the full-screen interface or "air shell" for a prompt.`,
	Version:           "2.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database file (default $AIR_DB_PATH or air.db)")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", false, "Run without a database; nothing is saved")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default $AIR_LOG_LEVEL or warn)")
}

// setup resolves configuration once per invocation. Flags win over the
// environment.
func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		c.DBPath = dbPath
	}
	if flags.Changed("headless") {
		c.Headless = headless
	}
	if flags.Changed("log-level") {
		c.LogLevel = logLevel
	}
	cfg = c

	l, err := config.NewLogger(c.LogLevel)
	if err != nil {
		return err
	}
	logger = l
	output.Out = cmd.OutOrStdout()
	return nil
}

// openApp opens the library for one command. Callers close it.
func openApp() (*library.LibraryManager, error) {
	lm, err := library.NewLibraryManager(library.Options{
		DBPath:   cfg.DBPath,
		Headless: cfg.Headless,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open library: %w", err)
	}
	return lm, nil
}

var (
	errLoginRequired = errors.New(`not logged in (run "air login")`)
	errAdminOnly     = errors.New("this command is for administrators")
)

func requireLogin(c *library.Controller) (library.User, error) {
	u, ok := c.CurrentUser()
	if !ok {
		return library.User{}, errLoginRequired
	}
	return u, nil
}

func requireAdmin(c *library.Controller) error {
	if _, err := requireLogin(c); err != nil {
		return err
	}
	if !c.IsAdmin() {
		return errAdminOnly
	}
	return nil
}

// withApp opens the library, runs fn and closes it again.
func withApp(fn func(lm *library.LibraryManager) error) error {
	lm, err := openApp()
	if err != nil {
		return err
	}
	defer lm.Close()
	return fn(lm)
}
