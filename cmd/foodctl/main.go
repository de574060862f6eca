package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/centromex/foodwaste/internal/config"
	"github.com/centromex/foodwaste/internal/dashboard"
	"github.com/centromex/foodwaste/internal/db"
	"github.com/centromex/foodwaste/internal/logging"
)

// app holds what the persistent hooks build for the subcommands.
type app struct {
	configPath string
	verbose    bool
	backend    string
	dbPath     string
	csvDir     string

	cfg    *config.Config
	logger *zap.Logger
	store  db.Store
	dash   *dashboard.Service
}

// usesStore marks the subcommands that need a config, logger and store.
// help and completion run without them.
const usesStore = "foodctl/uses-store"

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "foodctl",
		Short: "Food wastage dashboard from the terminal",
		Long: `foodctl filters food listings, runs the aggregate reports and edits
listings against the configured storage backend (memory, csv or sqlite).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := cmd.Annotations[usesStore]; !ok {
				return nil
			}
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", config.DefaultPath, "path to the YAML config file")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&a.backend, "backend", "", "storage backend: memory, csv or sqlite")
	pf.StringVar(&a.dbPath, "db", "", "SQLite database path")
	pf.StringVar(&a.csvDir, "csv-dir", "", "directory holding the CSV tables")

	for _, cmd := range []*cobra.Command{
		a.optionsCmd(),
		a.listingsCmd(),
		a.contactsCmd(),
		a.reportsCmd(),
		a.reportCmd(),
		a.addCmd(),
		a.updateCmd(),
		a.deleteCmd(),
		a.importCmd(),
	} {
		cmd.Annotations = map[string]string{usesStore: "true"}
		root.AddCommand(cmd)
	}
	return root, a
}

// run executes root and then releases what setup opened. Cobra skips post-run
// hooks when a command fails, so the teardown cannot live in one.
func (a *app) run(root *cobra.Command) error {
	err := root.Execute()
	if cerr := a.teardown(); err == nil {
		err = cerr
	}
	return err
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Storage.Backend = a.backend
	}
	if flags.Changed("db") {
		cfg.Storage.DBPath = a.dbPath
	}
	if flags.Changed("csv-dir") {
		cfg.Storage.CSVDir = a.csvDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if a.logger == nil {
		// CLI output goes to stdout; keep logs quiet unless asked
		logCfg := cfg.Logging
		if !a.verbose && logCfg.Level == "info" {
			logCfg.Level = "warn"
		}
		logCfg.Format = "text"
		if a.logger, err = logging.New(logCfg, a.verbose); err != nil {
			return err
		}
	}

	store, err := db.Open(cmd.Context(), cfg.StoreOptions())
	if err != nil {
		return err
	}
	a.store = store
	a.dash = dashboard.New(store, a.logger.Named("dashboard"))
	return nil
}

func (a *app) teardown() error {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

func main() {
	root, a := newRootCmd()
	if err := a.run(root); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
