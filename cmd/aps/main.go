package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsinha/aps/pkg/application/services/editing"
	"github.com/vsinha/aps/pkg/config"
	"github.com/vsinha/aps/pkg/domain/plan"
	"github.com/vsinha/aps/pkg/infrastructure/events"
	"github.com/vsinha/aps/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/aps/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/aps/pkg/infrastructure/repositories/snapshot"
	"github.com/vsinha/aps/pkg/interfaces/cli/commands"
	"github.com/vsinha/aps/pkg/interfaces/httpapi"
	"github.com/vsinha/aps/pkg/logger"
)

var (
	v          = config.New()
	cfg        *config.Config
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "aps",
	Short: "Production batch planner",
	Long: `aps turns lot demand into a conflict-free production plan.
- Master data: processes, products with their routes, equipment and daily operator rosters, imported from CSV.
- Schedule: every process step of every lot is placed on eligible equipment in fixed two-hour slots.
- Edit: batches can be moved or removed afterwards, interactively or through the HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(v, configFile)
		if err != nil {
			return err
		}
		cfg = loaded
		return logger.Init(cfg.Log.Level, cfg.Log.Format)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func main() {
	addPersistentFlags()
	registerCommands()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addPersistentFlags() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default: aps.yaml in ., ./config or $HOME/.aps)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "console", "log format: console or json")
	flags.String("storage-backend", config.BackendYAML, "master data store: yaml or sqlite")
	flags.String("storage-dir", "./data", "directory of the yaml master data store")
	flags.String("sqlite-path", "./data/aps.db", "database file of the sqlite master data store")
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = v.BindPFlag("storage.backend", flags.Lookup("storage-backend"))
	_ = v.BindPFlag("storage.dir", flags.Lookup("storage-dir"))
	_ = v.BindPFlag("storage.sqlite_path", flags.Lookup("sqlite-path"))
}

func registerCommands() {
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(masterDataCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(editCmd())
	rootCmd.AddCommand(serveCmd())
}

// withCatalogue opens the configured snapshot store and serves it from memory
func withCatalogue(fn func(md *memory.MasterDataStore) error) error {
	store, closer, err := snapshot.Open(cfg.Storage.Backend, cfg.Storage.Dir, cfg.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("open master data store: %w", err)
	}
	defer closer.Close()

	md, err := memory.LoadMasterDataStore(store)
	if err != nil {
		return err
	}
	return fn(md)
}

func scheduleCmd() *cobra.Command {
	var conf commands.ScheduleConfig
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule a demand intake file",
		Example: `  aps schedule --demand demand.csv
  aps schedule --masterdata ./scenario --demand ./scenario/demand.csv --format csv --output ./out`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf.Year = cfg.Intake.Year
			conf.SearchWindow = cfg.Scheduling.SearchWindowDays
			conf.Out = cmd.OutOrStdout()
			return withCatalogue(func(md *memory.MasterDataStore) error {
				return commands.NewScheduleCommand(conf, md, logger.L()).Execute(cmd.Context())
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&conf.DemandFile, "demand", "", "demand intake CSV (row per lot or monthly totals)")
	flags.StringVar(&conf.MasterDataDir, "masterdata", "", "import master data CSV files from this directory first")
	flags.StringVar(&conf.PlanFile, "plan", "", "existing plan CSV to keep and schedule around")
	flags.StringVarP(&conf.OutputDir, "output", "o", "", "output directory")
	flags.StringVarP(&conf.Format, "format", "f", "text", "output format: text, json, csv, svg, html")
	flags.BoolVarP(&conf.Verbose, "verbose", "v", false, "verbose output")
	flags.Int("year", time.Now().Year(), "year of monthly intake columns")
	flags.Int("search-window", 30, "days searched for a free slot")
	_ = v.BindPFlag("intake.year", flags.Lookup("year"))
	_ = v.BindPFlag("scheduling.search_window_days", flags.Lookup("search-window"))
	_ = cmd.MarkFlagRequired("demand")
	return cmd
}

func masterDataCmd() *cobra.Command {
	md := &cobra.Command{Use: "masterdata", Short: "Manage the master catalogue"}
	md.AddCommand(masterDataImportCmd())
	md.AddCommand(masterDataListCmd())
	return md
}

func masterDataImportCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Import processes.csv, products.csv, equipment.csv and operators.csv",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalogue(func(md *memory.MasterDataStore) error {
				conf := commands.ImportConfig{Dir: args[0], Verbose: verbose, Out: cmd.OutOrStdout()}
				return commands.NewImportCommand(conf, md, logger.L()).Execute(cmd.Context())
			})
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "also print catalogue warnings")
	return cmd
}

func masterDataListCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "list [processes|products|equipment|operators]",
		Short:     "Print the master catalogue",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"processes", "products", "equipment", "operators"},
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := commands.ListConfig{Out: cmd.OutOrStdout()}
			if len(args) == 1 {
				conf.Kind = args[0]
			}
			return withCatalogue(func(md *memory.MasterDataStore) error {
				return commands.NewListCommand(conf, md).Execute(cmd.Context())
			})
		},
	}
}

func generateCmd() *cobra.Command {
	var conf commands.GenerateConfig
	var start string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic scenario (master data and demand CSV files)",
		Example: `  aps generate --output ./scenario --products 20 --lots 60 --seed 12345
  aps schedule --masterdata ./scenario --demand ./scenario/demand.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if start != "" {
				t, err := time.Parse("2006-01-02", start)
				if err != nil {
					return fmt.Errorf("invalid --start: %w", err)
				}
				conf.StartDate = t
			}
			conf.Out = cmd.OutOrStdout()
			return commands.NewGenerateCommand(conf).Execute(cmd.Context())
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&conf.OutputDir, "output", "o", "", "output directory")
	flags.IntVar(&conf.Processes, "processes", 4, "number of processes")
	flags.IntVar(&conf.EquipmentPerProcess, "equipment", 2, "machines per process")
	flags.IntVar(&conf.Products, "products", 10, "number of products")
	flags.IntVar(&conf.Lots, "lots", 40, "number of demand lots")
	flags.IntVar(&conf.Days, "days", 20, "calendar days of rosters and due dates")
	flags.StringVar(&start, "start", "", "first rostered day, YYYY-MM-DD (default today)")
	flags.Int64Var(&conf.Seed, "seed", 0, "random seed for reproducible scenarios")
	flags.BoolVarP(&conf.Verbose, "verbose", "v", false, "verbose output")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <plan.csv>",
		Short: "Interactively move, delete and withdraw batches of a saved plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalogue(func(md *memory.MasterDataStore) error {
				conf := commands.EditConfig{PlanFile: args[0], In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}
				return commands.NewEditCommand(conf, md, logger.L()).Execute(cmd.Context())
			})
		},
	}
}

func serveCmd() *cobra.Command {
	var planFile string
	var save bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the plan edit API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalogue(func(md *memory.MasterDataStore) error {
				p := plan.New()
				if planFile != "" {
					loaded, err := csv.LoadPlan(planFile)
					if err != nil {
						return fmt.Errorf("load plan: %w", err)
					}
					p = loaded
				}
				store := events.NewInMemoryEventStore(logger.L())
				editor := editing.NewPlanEditor(p, md, store, logger.L())

				handler := httpapi.New(httpapi.Config{
					Editor:   editor,
					Events:   store,
					Logger:   logger.L(),
					LogLevel: logger.Level(),
				})
				if err := serve(cmd.Context(), handler, cfg.Server); err != nil {
					return err
				}
				if save && planFile != "" {
					return savePlan(planFile, editor.Plan())
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&planFile, "plan", "", "plan CSV to serve")
	cmd.Flags().BoolVar(&save, "save", false, "write the edited plan back on shutdown")
	cmd.Flags().String("addr", ":8080", "listen address")
	_ = v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func serve(ctx context.Context, handler http.Handler, conf config.ServerConfig) error {
	srv := &http.Server{
		Addr:         conf.Addr,
		Handler:      handler,
		ReadTimeout:  conf.ReadTimeout,
		WriteTimeout: conf.WriteTimeout,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.L().Warn("http server shutdown", zap.Error(err))
		}
	}()

	logger.L().Info("serving plan API", zap.String("addr", conf.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func savePlan(filename string, p *plan.ProductionPlan) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := writePlan(file, p); err != nil {
		file.Close()
		return err
	}
	logger.L().Info("plan saved", zap.String("file", filename), zap.Int("batches", p.Len()))
	return file.Close()
}

func writePlan(w io.Writer, p *plan.ProductionPlan) error {
	return csv.WritePlanCSV(w, p.FlatRows())
}
