package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	dbsqlite "locline/internal/adapters/db/sqlite"
	expidline "locline/internal/adapters/exporter/idline"
	"locline/internal/adapters/llm/openai"
	"locline/internal/adapters/parser/idline"
	"locline/internal/api"
	"locline/internal/config"
	"locline/internal/events"
	"locline/internal/ports"
	runnerusecase "locline/internal/usecase/runner"
	translatorusecase "locline/internal/usecase/translator"
)

type app struct {
	cfg    *config.Config
	log    *slog.Logger
	bus    *events.Bus
	runner *runnerusecase.Runner
	runs   ports.RunRepository
	db     *sql.DB

	buildProvider ports.ProviderBuilder
}

// buildApp wires repositories, provider, translator and runner explicitly.
func buildApp(cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var settings ports.SettingsRepository
	var cache ports.CacheRepository
	var runs ports.RunRepository
	var db *sql.DB
	if cfg.DBPath != "" {
		db, err = dbsqlite.Init(cfg.DBPath)
		if err != nil {
			log.Warn("database disabled", "path", cfg.DBPath, "error", err)
		} else {
			settings = dbsqlite.NewSettingsRepo(db)
			cache = dbsqlite.NewCacheRepo(db)
			runs = dbsqlite.NewRunRepo(db)
		}
	}

	timeout := time.Duration(cfg.RequestTimeout * float64(time.Second))
	build := ports.ProviderBuilder(func(baseURL, apiKey string) ports.Provider {
		return openai.New(baseURL, apiKey, timeout)
	})

	transSvc := translatorusecase.New(translatorusecase.Deps{
		Build: build,
		Cache: cache,
	})
	bus := events.NewBus()
	runner := runnerusecase.NewRunner(runnerusecase.Deps{
		Translator: transSvc,
		Parser:     idline.New(),
		Exporter:   expidline.New(),
		Runs:       runs,
		Settings:   settings,
	}, log)
	runner.SetEmitter(bus)

	return &app{
		cfg:           cfg,
		log:           log,
		bus:           bus,
		runner:        runner,
		runs:          runs,
		db:            db,
		buildProvider: build,
	}, nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "locline",
		Short:         "Batch translator for ID:::text line files",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "locline.yaml", "Configuration file path")

	rootCmd.AddCommand(newRunCommand(&configFlag))
	rootCmd.AddCommand(newServeCommand(&configFlag))
	rootCmd.AddCommand(newModelsCommand(&configFlag))
	rootCmd.AddCommand(newConfigCommand(&configFlag))
	return rootCmd
}

func newRunCommand(configFlag *string) *cobra.Command {
	var (
		output  string
		model   string
		workers int
		batch   int
		delay   float64
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Translate a line file and write the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*configFlag)
			if err != nil {
				return err
			}
			defer a.close()

			runCfg := a.cfg.Run
			if cmd.Flags().Changed("output") {
				runCfg.Output = output
			}
			if cmd.Flags().Changed("model") {
				runCfg.Model = model
			}
			if cmd.Flags().Changed("workers") {
				runCfg.Workers = workers
			}
			if cmd.Flags().Changed("batch-size") {
				runCfg.BatchSize = batch
			}
			if cmd.Flags().Changed("delay") {
				runCfg.Delay = delay
			}

			ch, cancel := a.bus.Subscribe(256)
			defer cancel()
			go func() {
				for ev := range ch {
					switch {
					case ev.Append:
						if verbose {
							fmt.Print(ev.Message)
						}
					case ev.Message != "":
						fmt.Printf("[worker %d] %d/%d %s\n", ev.WorkerID, ev.Done, ev.Total, ev.Message)
					default:
						fmt.Printf("[worker %d] %d/%d\n", ev.WorkerID, ev.Done, ev.Total)
					}
				}
			}()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sig)
			go func() {
				<-sig
				a.log.Info("interrupt received, stopping after in-flight batches")
				a.runner.Stop()
			}()

			if _, err := a.runner.Start(runCfg, args[0]); err != nil {
				return err
			}
			return a.runner.Wait()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: tran.txt next to the input)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model identifier")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent workers")
	cmd.Flags().IntVarP(&batch, "batch-size", "b", 0, "Lines per API call")
	cmd.Flags().Float64VarP(&delay, "delay", "d", 0, "Seconds to pause between batches")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print streamed model output")
	return cmd
}

func newServeCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP control surface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*configFlag)
			if err != nil {
				return err
			}
			defer a.close()
			router := api.NewRouter(a.runner, a.buildProvider, a.bus, a.runs, a.cfg, a.log)
			a.log.Info("listening", "addr", a.cfg.Server.Addr)
			return http.ListenAndServe(a.cfg.Server.Addr, router)
		},
	}
}

func newModelsCommand(configFlag *string) *cobra.Command {
	var baseURL, apiKey string
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the endpoint's models, alphabetically",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*configFlag)
			if err != nil {
				return err
			}
			defer a.close()
			if baseURL == "" {
				baseURL = a.cfg.Run.BaseURL
			}
			if apiKey == "" {
				apiKey = a.cfg.Run.APIKey
			}
			models, err := a.buildProvider(baseURL, apiKey).ListModels(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range models {
				fmt.Println(m.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Endpoint base URL")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Bearer credential")
	return cmd
}

func newConfigCommand(configFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(*configFlag); err == nil {
				return fmt.Errorf("%s already exists", *configFlag)
			}
			if err := config.Default().Save(*configFlag); err != nil {
				return err
			}
			fmt.Println("wrote", *configFlag)
			return nil
		},
	})
	return cmd
}
