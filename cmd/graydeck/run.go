package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-deck/internal/api"
	"github.com/nerrad567/gray-logic-deck/internal/audit"
	"github.com/nerrad567/gray-logic-deck/internal/deck"
	"github.com/nerrad567/gray-logic-deck/internal/device"
	"github.com/nerrad567/gray-logic-deck/internal/engine"
	"github.com/nerrad567/gray-logic-deck/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-deck/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-deck/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-deck/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-deck/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-deck/internal/layout"
	"github.com/nerrad567/gray-logic-deck/internal/script"
	"github.com/nerrad567/gray-logic-deck/internal/window"
	"github.com/nerrad567/gray-logic-deck/migrations"
)

// keyBuffer and windowBuffer size the channels between the device or
// window watcher and the engine.
const (
	keyBuffer    = 32
	windowBuffer = 8
)

func newRunCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive the deck until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configPath == "" {
				configPath = getConfigPath()
			}
			return run(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default $GRAYDECK_CONFIG or "+defaultConfigPath+")")
	return cmd
}

// run wires the daemon together and blocks until ctx is cancelled or a
// component fails. Returning an error lets main handle exit codes.
func run(ctx context.Context, configPath string) error { //nolint:gocognit,gocyclo // startup wiring
	log := logging.Default()
	log.Info("starting graydeck",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "deck_id", cfg.Deck.ID)

	l, err := layout.Load(cfg.Deck.Layout)
	if err != nil {
		return fmt.Errorf("loading layout: %w", err)
	}
	model, err := device.LookupModel(cfg.Deck.Model)
	if err != nil {
		return err
	}

	state, err := deck.New(l, model.Grid(), model.ImageSize, deck.WithLogger(log.Component("deck")))
	if err != nil {
		return fmt.Errorf("building deck state: %w", err)
	}

	sink, hid, err := openDeck(cfg.Deck, model, log)
	if err != nil {
		return err
	}
	if hid != nil {
		defer func() {
			log.Info("closing deck")
			if closeErr := hid.Close(); closeErr != nil {
				log.Error("error closing deck", "error", closeErr)
			}
		}()
	}

	runner := script.NewRunner(script.Config{
		Interpreter: cfg.Script.Interpreter,
		Args:        cfg.Script.Args,
		Env:         cfg.Script.Env,
		WorkDir:     cfg.Script.WorkDir,
		APIURL:      cfg.APIBaseURL(),
	})
	runner.SetLogger(log.Component("script"))

	opts := []engine.Option{
		engine.WithLogger(log.Component("engine")),
		engine.WithQueueSize(cfg.Deck.QueueSize),
	}
	checks := make(map[string]api.HealthChecker)

	// Audit log (optional)
	var history api.History
	var sqlDB *sql.DB
	if cfg.Database.Enabled {
		db, openErr := database.Open(database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if openErr != nil {
			return fmt.Errorf("opening database: %w", openErr)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("database ready", "path", db.Path())

		repo := audit.NewSQLiteRepository(db.DB)
		opts = append(opts, engine.WithRepository(repo))
		history = repo
		sqlDB = db.DB
		checks["database"] = db
	} else {
		log.Info("audit log disabled")
	}

	// MQTT (optional)
	var mqttClient *mqtt.Client
	var connReporter api.ConnectionReporter
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT, cfg.Deck.ID)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.Component("mqtt"))
		mqttClient.SetOnConnect(func() { log.Info("MQTT connected") })
		mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })

		opts = append(opts, engine.WithPublisher(mqttClient))
		connReporter = mqttClient
		checks["mqtt"] = mqttClient
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB (optional)
	influxClient, err := influxdb.Connect(cfg.InfluxDB, cfg.Deck.ID)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		opts = append(opts, engine.WithTelemetry(influxClient))
		checks["influxdb"] = influxClient
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	hub := api.NewHub(cfg.WebSocket, log)
	opts = append(opts, engine.WithHub(hub))
	eng := engine.New(state, sink, runner, opts...)

	if mqttClient != nil {
		topic := mqttClient.Topics().AllCommands()
		//nolint:gosec // QoS is validated to 0..2
		if subErr := mqttClient.Subscribe(topic, byte(cfg.MQTT.QoS), eng.HandleCommand); subErr != nil {
			return fmt.Errorf("subscribing to commands: %w", subErr)
		}
		log.Info("listening for MQTT commands", "topic", topic)
	}

	if cfg.API.Enabled {
		server, apiErr := api.New(api.Deps{
			Config:  cfg.API,
			WS:      cfg.WebSocket,
			Logger:  log.Component("api"),
			Deck:    eng,
			History: history,
			Hub:     hub,
			Checks:  checks,
			MQTT:    connReporter,
			DB:      sqlDB,
			Version: version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API disabled")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return ignoreShutdown(eng.Run(gctx))
	})
	if hid != nil {
		g.Go(func() error {
			return forwardKeys(gctx, hid, eng)
		})
	}
	if cfg.Window.Enabled {
		g.Go(func() error {
			forwardWindows(gctx, eng, log)
			return nil
		})
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	err = g.Wait()

	log.Info("graydeck stopped")
	return err
}

// openDeck opens the configured hardware, or a virtual deck. hid is nil
// for virtual decks.
func openDeck(cfg config.DeckConfig, model device.Model, log *logging.Logger) (engine.Sink, *device.HID, error) {
	if cfg.Virtual {
		v := device.NewVirtual(model)
		//nolint:errcheck // virtual decks cannot fail
		v.SetBrightness(cfg.Brightness)
		log.Info("using virtual deck", "model", model.Name)
		return v, nil, nil
	}

	d, err := device.Open(model, cfg.Serial)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s deck: %w", model.Name, err)
	}
	if err := d.Reset(); err != nil {
		log.Warn("deck reset failed", "error", err)
	}
	if err := d.SetBrightness(cfg.Brightness); err != nil {
		log.Warn("setting brightness failed", "error", err)
	}
	log.Info("deck opened", "model", model.Name, "serial", d.Serial())
	return d, d, nil
}

// forwardKeys turns device key reports into engine events. It returns
// when ctx is cancelled or the device fails.
func forwardKeys(ctx context.Context, d *device.HID, eng *engine.Engine) error {
	keys := make(chan device.KeyEvent, keyBuffer)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ignoreShutdown(d.Listen(gctx, keys))
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case k := <-keys:
				err := eng.Submit(gctx, engine.ButtonEvent{Slot: k.Slot, Pressed: k.Pressed, Source: engine.SourceDevice})
				if err != nil && gctx.Err() == nil {
					return fmt.Errorf("submitting key event: %w", err)
				}
			}
		}
	})
	return g.Wait()
}

// forwardWindows feeds foreground window changes to the engine. A missing
// X display only disables automatic page switching.
func forwardWindows(ctx context.Context, eng *engine.Engine, log *logging.Logger) {
	infos := make(chan window.Info, windowBuffer)
	watcher := window.NewX11Watcher()
	watcher.SetLogger(log.Component("window"))

	done := make(chan error, 1)
	go func() { done <- watcher.Start(ctx, infos) }()

	for {
		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("window watcher stopped, pages will not follow focus", "error", err)
			}
			return
		case info := <-infos:
			if err := eng.Submit(ctx, engine.WindowEvent{Info: info}); err != nil && ctx.Err() == nil {
				log.Warn("window event dropped", "error", err)
			}
		}
	}
}

// ignoreShutdown drops the error a component returns when ctx ends.
func ignoreShutdown(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
