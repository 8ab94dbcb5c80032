package main

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/hemebond/PyWO/internal/api"
	"github.com/hemebond/PyWO/internal/config"
	"github.com/hemebond/PyWO/internal/dispatch"
	"github.com/hemebond/PyWO/internal/hotkeys"
	"github.com/hemebond/PyWO/internal/ipc"
	"github.com/hemebond/PyWO/internal/platform"
	"github.com/hemebond/PyWO/internal/x11"
)

func setupLogging(lc config.LoggingConfig) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	level, err := log.ParseLevel(lc.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if lc.File != "" {
		f, err := os.OpenFile(lc.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Warn("Cannot open log file [", err, "]")
		} else {
			log.SetOutput(io.MultiWriter(os.Stderr, f))
		}
	}
}

func runDaemon() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration [", err, "]")
	}
	setupLogging(cfg.Logging)

	conn, err := x11.NewConnection()
	if err != nil {
		log.Fatal("Failed to connect to X server [", err, "]")
	}

	backend := platform.NewX(conn)
	defer backend.Disconnect()

	pipeline := dispatch.New(backend, dispatch.Options{Grid: cfg.Grid.Grid()})
	go pipeline.Run()

	manager := hotkeys.NewManager(conn, pipeline)
	bindings, err := cfg.CompiledBindings()
	if err != nil {
		log.Fatal("Invalid bindings [", err, "]")
	}
	if err := manager.Bind(bindings); err != nil {
		log.Fatal("Failed to grab hotkeys [", err, "]")
	}

	var ipcServer *ipc.Server
	var apiServer *api.Server

	// Reload re-reads the config file and applies it to every component.
	// On any error the previous configuration stays fully in effect,
	// except that hotkeys may already be rebound. A changed API listen
	// address needs a daemon restart.
	reload := func() error {
		newCfg, err := config.Load()
		if err != nil {
			return err
		}
		newBindings, err := newCfg.CompiledBindings()
		if err != nil {
			return err
		}
		if err := manager.Bind(newBindings); err != nil {
			return err
		}
		pipeline.Reset(newCfg.Grid.Grid())
		ipcServer.UpdateConfig(newCfg)
		if apiServer != nil {
			apiServer.UpdateConfig(newCfg)
		}
		setupLogging(newCfg.Logging)
		log.Info("Configuration reloaded")
		return nil
	}

	ipcServer, err = ipc.NewServer(cfg, pipeline, backend, reload)
	if err != nil {
		log.Fatal("Failed to create IPC server [", err, "]")
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatal("Failed to start IPC server [", err, "]")
	}
	defer ipcServer.Stop()

	if cfg.API.Listen != "" {
		apiServer = api.NewServer(cfg.API.Listen, pipeline, backend, cfg)
		if err := apiServer.Start(); err != nil {
			log.Fatal("Failed to start API server [", err, "]")
		}
		defer apiServer.Stop()
	}

	if err := backend.Watch(pipeline.HandleEvent); err != nil {
		log.Fatal("Failed to watch for window events [", err, "]")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		for sig := range sigCh {
			switch sig {
			case syscall.SIGHUP:
				log.Info("Received SIGHUP, reloading configuration")
				if err := reload(); err != nil {
					log.Error("Reload failed [", err, "]")
				}
			default:
				log.Info("Shutting down")
				ipcServer.Stop()
				if apiServer != nil {
					apiServer.Stop()
				}
				pipeline.Stop()
				manager.Unbind()
				backend.Disconnect()
				os.Exit(0)
			}
		}
	}()

	log.Info("Daemon running [grid ", cfg.Grid.Columns, "x", cfg.Grid.Rows, ", ", len(bindings), " bindings]")
	backend.EventLoop()
}
