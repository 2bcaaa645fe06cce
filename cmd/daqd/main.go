// Command daqd is a minimal demonstration host for daqcore: it wires a
// simulated camera, stage, and sensor into a Device Registry, starts a
// Run Engine against them, and runs one demo plan to completion,
// grounded on the teacher's cmd/ublk-mem/main.go for its flag parsing,
// logging setup, and signal handling.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/easternanemone/daqcore/devices"
	"github.com/easternanemone/daqcore/internal/document"
	"github.com/easternanemone/daqcore/internal/fae"
	"github.com/easternanemone/daqcore/internal/logging"
	"github.com/easternanemone/daqcore/internal/registry"
	"github.com/easternanemone/daqcore/internal/runengine"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to a daqd YAML config (defaults to the built-in demo config)")
		verbose    = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfig(*configPath)
		if err != nil {
			logger.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	reg := registry.New()
	var detectors []string
	var movers []string

	if cfg.Camera.Enabled {
		sdk := fae.NewMockVendorSDK()
		engine := fae.NewEngine("camera1", sdk)
		cam := devices.NewCamera("camera1", engine)
		if err := reg.Add(cam); err != nil {
			logger.Error("failed to register camera", "error", err)
			os.Exit(1)
		}
		detectors = append(detectors, "camera1")
		logger.Info("registered simulated camera", "id", "camera1",
			"width", cfg.Camera.Resolution.Width, "height", cfg.Camera.Resolution.Height)
	}

	if cfg.Stage.Enabled {
		stage := devices.NewStage(cfg.Stage.ID, cfg.Stage.settleDelay())
		if err := reg.Add(stage); err != nil {
			logger.Error("failed to register stage", "error", err)
			os.Exit(1)
		}
		movers = append(movers, cfg.Stage.ID)
		logger.Info("registered simulated stage", "id", cfg.Stage.ID)
	}

	if cfg.Sensor.Enabled {
		sensor := devices.NewSensor(cfg.Sensor.ID, cfg.Sensor.Base, cfg.Sensor.Jitter)
		if err := reg.Add(sensor); err != nil {
			logger.Error("failed to register sensor", "error", err)
			os.Exit(1)
		}
		logger.Info("registered simulated sensor", "id", cfg.Sensor.ID)
	}

	engine := runengine.New(reg)

	sub, _, unsub := engine.Documents().Subscribe()
	defer unsub()
	go func() {
		for doc := range sub {
			logger.Info("document", "kind", int(doc.Kind), "run_id", doc.RunID)
		}
	}()

	plan := buildDemoPlan(cfg, movers, detectors)
	runUID := engine.Queue(plan, map[string]any{"operator": "daqd-demo"})
	logger.Info("queued demo plan", "run_uid", runUID)

	if err := engine.Start(); err != nil {
		logger.Error("failed to start run", "error", err)
		os.Exit(1)
	}

	installStackDumpHandler(logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	deadline := time.After(30 * time.Second)
	for {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal")
			_ = engine.Halt("operator shutdown")
			waitIdle(engine, 2*time.Second)
			return
		case <-deadline:
			logger.Warn("demo run did not finish within timeout, halting")
			_ = engine.Halt("demo timeout")
			waitIdle(engine, 2*time.Second)
			return
		default:
			if engine.State() == runengine.StateIdle {
				logger.Info("demo run complete")
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
	}
}

func buildDemoPlan(cfg *Config, movers, detectors []string) document.Plan {
	var commands []document.Command
	if cfg.Stage.Enabled {
		commands = append(commands, document.MoveTo(cfg.Stage.ID, cfg.Stage.TravelMin))
	}
	if cfg.Sensor.Enabled {
		commands = append(commands, document.Read(cfg.Sensor.ID))
	}
	commands = append(commands, document.EmitEvent("primary", nil, movers))
	if cfg.Stage.Enabled {
		commands = append(commands, document.MoveTo(cfg.Stage.ID, cfg.Stage.TravelMax))
	}
	if cfg.Sensor.Enabled {
		commands = append(commands, document.Read(cfg.Sensor.ID))
	}
	commands = append(commands, document.EmitEvent("primary", nil, movers))

	return document.NewPlan("daqd-demo", "count", movers, detectors, commands)
}

func waitIdle(e *runengine.Engine, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if e.State() == runengine.StateIdle {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func installStackDumpHandler(logger *logging.Logger) {
	stackDumpCh := make(chan os.Signal, 1)
	signal.Notify(stackDumpCh, syscall.SIGUSR1)
	go func() {
		for range stackDumpCh {
			buf := make([]byte, 1024*1024)
			n := runtime.Stack(buf, true)
			fmt.Fprintf(os.Stderr, "\n=== GOROUTINE STACK DUMP ===\n%s\n=== END ===\n\n", buf[:n])
			pprof.Lookup("goroutine").WriteTo(os.Stderr, 2)
			logger.Info("goroutine stack dump written to stderr")
		}
	}()
}
