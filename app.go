package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"pushtalk/internal/bootstrap"
	"pushtalk/internal/config"
	"pushtalk/internal/hotkey"
	"pushtalk/internal/keysource"
	"pushtalk/internal/notify"
	"pushtalk/internal/ports"
	"pushtalk/internal/textsink"
	"pushtalk/internal/usecase"
)

// App owns process lifecycle: config loading, wiring, the controller loop,
// the key-event pump, and signal handling. SIGHUP reloads configuration;
// SIGINT/SIGTERM shut down.
type App struct {
	log     *zap.SugaredLogger
	cfgPath string
	dryRun  bool
}

func NewApp(log *zap.SugaredLogger, cfgPath string, dryRun bool) *App {
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	return &App{log: log, cfgPath: cfgPath, dryRun: dryRun}
}

func (a *App) Run(ctx context.Context) error {
	_ = godotenv.Load()

	manager, err := config.NewManager(a.cfgPath, a.log)
	if err != nil {
		return err
	}
	cfg := manager.Current()

	cues := notify.NewCues(cfg.Cues.Enabled, a.log)
	indicator := notify.NewLogIndicator(a.log, cues)

	var sink ports.TextSink = textsink.NewClipboard(a.log)
	if a.dryRun {
		sink = textsink.NewLogger(a.log)
	}

	services, err := bootstrap.Build(cfg, indicator, sink, a.log)
	if err != nil {
		return err
	}
	controller := services.Controller

	runCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- controller.Run(runCtx)
	}()

	source := a.openKeySource(services.Gesture, controller)
	defer func() {
		if source != nil {
			_ = source.Close()
		}
	}()

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(reload)

	a.log.Infow("dictation ready", "gesture", services.Gesture.String())

	for {
		select {
		case <-reload:
			next, err := manager.Reload()
			if err != nil {
				continue
			}
			controller.UpdateConfig(bootstrap.ControllerConfig(next, indicator, a.log))
			if source != nil {
				_ = source.Close()
			}
			source = a.openKeySource(mustGesture(next), controller)
		case <-runCtx.Done():
			err := <-loopDone
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

// openKeySource registers the gesture with the OS and pumps its events into
// the controller. Gestures the backend cannot observe leave the hotkey
// disabled; commands over any control surface still work.
func (a *App) openKeySource(g hotkey.Gesture, controller *usecase.Controller) *keysource.Source {
	source, err := keysource.New(g, a.log)
	if err != nil {
		a.log.Warnw("hotkey unavailable", "gesture", g.String(), "error", err)
		return nil
	}
	go func() {
		for ev := range source.Events() {
			controller.HandleKey(ev)
		}
	}()
	return source
}

func mustGesture(cfg config.Config) hotkey.Gesture {
	g, err := cfg.Gesture()
	if err != nil {
		return hotkey.Disabled()
	}
	return g
}
