package bootstrap

import (
	"fmt"

	"go.uber.org/zap"

	"pushtalk/internal/config"
	"pushtalk/internal/domain"
	"pushtalk/internal/hotkey"
	"pushtalk/internal/ports"
	"pushtalk/internal/rules"
	"pushtalk/internal/transcribe"
	"pushtalk/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.Controller
	Gesture    hotkey.Gesture
	Config     config.Config
}

// Build wires all dictation dependencies from a configuration snapshot.
func Build(cfg config.Config, indicator ports.Indicator, sink ports.TextSink, log *zap.SugaredLogger) (Services, error) {
	rewriter, err := rules.NewEngine(cfg.Rules.Path, cfg.Rules.IterationLimit)
	if err != nil {
		return Services{}, fmt.Errorf("failed to build rules engine: %w", err)
	}
	if rewriter.Len() > 0 {
		log.Infow("substitution rules loaded", "path", cfg.Rules.Path, "rules", rewriter.Len())
	}

	transcriber := transcribe.NewWhisperCLI(
		cfg.Transcription.Command,
		cfg.Transcription.Model,
		cfg.Transcription.Language,
		log,
	)

	controllerCfg := ControllerConfig(cfg, indicator, log)
	controller := usecase.New(
		newCapture(cfg, log),
		transcriber,
		rewriter,
		sink,
		indicator,
		controllerCfg,
		log,
	)

	return Services{
		Controller: controller,
		Gesture:    controllerCfg.Gesture,
		Config:     cfg,
	}, nil
}

// ControllerConfig derives the controller tunables from a configuration
// snapshot. An invalid binding is reported once and degrades to a disabled
// gesture; the rest of the configuration still applies.
func ControllerConfig(cfg config.Config, indicator ports.Indicator, log *zap.SugaredLogger) usecase.Config {
	gesture, err := cfg.Gesture()
	if err != nil {
		indicator.DictationError(domain.ErrorCodeInvalidBinding, err.Error())
		log.Errorw("hotkey binding invalid, gesture disabled", "error", err)
	}
	return usecase.Config{
		Gesture:          gesture,
		SilenceThreshold: float32(cfg.Silence.Threshold),
		SilenceDuration:  cfg.SilenceDuration(),
		Audio: ports.AudioConfig{
			SampleRate:  cfg.Audio.SampleRate,
			Channels:    cfg.Audio.Channels,
			InputFormat: cfg.Audio.InputFormat,
			InputDevice: cfg.Audio.InputDevice,
		},
	}
}
