package bootstrap

import (
	"go.uber.org/zap"

	"pushtalk/internal/audio"
	"pushtalk/internal/config"
	"pushtalk/internal/ports"
)

func newCapture(cfg config.Config, log *zap.SugaredLogger) ports.AudioCapture {
	if cfg.Audio.Backend == config.BackendPortAudio {
		return audio.NewPortAudioCapture(cfg.Audio.VADMode, log)
	}
	return audio.NewFFmpegCapture(cfg.Audio.FFmpegCommand, cfg.Audio.VADMode, log)
}
