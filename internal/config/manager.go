package config

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Manager holds the current configuration snapshot and supports on-demand
// reload. The snapshot is replaced atomically; readers never observe a
// half-applied configuration and there is no process-wide singleton.
type Manager struct {
	path string
	log  *zap.SugaredLogger
	cur  atomic.Pointer[Config]
}

// NewManager loads the initial configuration from path.
func NewManager(path string, log *zap.SugaredLogger) (*Manager, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	m := &Manager{path: path, log: log}
	m.cur.Store(&cfg)
	return m, nil
}

// Current returns the active configuration snapshot.
func (m *Manager) Current() Config {
	return *m.cur.Load()
}

// Reload re-reads the file and environment and replaces the snapshot. On
// failure the previous configuration stays in effect.
func (m *Manager) Reload() (Config, error) {
	cfg, err := Load(m.path)
	if err != nil {
		m.log.Errorw("config reload failed, keeping previous configuration", "path", m.path, "error", err)
		return m.Current(), err
	}
	m.cur.Store(&cfg)
	m.log.Infow("configuration reloaded", "path", m.path)
	return cfg, nil
}
