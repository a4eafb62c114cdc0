package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"fabrica-hq/vulcan/pkg/bundle"
)

// ReloadHook is called after each reload attempt with the outcome.
type ReloadHook func(ok bool)

// Manager loads and holds the active bundle.
type Manager struct {
	dir     string
	current atomic.Pointer[bundle.Bundle]
	logger  *slog.Logger

	hookMu sync.RWMutex
	hooks  []ReloadHook

	watcher *FileWatcher
}

// New creates a Manager for the bundle directory. The initial load must
// succeed; a service never starts on an invalid bundle.
func New(dir string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		dir:    dir,
		logger: logger.With("component", "bundle.manager"),
	}

	b, err := bundle.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("loading initial bundle: %w", err)
	}
	m.current.Store(b)
	m.logger.Info("bundle loaded",
		"dir", dir,
		"version", b.Manifest.BundleVersion,
		"rules", len(b.Rules),
	)
	return m, nil
}

// Current returns the active bundle. Never nil after New succeeds.
func (m *Manager) Current() *bundle.Bundle {
	return m.current.Load()
}

// OnReload registers a hook invoked after every reload attempt.
func (m *Manager) OnReload(hook ReloadHook) {
	m.hookMu.Lock()
	defer m.hookMu.Unlock()
	m.hooks = append(m.hooks, hook)
}

// Reload re-reads the bundle directory and swaps in the new bundle if it
// validates. On failure the active bundle is unchanged.
func (m *Manager) Reload() error {
	b, err := bundle.Load(m.dir)
	if err != nil {
		m.notify(false)
		m.logger.Error("bundle reload failed, keeping previous bundle", "error", err)
		return err
	}

	prev := m.current.Swap(b)
	m.notify(true)
	m.logger.Info("bundle reloaded",
		"previous_version", prev.Manifest.BundleVersion,
		"version", b.Manifest.BundleVersion,
	)
	return nil
}

// Watch hot-reloads the bundle when files under the bundle directory
// change. Blocks until ctx is cancelled.
func (m *Manager) Watch(ctx context.Context, cfg *FileWatcherConfig) error {
	if cfg == nil {
		cfg = DefaultFileWatcherConfig()
	}
	cfg.Path = m.dir

	watcher, err := NewFileWatcher(cfg, m.logger)
	if err != nil {
		return err
	}
	m.watcher = watcher

	return watcher.Watch(ctx, func() error {
		return m.Reload()
	})
}

// Stop halts the watcher if one is running.
func (m *Manager) Stop() error {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Stop()
}

func (m *Manager) notify(ok bool) {
	m.hookMu.RLock()
	hooks := m.hooks
	m.hookMu.RUnlock()
	for _, hook := range hooks {
		hook(ok)
	}
}
