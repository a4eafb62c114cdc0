// Package git syncs a rule bundle from a git repository. The repository
// is cloned to a local working directory; the bundle loader then reads
// the bundle tables from a subdirectory of the checkout.
package git

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"fabrica-hq/vulcan/pkg/config"
)

// Source manages a git-hosted bundle checkout.
type Source struct {
	config    config.GitConfig
	localPath string
	repo      *gogit.Repository
	mu        sync.Mutex
	logger    *slog.Logger
}

// NewSource creates a Source for the configured repository.
func NewSource(cfg config.GitConfig, localPath string, logger *slog.Logger) (*Source, error) {
	if cfg.Repo == "" {
		return nil, fmt.Errorf("git repository URL cannot be empty")
	}
	if cfg.Branch == "" {
		return nil, fmt.Errorf("git branch cannot be empty")
	}
	if localPath == "" {
		localPath = filepath.Join(os.TempDir(), "vulcan-bundle")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Source{
		config:    cfg,
		localPath: localPath,
		logger:    logger.With("component", "bundle.git"),
	}, nil
}

// BundleDir returns the directory holding the bundle tables within the
// checkout.
func (s *Source) BundleDir() string {
	return filepath.Join(s.localPath, s.config.Path)
}

// Clone initializes the local checkout, opening an existing one if
// present.
func (s *Source) Clone(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(filepath.Join(s.localPath, ".git")); err == nil {
		repo, err := gogit.PlainOpen(s.localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing checkout: %w", err)
		}
		s.repo = repo
		s.logger.Info("opened existing bundle checkout", "path", s.localPath)
		return nil
	}

	if err := os.MkdirAll(s.localPath, 0o755); err != nil {
		return fmt.Errorf("failed to create checkout directory: %w", err)
	}

	repo, err := gogit.PlainCloneContext(ctx, s.localPath, false, &gogit.CloneOptions{
		URL:           s.config.Repo,
		ReferenceName: plumbing.NewBranchReferenceName(s.config.Branch),
		SingleBranch:  true,
		Depth:         1,
	})
	if err != nil {
		return fmt.Errorf("failed to clone bundle repository: %w", err)
	}

	s.repo = repo
	s.logger.Info("cloned bundle repository",
		"repo", s.config.Repo,
		"branch", s.config.Branch,
		"path", s.localPath,
	)
	return nil
}

// Pull fetches upstream changes. It reports whether the checkout moved.
func (s *Source) Pull(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo == nil {
		return false, fmt.Errorf("checkout not initialized, call Clone first")
	}

	worktree, err := s.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}

	err = worktree.PullContext(ctx, &gogit.PullOptions{
		ReferenceName: plumbing.NewBranchReferenceName(s.config.Branch),
		SingleBranch:  true,
	})
	switch err {
	case nil:
		s.logger.Info("bundle checkout updated")
		return true, nil
	case gogit.NoErrAlreadyUpToDate:
		return false, nil
	default:
		return false, fmt.Errorf("failed to pull bundle repository: %w", err)
	}
}

// Poll pulls on the configured interval, invoking onChange after each
// pull that moved the checkout. Blocks until ctx is cancelled. With a
// zero interval it returns immediately.
func (s *Source) Poll(ctx context.Context, onChange func() error) error {
	interval := s.config.SyncInterval
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			changed, err := s.Pull(ctx)
			if err != nil {
				s.logger.Error("bundle sync failed", "error", err)
				continue
			}
			if changed && onChange != nil {
				if err := onChange(); err != nil {
					s.logger.Error("bundle reload after sync failed", "error", err)
				}
			}
		}
	}
}
