package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileProvider reads secrets from one file per secret in a directory, the
// layout produced by mounted container secrets. Files must be mode 0600 or
// 0400. With Watch enabled the provider drops its cache whenever a file in
// the directory is written, created or removed.
type FileProvider struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	values  map[string]string
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewFileProvider opens dir as a secrets directory.
func NewFileProvider(dir string, watch bool) (*FileProvider, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat secrets directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("secrets path is not a directory: %s", dir)
	}

	p := &FileProvider{
		dir:    dir,
		logger: slog.Default().With("component", "secrets.file"),
		values: make(map[string]string),
		done:   make(chan struct{}),
	}

	if watch {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("failed to create file watcher: %w", err)
		}
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("failed to watch secrets directory: %w", err)
		}
		p.watcher = w
		go p.watch()
	}

	p.logger.Info("secrets directory opened", "path", dir, "watch", watch)
	return p, nil
}

// Lookup reads the file named after the secret.
func (p *FileProvider) Lookup(ctx context.Context, name string) (string, error) {
	p.mu.RLock()
	value, ok := p.values[name]
	p.mu.RUnlock()
	if ok {
		return value, nil
	}

	path, err := p.resolve(name)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("failed to stat secret file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("secret path is not a regular file: %s", name)
	}
	if mode := info.Mode().Perm(); mode != 0600 && mode != 0400 {
		return "", fmt.Errorf("insecure permissions on %s: %o (expected 0600 or 0400)", path, mode)
	}

	// #nosec G304 - path is confined to dir by resolve
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file: %w", err)
	}
	value = strings.TrimSpace(string(data))

	p.mu.Lock()
	p.values[name] = value
	p.mu.Unlock()

	return value, nil
}

// Names lists the regular files in the directory.
func (p *FileProvider) Names(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// Name returns "file".
func (p *FileProvider) Name() string {
	return "file"
}

// Refresh drops every cached value.
func (p *FileProvider) Refresh(ctx context.Context) error {
	p.mu.Lock()
	p.values = make(map[string]string)
	p.mu.Unlock()
	return nil
}

// Close stops the watcher if one is running.
func (p *FileProvider) Close() error {
	if p.watcher == nil {
		return nil
	}
	close(p.done)
	return p.watcher.Close()
}

// resolve joins name onto dir and rejects paths that escape it.
func (p *FileProvider) resolve(name string) (string, error) {
	base, err := filepath.Abs(p.dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve secrets directory: %w", err)
	}
	path, err := filepath.Abs(filepath.Join(p.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to resolve secret path: %w", err)
	}
	if !strings.HasPrefix(path, base+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid secret name %q: outside secrets directory", name)
	}
	return path, nil
}

func (p *FileProvider) watch() {
	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename
	for {
		select {
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if event.Op&relevant == 0 {
				continue
			}
			p.logger.Debug("secret file changed",
				"file", filepath.Base(event.Name),
				"op", event.Op.String(),
			)
			_ = p.Refresh(context.Background())

		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("secrets watcher error", "error", err)

		case <-p.done:
			return
		}
	}
}
