package tls

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// CertificateReloader serves the current certificate pair and reloads it
// when the files change.
type CertificateReloader struct {
	certFile string
	keyFile  string
	now      func() time.Time
	logger   *slog.Logger

	mu   sync.RWMutex
	cert *tls.Certificate
}

// NewCertificateReloader loads the pair once. It fails when the files are
// missing or the certificate is not currently valid.
func NewCertificateReloader(certFile, keyFile string) (*CertificateReloader, error) {
	r := &CertificateReloader{
		certFile: certFile,
		keyFile:  keyFile,
		now:      time.Now,
		logger:   slog.Default().With("component", "tls"),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload reads the pair from disk. On failure the previous certificate
// stays in use.
func (r *CertificateReloader) Reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load certificate: %w", err)
	}
	now := r.now()
	leaf, err := ValidateCertificate(&cert, now)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.cert = &cert
	r.mu.Unlock()

	attrs := []any{
		"subject", leaf.Subject.CommonName,
		"expires_at", leaf.NotAfter.Format(time.RFC3339),
	}
	if ExpiresSoon(leaf, now) {
		r.logger.Warn("certificate expiring soon", attrs...)
	} else {
		r.logger.Info("certificate loaded", attrs...)
	}
	return nil
}

// Watch reloads the pair on file changes until ctx is done. The parent
// directories are watched so that atomic renames are seen.
func (r *CertificateReloader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	dirs := map[string]bool{filepath.Dir(r.certFile): true, filepath.Dir(r.keyFile): true}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !r.concerns(ev.Name) || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				if err := r.Reload(); err != nil {
					r.logger.Error("failed to reload certificate", "error", err, "cert_file", r.certFile)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.logger.Warn("certificate watcher error", "error", err)
			}
		}
	}()
	return nil
}

func (r *CertificateReloader) concerns(name string) bool {
	name = filepath.Clean(name)
	return name == filepath.Clean(r.certFile) || name == filepath.Clean(r.keyFile)
}

// Certificate returns the current certificate.
func (r *CertificateReloader) Certificate() *tls.Certificate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert
}

// GetCertificate is usable as tls.Config.GetCertificate.
func (r *CertificateReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return r.Certificate(), nil
}
