// Package tlsmgr provisions listener certificates automatically via ACME,
// as an alternative to the static cert/key pair a TLSSpec can name directly.
package tlsmgr

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/acme/autocert"

	"github.com/ridgewayhq/ridgeway/pkg/log"
)

// Config describes one listener's ACME provisioning.
type Config struct {
	Domains   []string
	Email     string
	CacheDir  string
	AcceptTOS bool
}

func (c Config) validate() error {
	if len(c.Domains) == 0 {
		return fmt.Errorf("tlsmgr: at least one domain is required")
	}
	if c.Email == "" {
		return fmt.Errorf("tlsmgr: an account email is required")
	}
	if !c.AcceptTOS {
		return fmt.Errorf("tlsmgr: AcceptTOS must be set")
	}
	return nil
}

// Manager wraps an autocert.Manager, adding a periodic expiry check the
// teacher's equivalent ran daily; autocert already renews on demand, so
// this only logs domains approaching expiry rather than forcing renewal.
type Manager struct {
	cfg     Config
	manager *autocert.Manager
	logger  log.Logger

	mu      sync.Mutex
	stop    chan struct{}
	started bool
}

// New builds a Manager. cacheDir defaults to "./acme-cache" and is created
// if missing.
func New(cfg Config, logger log.Logger) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = "./acme-cache"
	}
	if err := os.MkdirAll(cacheDir, 0o700); err != nil {
		return nil, fmt.Errorf("tlsmgr: create cache dir: %w", err)
	}

	return &Manager{
		cfg: cfg,
		manager: &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			Cache:      autocert.DirCache(cacheDir),
			HostPolicy: autocert.HostWhitelist(cfg.Domains...),
			Email:      cfg.Email,
		},
		logger: logger,
		stop:   make(chan struct{}),
	}, nil
}

// TLSConfig returns a *tls.Config whose GetCertificate resolves certificates
// on demand from the ACME manager, suitable for acceptor.WithTLS.
func (m *Manager) TLSConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: m.manager.GetCertificate,
		NextProtos:     []string{"h2", "http/1.1"},
		MinVersion:     tls.VersionTLS12,
	}
}

// HTTPHandler wraps next so ACME HTTP-01 challenge requests are served
// directly and everything else falls through, for use on a plaintext
// listener alongside the TLS one.
func (m *Manager) HTTPHandler(next http.Handler) http.Handler {
	return m.manager.HTTPHandler(next)
}

// Run starts the background expiry watcher; it blocks until ctx-like stop
// via Close. Callers run it in its own goroutine.
func (m *Manager) Run() {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.checkExpiry()
		}
	}
}

// Close stops the background expiry watcher.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return
	}
	close(m.stop)
	m.started = false
}

func (m *Manager) checkExpiry() {
	for _, domain := range m.cfg.Domains {
		cert, err := m.manager.GetCertificate(&tls.ClientHelloInfo{ServerName: domain})
		if err != nil {
			m.logger.Warn("acme certificate lookup failed", log.String("domain", domain), log.Err(err))
			continue
		}
		if len(cert.Certificate) == 0 {
			continue
		}
		parsed, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			continue
		}
		if until := time.Until(parsed.NotAfter); until < 30*24*time.Hour {
			m.logger.Info("acme certificate nearing expiry", log.String("domain", domain), log.Duration("expires_in", until))
		}
	}
}
