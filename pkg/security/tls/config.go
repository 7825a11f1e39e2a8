package tls

import (
	"crypto/tls"

	"grundbuch-online/portal/pkg/config"
)

// ServerConfig returns the HTTPS configuration for cfg, or nil when TLS is
// disabled. The returned reloader is nil in that case too.
func ServerConfig(cfg config.TLSConfig) (*tls.Config, *CertificateReloader, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}
	reloader, err := NewCertificateReloader(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, nil, err
	}
	// #nosec G402 - MinVersion is 1.2 or 1.3, validated by config
	tlsConfig := &tls.Config{
		MinVersion:     minVersion(cfg.MinVersion),
		GetCertificate: reloader.GetCertificate,
	}
	return tlsConfig, reloader, nil
}

func minVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}
