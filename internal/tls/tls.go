package tls

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Default file names used by GenerateDir.
const (
	CACertFile = "tls_ca.crt"
	CertFile   = "tls.crt"
	KeyFile    = "tls.key"
)

// ParseVersion parses a TLS version string. Empty selects TLS 1.2.
func ParseVersion(ver string) (uint16, error) {
	switch strings.ToLower(strings.TrimSpace(ver)) {
	case "", "default", "1.2", "tls1.2":
		return tls.VersionTLS12, nil
	case "1.3", "tls1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("unsupported TLS version %q", ver)
	}
}

// safeReadFile reads file content safely within base directory
func safeReadFile(baseDir, p string) ([]byte, error) {
	clean := filepath.Clean(p)
	if baseDir != "" {
		absBase, _ := filepath.Abs(baseDir)
		absFile, _ := filepath.Abs(clean)
		if !strings.HasPrefix(absFile, absBase+string(filepath.Separator)) && absFile != absBase {
			return nil, errors.New("file path outside of allowed directory")
		}
	}
	return os.ReadFile(clean)
}

// getCertificationFunc reloads the key pair on every handshake so renewed
// certificates apply without a restart.
func getCertificationFunc(certFile, keyFile string) func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	certDir := filepath.Dir(certFile)
	keyDir := filepath.Dir(keyFile)
	return func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
		if readCert, err := safeReadFile(certDir, certFile); err != nil {
			return nil, err
		} else if readKey, err := safeReadFile(keyDir, keyFile); err != nil {
			return nil, err
		} else {
			certificate, err := tls.X509KeyPair(readCert, readKey)
			return &certificate, err
		}
	}
}

// Setup returns the server TLS configuration, or nil when neither file is
// set. The pair is checked once up front so a bad path fails at startup.
func Setup(certFile, keyFile, minVersion string) (*tls.Config, error) {
	if certFile == "" && keyFile == "" {
		return nil, nil
	}
	if certFile == "" || keyFile == "" {
		return nil, errors.New("TLS needs both a certificate and a key file")
	}
	minVer, err := ParseVersion(minVersion)
	if err != nil {
		return nil, err
	}
	if _, err := tls.LoadX509KeyPair(certFile, keyFile); err != nil {
		return nil, fmt.Errorf("load TLS key pair: %w", err)
	}
	// #nosec G402 minimum version is configurable down to 1.2 only
	return &tls.Config{
		GetCertificate: getCertificationFunc(certFile, keyFile),
		MinVersion:     minVer,
	}, nil
}

func certificatesExist(certPath, keyPath string) bool {
	_, certErr := os.Stat(certPath)
	_, keyErr := os.Stat(keyPath)
	return certErr == nil && keyErr == nil
}

// GenerateDir writes a self-signed pair for hosts into dir unless one is
// already there, and returns the certificate and key paths.
func GenerateDir(dir string, hosts []string, validDays int) (string, string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", "", fmt.Errorf("failed to create destination directory: %w", err)
	}
	certPath := filepath.Join(dir, CertFile)
	keyPath := filepath.Join(dir, KeyFile)
	if certificatesExist(certPath, keyPath) {
		return certPath, keyPath, nil
	}
	if len(hosts) == 0 {
		hosts = []string{"localhost", "127.0.0.1"}
	}
	if validDays <= 0 {
		validDays = 365
	}
	var dns, ips []string
	for _, h := range hosts {
		if isIP(h) {
			ips = append(ips, h)
		} else {
			dns = append(dns, h)
		}
	}
	err := GenerateSelfSignedCert(CertConfig{
		CommonName:   hosts[0],
		Organization: "welltrack",
		DNSNames:     dns,
		IPAddresses:  ips,
		NotAfter:     now().AddDate(0, 0, validDays),
		CertPath:     certPath,
		KeyPath:      keyPath,
		CACertPath:   filepath.Join(dir, CACertFile),
	})
	if err != nil {
		return "", "", err
	}
	return certPath, keyPath, nil
}
