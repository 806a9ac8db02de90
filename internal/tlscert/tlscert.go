// Package tlscert loads the TLS acceptor's certificate chain and private
// key and builds a *tls.Config for the TLS-terminating listener variant.
// The acceptor itself (wrapping an accepted net.Conn in a TLS handshake) is
// stdlib crypto/tls — this package only owns the startup-time loading step
// the spec calls out as an external collaborator.
package tlscert

import (
	"crypto/tls"
	"fmt"
)

// LoadError reports a failure to load the certificate chain or key file at
// startup. Grounded on the teacher's wrapped-error types (e.g. ConfigError):
// a named struct carrying the failing file path and the underlying error,
// satisfying Unwrap so callers can errors.Is/As against the cause.
type LoadError struct {
	CertFile string
	KeyFile  string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("tlscert: failed to load cert %q / key %q: %v", e.CertFile, e.KeyFile, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads a PEM certificate chain and PKCS#8 private key from disk and
// returns a tls.Config ready to wrap accepted connections. A missing or
// invalid file is a fatal startup error per the spec: there is no fallback
// to plaintext, and no hot-reload of rotated certificates — the process
// must be restarted to pick up a new certificate.
func Load(certFile, keyFile string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, &LoadError{CertFile: certFile, KeyFile: keyFile, Err: err}
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
