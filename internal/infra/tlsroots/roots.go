package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// ErrNoCertsFound is returned when a CA bundle holds no certificates.
var ErrNoCertsFound = errors.New("tlsroots: no certificates in CA bundle")

// Roots is the set of authorities trusted when dialing upstream origins:
// the system roots plus any added bundles.
type Roots struct {
	pool  *x509.CertPool
	added int
}

// SystemRoots returns the system roots, or an empty set on platforms
// without a readable system store.
func SystemRoots() *Roots {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	return &Roots{pool: pool}
}

// LoadPool returns the system roots extended with the PEM bundle at
// caFile. An empty caFile yields the system roots alone.
func LoadPool(caFile string) (*Roots, error) {
	r := SystemRoots()
	if caFile == "" {
		return r, nil
	}

	data, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("tlsroots: read CA bundle: %w", err)
	}
	if _, err := r.AppendPEM(data); err != nil {
		return nil, fmt.Errorf("tlsroots: %s: %w", caFile, err)
	}
	return r, nil
}

// AppendPEM adds every CERTIFICATE block in data and returns how many were
// added. Other block types are skipped.
func (r *Roots) AppendPEM(data []byte) (int, error) {
	n := 0
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return n, fmt.Errorf("parse certificate %d: %w", n+1, err)
		}
		r.pool.AddCert(cert)
		n++
	}
	if n == 0 {
		return 0, ErrNoCertsFound
	}
	r.added += n
	return n, nil
}

// Added returns the number of certificates added beyond the system roots.
func (r *Roots) Added() int {
	return r.added
}

// TLSConfig returns an upstream client config trusting r.
func (r *Roots) TLSConfig() *tls.Config {
	return &tls.Config{
		RootCAs:    r.pool,
		MinVersion: tls.VersionTLS12,
	}
}
