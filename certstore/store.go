// Package certstore implements a file-system certificate store queried by
// SHA-1 thumbprint, the role a machine credential store plays for the signing
// credential layer.
//
// A store is a directory of certificate files: PEM bundles carrying a
// CERTIFICATE block and optionally a private-key block, or PKCS#12 containers
// protected by the store password. Thumbprint lookup is exact and
// case-insensitive; parsed entries are cached with a TTL so repeated lookups
// do not re-read the directory.
//
// Concurrency: a Store is safe for concurrent use.
package certstore

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"software.sslmate.com/src/go-pkcs12"

	"github.com/perchsec/goSignet/internal/cache"
	"github.com/perchsec/goSignet/signet"
)

// DefaultCacheTTL is how long a parsed store entry stays cached.
const DefaultCacheTTL = 5 * time.Minute

// entry is one parsed store certificate. The signer is nil for cert-only
// files.
type entry struct {
	signer crypto.Signer
	cert   *x509.Certificate
}

// Store is a directory-backed certificate store.
type Store struct {
	dir      string
	password string
	ttl      time.Duration
	cache    cache.Cache
	log      *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPassword sets the password used to open PKCS#12 containers in the
// store directory.
func WithPassword(password string) Option {
	return func(s *Store) { s.password = password }
}

// WithCacheTTL overrides the entry cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLogger sets the logger for skipped-file diagnostics. Defaults to a
// no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Open opens the store rooted at dir.
func Open(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: store directory is required", signet.ErrInvalidArgument)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open certificate store: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", signet.ErrInvalidArgument, dir)
	}
	s := &Store{dir: dir, ttl: DefaultCacheTTL, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		c, err := cache.NewRistrettoCache(1<<12, 1<<16, 64)
		if err != nil {
			return nil, err
		}
		s.cache = c
	}
	return s, nil
}

// Lookup finds the store entry whose certificate thumbprint matches
// thumbprint (case-insensitive, ":" separators ignored). A miss returns an
// error wrapping signet.ErrCertificateNotFound. The signer is nil when the
// matching file carries no private key.
func (s *Store) Lookup(thumbprint string) (crypto.Signer, *x509.Certificate, error) {
	if thumbprint == "" {
		return nil, nil, fmt.Errorf("%w: thumbprint is required", signet.ErrInvalidArgument)
	}
	norm := normalizeThumbprint(thumbprint)

	cacheKey := "cert:" + norm
	if v, ok := s.cache.Get(cacheKey); ok {
		if e, ok := v.(*entry); ok {
			return e.signer, e.cert, nil
		}
	}

	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read certificate store: %w", err)
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		e, err := s.loadFile(filepath.Join(s.dir, f.Name()))
		if err != nil {
			s.log.Debug("skipping unreadable store file",
				zap.String("file", f.Name()), zap.Error(err))
			continue
		}
		if e == nil {
			continue
		}
		if signet.Thumbprint(e.cert) == norm {
			s.cache.Set(cacheKey, e, 1, s.ttl)
			// ristretto applies Set asynchronously
			if w, ok := s.cache.(interface{ Wait() }); ok {
				w.Wait()
			}
			return e.signer, e.cert, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: %s", signet.ErrCertificateNotFound, norm)
}

func (s *Store) loadFile(path string) (*entry, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is inside the store directory
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".p12", ".pfx":
		return loadPKCS12(data, s.password)
	case ".pem", ".crt", ".cer":
		return loadPEM(data)
	default:
		return nil, nil
	}
}

func loadPKCS12(data []byte, password string) (*entry, error) {
	priv, cert, _, err := pkcs12.DecodeChain(data, password)
	if err != nil {
		return nil, fmt.Errorf("decode pkcs12: %w", err)
	}
	e := &entry{cert: cert}
	if signer, ok := priv.(crypto.Signer); ok {
		e.signer = signer
	}
	return e, nil
}

// loadPEM parses a PEM bundle: the first CERTIFICATE block plus, when
// present, the first private-key block.
func loadPEM(data []byte) (*entry, error) {
	var e entry
	for len(data) > 0 {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		switch block.Type {
		case "CERTIFICATE":
			if e.cert != nil {
				continue
			}
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parse certificate: %w", err)
			}
			e.cert = cert
		default:
			if e.signer != nil {
				continue
			}
			signer, err := parsePrivateKey(block.Bytes)
			if err != nil {
				continue
			}
			e.signer = signer
		}
	}
	if e.cert == nil {
		return nil, fmt.Errorf("no certificate block found")
	}
	return &e, nil
}

// parsePrivateKey probes the DER encodings in common use: PKCS#1, SEC 1 and
// PKCS#8.
func parsePrivateKey(der []byte) (crypto.Signer, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(der); err == nil {
		return key, nil
	}
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("key does not implement crypto.Signer")
	}
	return signer, nil
}

func normalizeThumbprint(tp string) string {
	tp = strings.ReplaceAll(tp, ":", "")
	tp = strings.ReplaceAll(tp, " ", "")
	return strings.ToUpper(tp)
}

// Compile-time interface check.
var _ signet.CertificateStore = (*Store)(nil)
