package signet

import (
	"crypto"
	"crypto/sha256"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"golang.org/x/crypto/pbkdf2"
	"software.sslmate.com/src/go-pkcs12"
)

// pbkdf2Iterations and pbkdf2KeyLen control symmetric secret derivation in
// FromPassphrase.
const (
	pbkdf2Iterations = 4096
	pbkdf2KeyLen     = 32
)

// CertificateStore looks up certificate entries by SHA-1 thumbprint.
// Thumbprint comparison is case-insensitive and ignores ":" separators.
//
// Lookup returns the entry's private key and certificate. The signer is nil
// when the store entry carries no private key. A miss returns an error
// wrapping ErrCertificateNotFound.
type CertificateStore interface {
	Lookup(thumbprint string) (crypto.Signer, *x509.Certificate, error)
}

// FromCertificateBytes parses data as a password-protected PKCS#12 container
// and returns a certificate-bound key. The key identifier is left absent and
// resolved during normalization.
//
// Fails with ErrInvalidArgument on empty input or password, with
// ErrInvalidCredential when the container is malformed or the password is
// wrong, and with ErrMissingPrivateKey when the container holds no usable
// private key.
func FromCertificateBytes(data []byte, password string) (*SigningKey, error) {
	if len(data) == 0 || password == "" {
		return nil, fmt.Errorf("%w: certificate data and password are required", ErrInvalidArgument)
	}
	priv, cert, _, err := pkcs12.DecodeChain(data, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	signer, ok := priv.(crypto.Signer)
	if !ok || signer == nil {
		return nil, ErrMissingPrivateKey
	}
	return NewCertificateKey(signer, cert)
}

// FromReader reads r fully into memory and delegates to FromCertificateBytes.
// The reader is consumed but not closed; the caller retains ownership.
func FromReader(r io.Reader, password string) (*SigningKey, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: reader is required", ErrInvalidArgument)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read certificate container: %w", err)
	}
	return FromCertificateBytes(data, password)
}

// FromFS resolves name inside fsys (typically an embed.FS) and delegates to
// FromReader. Fails with ErrResourceNotFound when no such resource exists.
func FromFS(fsys fs.FS, name, password string) (*SigningKey, error) {
	if fsys == nil || name == "" {
		return nil, fmt.Errorf("%w: file system and resource name are required", ErrInvalidArgument)
	}
	f, err := fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, name)
		}
		return nil, fmt.Errorf("open resource %s: %w", name, err)
	}
	defer f.Close()
	return FromReader(f, password)
}

// FromStore looks a certificate up by thumbprint in the given store and wraps
// it as a certificate-bound key. The store entry must already carry its
// private key; a key-less entry fails with ErrMissingPrivateKey.
func FromStore(store CertificateStore, thumbprint string) (*SigningKey, error) {
	if store == nil || thumbprint == "" {
		return nil, fmt.Errorf("%w: store and thumbprint are required", ErrInvalidArgument)
	}
	signer, cert, err := store.Lookup(thumbprint)
	if err != nil {
		return nil, err
	}
	if signer == nil {
		return nil, fmt.Errorf("%w: store entry %s", ErrMissingPrivateKey, thumbprint)
	}
	return NewCertificateKey(signer, cert)
}

// FromRaw is an identity passthrough for an already constructed key.
func FromRaw(key *SigningKey) (*SigningKey, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: key is required", ErrInvalidArgument)
	}
	return key, nil
}

// FromPassphrase derives a symmetric HMAC secret from a passphrase and salt
// using PBKDF2-SHA256. The same passphrase and salt always derive the same
// secret, so rotating either rotates the credential.
func FromPassphrase(passphrase, salt string) (*SigningKey, error) {
	if passphrase == "" || salt == "" {
		return nil, fmt.Errorf("%w: passphrase and salt are required", ErrInvalidArgument)
	}
	secret := pbkdf2.Key([]byte(passphrase), []byte(salt), pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return NewSymmetricKey(secret)
}
