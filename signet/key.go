// Package signet turns heterogeneous key sources (raw keys, certificate
// containers, file-system certificate stores, freshly generated ephemeral
// keys) into a canonical, algorithm-tagged, uniquely identified set of
// signing credentials consumable by a token issuer.
//
// Acquisition and normalization run once at server configuration time,
// sequentially. Once configuration completes the CredentialSet is treated as
// read-only.
//
// Concurrency: a CredentialSet must not be appended to concurrently; after
// construction it is immutable and safe for concurrent reads.
package signet

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha1" // #nosec G505 - thumbprints are identifiers, not integrity checks
	"crypto/x509"
	"encoding/hex"
	"strings"
)

// Signature algorithm identifiers, as published in token headers.
const (
	AlgRS256 = "RS256"
	AlgHS256 = "HS256"
)

// KeyKind tags the closed set of SigningKey variants. The kind is decided
// once at acquisition time; later stages match on it instead of probing
// runtime types.
type KeyKind uint8

const (
	// KindAsymmetric is an RSA-class private key without a bound certificate.
	KindAsymmetric KeyKind = iota + 1
	// KindCertificate is an asymmetric private key bound to an X.509
	// certificate.
	KindCertificate
	// KindSymmetric is a shared HMAC secret.
	KindSymmetric
)

func (k KeyKind) String() string {
	switch k {
	case KindAsymmetric:
		return "asymmetric"
	case KindCertificate:
		return "certificate"
	case KindSymmetric:
		return "symmetric"
	default:
		return "unknown"
	}
}

// SigningKey is raw key material plus the metadata the normalizer needs. The
// key identifier is optional on input; every key that enters a CredentialSet
// leaves normalization with one.
type SigningKey struct {
	kind   KeyKind
	keyID  string
	signer crypto.Signer
	cert   *x509.Certificate
	secret []byte
}

// NewAsymmetricKey wraps an RSA-class private key.
func NewAsymmetricKey(signer crypto.Signer) (*SigningKey, error) {
	if signer == nil {
		return nil, ErrInvalidArgument
	}
	return &SigningKey{kind: KindAsymmetric, signer: signer}, nil
}

// NewCertificateKey wraps a private key bound to its X.509 certificate.
func NewCertificateKey(signer crypto.Signer, cert *x509.Certificate) (*SigningKey, error) {
	if cert == nil {
		return nil, ErrInvalidArgument
	}
	if signer == nil {
		return nil, ErrMissingPrivateKey
	}
	return &SigningKey{kind: KindCertificate, signer: signer, cert: cert}, nil
}

// NewSymmetricKey wraps a shared HMAC secret.
func NewSymmetricKey(secret []byte) (*SigningKey, error) {
	if len(secret) == 0 {
		return nil, ErrInvalidArgument
	}
	return &SigningKey{kind: KindSymmetric, secret: secret}, nil
}

// WithKeyID sets the key identifier and returns the same key for chaining.
// A non-empty identifier is preserved verbatim by normalization.
func (k *SigningKey) WithKeyID(kid string) *SigningKey {
	k.keyID = kid
	return k
}

// Kind reports the variant tag.
func (k *SigningKey) Kind() KeyKind { return k.kind }

// KeyID returns the key identifier, or "" if none has been assigned yet.
func (k *SigningKey) KeyID() string { return k.keyID }

// Signer returns the private key for the asymmetric and certificate kinds,
// nil otherwise.
func (k *SigningKey) Signer() crypto.Signer { return k.signer }

// Certificate returns the bound certificate for the certificate kind, nil
// otherwise.
func (k *SigningKey) Certificate() *x509.Certificate { return k.cert }

// Secret returns the shared secret for the symmetric kind, nil otherwise.
func (k *SigningKey) Secret() []byte { return k.secret }

// Size reports the key strength in bits: the modulus length for RSA keys,
// the secret length for symmetric keys, 0 when unknown.
func (k *SigningKey) Size() int {
	switch k.kind {
	case KindAsymmetric, KindCertificate:
		if pub, ok := k.signer.Public().(*rsa.PublicKey); ok {
			return pub.N.BitLen()
		}
		return 0
	case KindSymmetric:
		return len(k.secret) * 8
	default:
		return 0
	}
}

// Supports reports whether the key can produce signatures with alg.
func (k *SigningKey) Supports(alg string) bool {
	switch alg {
	case AlgRS256:
		if k.kind != KindAsymmetric && k.kind != KindCertificate {
			return false
		}
		_, ok := k.signer.Public().(*rsa.PublicKey)
		return ok
	case AlgHS256:
		return k.kind == KindSymmetric && len(k.secret) > 0
	default:
		return false
	}
}

// rsaPublic returns the RSA public key for asymmetric and certificate kinds.
// Only public parameters are touched; private material is never exported.
func (k *SigningKey) rsaPublic() (*rsa.PublicKey, bool) {
	if k.signer == nil {
		return nil, false
	}
	pub, ok := k.signer.Public().(*rsa.PublicKey)
	return pub, ok
}

// Thumbprint computes the SHA-1 thumbprint of a certificate as upper-case
// hex, the same form a certificate store reports.
func Thumbprint(cert *x509.Certificate) string {
	sum := sha1.Sum(cert.Raw) // #nosec G401
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// SigningCredential pairs a SigningKey with a concrete signature algorithm.
// Credentials are immutable once created and append-only once in a set.
type SigningCredential struct {
	key *SigningKey
	alg string
}

// Key returns the underlying signing key.
func (c *SigningCredential) Key() *SigningKey { return c.key }

// Algorithm returns the signature algorithm identifier.
func (c *SigningCredential) Algorithm() string { return c.alg }

// KeyID returns the key identifier. Always non-empty for asymmetric and
// certificate-bound credentials produced by normalization.
func (c *SigningCredential) KeyID() string { return c.key.keyID }
