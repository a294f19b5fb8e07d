package signet

import (
	"encoding/base64"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/perchsec/goSignet/internal/luapolicy"
)

// derivedKeyIDLength is the length the modulus-derived identifier is
// truncated to, matching the length of a certificate thumbprint.
const derivedKeyIDLength = 40

// CredentialSet is the ordered collection of signing credentials a token
// issuer draws from. Insertion order is preference order: the issuer picks
// the first credential eligible for a token's required algorithm.
//
// The set is owned by server configuration code. Append during configuration
// from a single goroutine; afterwards treat it as read-only, at which point
// it is safe for concurrent readers.
type CredentialSet struct {
	log          *zap.Logger
	policyScript string
	policy       *luapolicy.CompiledPolicy
	creds        []*SigningCredential
}

// NewCredentialSet creates an empty credential set.
func NewCredentialSet(opts ...Option) (*CredentialSet, error) {
	s := &CredentialSet{log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.policyScript != "" {
		p, err := luapolicy.Compile(s.policyScript)
		if err != nil {
			return nil, fmt.Errorf("compile admission policy: %w", err)
		}
		s.policy = p
	}
	return s, nil
}

// Len reports the number of credentials in the set.
func (s *CredentialSet) Len() int { return len(s.creds) }

// Credentials returns the credentials in insertion order. The returned slice
// is a copy; the credentials themselves are shared and immutable.
func (s *CredentialSet) Credentials() []*SigningCredential {
	out := make([]*SigningCredential, len(s.creds))
	copy(out, s.creds)
	return out
}

// Add normalizes key and appends the resulting credential to the set.
//
// The algorithm is inferred by probing RS256 before HS256. A key supporting
// neither fails with ErrUnsupportedKey and leaves the set untouched; use
// AddCredential to select an algorithm explicitly.
//
// A non-empty key identifier is preserved verbatim. Otherwise one is derived:
// certificate-bound keys use the certificate thumbprint, plain RSA keys the
// base64url encoding of the public modulus truncated to 40 upper-cased
// characters. Symmetric keys have no derivation rule.
func (s *CredentialSet) Add(key *SigningKey) (*SigningCredential, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: key is required", ErrInvalidArgument)
	}
	var alg string
	switch {
	case key.Supports(AlgRS256):
		alg = AlgRS256
	case key.Supports(AlgHS256):
		alg = AlgHS256
	default:
		return nil, fmt.Errorf("%w: cannot infer algorithm for %s key", ErrUnsupportedKey, key.kind)
	}
	return s.append(key, alg)
}

// AddCredential appends a credential with an explicitly chosen algorithm,
// bypassing inference. The algorithm must still be one the key supports.
func (s *CredentialSet) AddCredential(key *SigningKey, alg string) (*SigningCredential, error) {
	if key == nil || alg == "" {
		return nil, fmt.Errorf("%w: key and algorithm are required", ErrInvalidArgument)
	}
	if !key.Supports(alg) {
		return nil, fmt.Errorf("%w: %s key does not support %s", ErrUnsupportedKey, key.kind, alg)
	}
	return s.append(key, alg)
}

func (s *CredentialSet) append(key *SigningKey, alg string) (*SigningCredential, error) {
	if key.keyID == "" {
		kid, err := deriveKeyID(key)
		if err != nil {
			return nil, err
		}
		key.keyID = kid
	}

	if s.policy != nil {
		err := s.policy.Evaluate(luapolicy.KeyInfo{
			Kind:      key.kind.String(),
			Bits:      key.Size(),
			Algorithm: alg,
			KeyID:     key.keyID,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCredentialRejected, err)
		}
	}

	cred := &SigningCredential{key: key, alg: alg}
	s.creds = append(s.creds, cred)
	s.log.Debug("signing credential added",
		zap.String("kind", key.kind.String()),
		zap.String("alg", alg),
		zap.String("kid", key.keyID),
		zap.Int("bits", key.Size()),
	)
	return cred, nil
}

// deriveKeyID produces a deterministic identifier for a key that carries
// none. Symmetric keys are left without one; naming them is the caller's
// concern.
func deriveKeyID(key *SigningKey) (string, error) {
	switch key.kind {
	case KindCertificate:
		return Thumbprint(key.cert), nil
	case KindAsymmetric:
		pub, ok := key.rsaPublic()
		if !ok {
			return "", fmt.Errorf("%w: public parameters unavailable", ErrUnsupportedKey)
		}
		enc := base64.RawURLEncoding.EncodeToString(pub.N.Bytes())
		if len(enc) > derivedKeyIDLength {
			enc = enc[:derivedKeyIDLength]
		}
		return strings.ToUpper(enc), nil
	case KindSymmetric:
		return "", nil
	default:
		return "", fmt.Errorf("%w: unknown key kind", ErrUnsupportedKey)
	}
}
