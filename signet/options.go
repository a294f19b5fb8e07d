package signet

import "go.uber.org/zap"

// Option configures a CredentialSet.
type Option func(*CredentialSet)

// WithLogger sets the logger used for credential lifecycle events. Defaults
// to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *CredentialSet) {
		if l != nil {
			s.log = l
		}
	}
}

// WithAdmissionPolicy installs a Lua admission script evaluated before each
// credential enters the set. The script sees the globals kind, bits, alg and
// kid, and calls reject(msg) or min_bits(n) to refuse a credential.
// Compilation happens in NewCredentialSet; a broken script fails construction.
func WithAdmissionPolicy(script string) Option {
	return func(s *CredentialSet) {
		s.policyScript = script
	}
}
