package signet

import "errors"

// Sentinel errors returned by acquisition and normalization. All of them are
// surfaced synchronously to the configuring caller; none are retried
// internally.
var (
	// ErrInvalidArgument indicates a nil or empty required input. This is a
	// caller bug, not a retryable condition.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidCredential indicates a malformed certificate container or a
	// wrong container password.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrMissingPrivateKey indicates a certificate without usable private key
	// material; such a certificate cannot sign.
	ErrMissingPrivateKey = errors.New("certificate has no private key")
	// ErrResourceNotFound indicates that a named resource does not exist in
	// the given file system.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrCertificateNotFound indicates that no store entry matched the
	// requested thumbprint.
	ErrCertificateNotFound = errors.New("certificate not found")
	// ErrUnsupportedKey indicates that no signature algorithm could be
	// inferred for a key. Use AddCredential to select one explicitly.
	ErrUnsupportedKey = errors.New("unsupported key")
	// ErrWeakKeyGenerated indicates that ephemeral generation could not
	// produce a key meeting the minimum strength policy.
	ErrWeakKeyGenerated = errors.New("generated key below minimum strength")
	// ErrCredentialRejected indicates that the admission policy refused the
	// credential before it entered the set.
	ErrCredentialRejected = errors.New("credential rejected by admission policy")
)
