package signet

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"sync"
	"testing"
	"time"
)

// Key generation is the slowest part of the suite; the fixed test keys are
// generated once and shared.
var (
	keyOnce   sync.Once
	rsaKeyA   *rsa.PrivateKey
	rsaKeyB   *rsa.PrivateKey
	keyGenErr error
)

func testRSAKeys(t *testing.T) (*rsa.PrivateKey, *rsa.PrivateKey) {
	t.Helper()
	keyOnce.Do(func() {
		rsaKeyA, keyGenErr = rsa.GenerateKey(rand.Reader, 2048)
		if keyGenErr != nil {
			return
		}
		rsaKeyB, keyGenErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	if keyGenErr != nil {
		t.Fatalf("generate test keys: %v", keyGenErr)
	}
	return rsaKeyA, rsaKeyB
}

func testCertificate(t *testing.T, priv *rsa.PrivateKey, cn string) *x509.Certificate {
	t.Helper()
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	return cert
}

func mustNewSet(t *testing.T, opts ...Option) *CredentialSet {
	t.Helper()
	set, err := NewCredentialSet(opts...)
	if err != nil {
		t.Fatalf("new credential set: %v", err)
	}
	return set
}
