package signetconfig

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"software.sslmate.com/src/go-pkcs12"

	"github.com/perchsec/goSignet/signet"
)

func buildTestCert(t *testing.T, cn string) (*rsa.PrivateKey, *x509.Certificate) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return priv, cert
}

func writeP12(t *testing.T, dir string, priv *rsa.PrivateKey, cert *x509.Certificate, password string) string {
	t.Helper()
	blob, err := pkcs12.Modern.Encode(priv, cert, nil, password)
	require.NoError(t, err)
	path := filepath.Join(dir, "signing.p12")
	require.NoError(t, os.WriteFile(path, blob, 0o600))
	return path
}

func TestBuild(t *testing.T) {
	ctx := context.Background()

	t.Run("ephemeral source", func(t *testing.T) {
		set, err := Build(ctx, FromGo(Config{
			Sources: []KeySource{{Kind: SourceEphemeral}},
		}))
		require.NoError(t, err)
		require.Equal(t, 1, set.Len())

		cred := set.Credentials()[0]
		assert.Equal(t, signet.AlgRS256, cred.Algorithm())
		assert.NotEmpty(t, cred.KeyID())
	})

	t.Run("file source", func(t *testing.T) {
		priv, cert := buildTestCert(t, "build-file")
		path := writeP12(t, t.TempDir(), priv, cert, "container-pass")

		set, err := Build(ctx, FromGo(Config{
			Sources: []KeySource{{Kind: SourceFile, Path: path, Password: "container-pass"}},
		}))
		require.NoError(t, err)
		require.Equal(t, 1, set.Len())
		assert.Equal(t, signet.Thumbprint(cert), set.Credentials()[0].KeyID())
	})

	t.Run("store source", func(t *testing.T) {
		dir := t.TempDir()
		priv, cert := buildTestCert(t, "build-store")
		var buf []byte
		buf = append(buf, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})...)
		buf = append(buf, pem.EncodeToMemory(&pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(priv),
		})...)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bundle.pem"), buf, 0o600))

		set, err := Build(ctx, FromGo(Config{
			Sources: []KeySource{{
				Kind:       SourceStore,
				StoreDir:   dir,
				Thumbprint: signet.Thumbprint(cert),
			}},
		}))
		require.NoError(t, err)
		require.Equal(t, 1, set.Len())
		assert.Equal(t, signet.Thumbprint(cert), set.Credentials()[0].KeyID())
	})

	t.Run("passphrase source", func(t *testing.T) {
		set, err := Build(ctx, FromGo(Config{
			Sources: []KeySource{{
				Kind:       SourcePassphrase,
				Passphrase: "correct horse",
				Salt:       "issuer-v1",
				KeyID:      "shared-1",
			}},
		}))
		require.NoError(t, err)
		require.Equal(t, 1, set.Len())

		cred := set.Credentials()[0]
		assert.Equal(t, signet.AlgHS256, cred.Algorithm())
		assert.Equal(t, "shared-1", cred.KeyID())
	})

	t.Run("source order is credential order", func(t *testing.T) {
		set, err := Build(ctx, FromGo(Config{
			Sources: []KeySource{
				{Kind: SourcePassphrase, Passphrase: "pw", Salt: "s", KeyID: "first"},
				{Kind: SourceEphemeral, KeyID: "second"},
			},
		}))
		require.NoError(t, err)
		require.Equal(t, 2, set.Len())
		assert.Equal(t, "first", set.Credentials()[0].KeyID())
		assert.Equal(t, "second", set.Credentials()[1].KeyID())
	})

	t.Run("explicit algorithm override", func(t *testing.T) {
		set, err := Build(ctx, FromGo(Config{
			Sources: []KeySource{{Kind: SourceEphemeral, Algorithm: signet.AlgRS256}},
		}))
		require.NoError(t, err)
		require.Equal(t, 1, set.Len())
		assert.Equal(t, signet.AlgRS256, set.Credentials()[0].Algorithm())
	})

	t.Run("incompatible algorithm aborts", func(t *testing.T) {
		_, err := Build(ctx, FromGo(Config{
			Sources: []KeySource{{Kind: SourceEphemeral, Algorithm: signet.AlgHS256}},
		}))
		assert.ErrorIs(t, err, signet.ErrUnsupportedKey)
	})

	t.Run("admission policy applies", func(t *testing.T) {
		_, err := Build(ctx, FromGo(Config{
			Admission: `if kind == "symmetric" then reject("no shared secrets") end`,
			Sources: []KeySource{
				{Kind: SourceEphemeral},
				{Kind: SourcePassphrase, Passphrase: "pw", Salt: "s"},
			},
		}))
		assert.ErrorIs(t, err, signet.ErrCredentialRejected)
	})

	t.Run("unreadable file aborts", func(t *testing.T) {
		_, err := Build(ctx, FromGo(Config{
			Sources: []KeySource{{
				Kind:     SourceFile,
				Path:     filepath.Join(t.TempDir(), "missing.p12"),
				Password: "pw",
			}},
		}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "source 0 (file)")
	})
}

func TestBuildFromLua(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signet.lua")
	require.NoError(t, os.WriteFile(path, []byte(`
		return {
			sources = {
				{ kind = "passphrase", passphrase = "pw", salt = "s", key_id = "lua-1" },
			},
		}
	`), 0o600))

	set, err := Build(context.Background(), FromLuaFile(path))
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())
	assert.Equal(t, "lua-1", set.Credentials()[0].KeyID())
}
