package signetconfig

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/perchsec/goSignet/certstore"
	"github.com/perchsec/goSignet/signet"
)

// BuildOption configures Build.
type BuildOption func(*builder)

type builder struct {
	log *zap.Logger
}

// WithLogger sets the logger used while building the credential set.
// Defaults to a no-op logger.
func WithLogger(l *zap.Logger) BuildOption {
	return func(b *builder) {
		if l != nil {
			b.log = l
		}
	}
}

// Build loads a configuration and resolves every source into a credential
// set, in order. Any acquisition or normalization failure aborts the build:
// a server with an incomplete credential set should not start.
func Build(ctx context.Context, l Loader, opts ...BuildOption) (*signet.CredentialSet, error) {
	b := &builder{log: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}

	cfg, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}

	setOpts := []signet.Option{signet.WithLogger(b.log)}
	if cfg.Admission != "" {
		setOpts = append(setOpts, signet.WithAdmissionPolicy(cfg.Admission))
	}
	set, err := signet.NewCredentialSet(setOpts...)
	if err != nil {
		return nil, err
	}

	for i, src := range cfg.Sources {
		key, err := b.resolve(src)
		if err != nil {
			return nil, fmt.Errorf("source %d (%s): %w", i, src.Kind, err)
		}
		if src.KeyID != "" {
			key.WithKeyID(src.KeyID)
		}
		if src.Algorithm != "" {
			_, err = set.AddCredential(key, src.Algorithm)
		} else {
			_, err = set.Add(key)
		}
		if err != nil {
			return nil, fmt.Errorf("source %d (%s): %w", i, src.Kind, err)
		}
	}
	return set, nil
}

func (b *builder) resolve(src KeySource) (*signet.SigningKey, error) {
	switch src.Kind {
	case SourceFile:
		data, err := os.ReadFile(src.Path) // #nosec G304 - path comes from operator config
		if err != nil {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		return signet.FromCertificateBytes(data, src.Password)
	case SourceStore:
		store, err := certstore.Open(src.StoreDir,
			certstore.WithPassword(src.Password),
			certstore.WithLogger(b.log),
		)
		if err != nil {
			return nil, err
		}
		return signet.FromStore(store, src.Thumbprint)
	case SourcePassphrase:
		return signet.FromPassphrase(src.Passphrase, src.Salt)
	case SourceEphemeral:
		b.log.Warn("generating ephemeral signing key; tokens signed with it become unverifiable after restart")
		return signet.GenerateEphemeral()
	default:
		return nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}
