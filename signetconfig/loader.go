// Package signetconfig loads declarative key-source configuration and builds
// a signet.CredentialSet from it.
//
// A configuration lists key sources in preference order; Build resolves each
// source through the signet acquirers and normalizes the result into the set.
package signetconfig

import (
	"context"
	"errors"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"
)

// SourceKind selects how a key source is resolved.
type SourceKind string

const (
	// SourceFile reads a PKCS#12 container from the local file system.
	SourceFile SourceKind = "file"
	// SourceStore looks a certificate up by thumbprint in a certstore
	// directory.
	SourceStore SourceKind = "store"
	// SourcePassphrase derives a symmetric HMAC secret from a passphrase.
	SourcePassphrase SourceKind = "passphrase"
	// SourceEphemeral generates an in-memory RSA key. Development only:
	// tokens signed with it become unverifiable after a restart.
	SourceEphemeral SourceKind = "ephemeral"
)

// KeySource describes one key to acquire.
type KeySource struct {
	Kind SourceKind

	// Path and Password locate and open a PKCS#12 container (file kind).
	// Password also opens containers inside a store directory (store kind).
	Path     string
	Password string

	// StoreDir and Thumbprint select a store entry (store kind).
	StoreDir   string
	Thumbprint string

	// Passphrase and Salt feed symmetric derivation (passphrase kind).
	Passphrase string
	Salt       string

	// KeyID, when set, overrides identifier derivation.
	KeyID string
	// Algorithm, when set, bypasses inference and is validated against the
	// key.
	Algorithm string
}

// Config is the declarative credential-set description.
type Config struct {
	// Sources lists key sources in preference order; the resulting
	// credential order follows it.
	Sources []KeySource
	// Admission is an optional Lua admission script applied to every
	// credential before it enters the set.
	Admission string
}

// Validate checks that every source names a known kind and carries its
// required fields.
func (c Config) Validate() error {
	if len(c.Sources) == 0 {
		return errors.New("at least one key source is required")
	}
	for i, src := range c.Sources {
		switch src.Kind {
		case SourceFile:
			if src.Path == "" || src.Password == "" {
				return fmt.Errorf("source %d: file kind requires path and password", i)
			}
		case SourceStore:
			if src.StoreDir == "" || src.Thumbprint == "" {
				return fmt.Errorf("source %d: store kind requires dir and thumbprint", i)
			}
		case SourcePassphrase:
			if src.Passphrase == "" || src.Salt == "" {
				return fmt.Errorf("source %d: passphrase kind requires passphrase and salt", i)
			}
		case SourceEphemeral:
		default:
			return fmt.Errorf("source %d: unknown kind %q", i, src.Kind)
		}
	}
	return nil
}

// Loader loads a Config from a source.
type Loader interface {
	Load(ctx context.Context) (*Config, error)
}

// goLoader returns a static config.
type goLoader struct {
	cfg Config
}

// FromGo creates a Loader that returns the provided config directly.
func FromGo(cfg Config) Loader {
	return &goLoader{cfg: cfg}
}

func (l *goLoader) Load(_ context.Context) (*Config, error) {
	cfg := l.cfg
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

// luaLoader loads config from a Lua file.
type luaLoader struct {
	path string
}

// FromLuaFile creates a Loader that reads config from a Lua file.
func FromLuaFile(path string) Loader {
	return &luaLoader{path: path}
}

func (l *luaLoader) Load(_ context.Context) (*Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read lua config file: %w", err)
	}
	return LoadLuaString(string(data))
}

// LoadLuaString parses a Lua config string and returns a Config.
// Exported for testing convenience.
func LoadLuaString(script string) (*Config, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	// Only open safe libs for config parsing
	for _, pair := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(pair.fn))
		L.Push(lua.LString(pair.name))
		L.Call(1, 0)
	}
	// Remove dangerous functions
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)
	L.SetGlobal("load", lua.LNil)
	L.SetGlobal("loadstring", lua.LNil)

	if err := L.DoString(script); err != nil {
		return nil, fmt.Errorf("lua config execution: %w", err)
	}

	ret := L.Get(-1)
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("lua config must return a table, got %s", ret.Type().String())
	}

	cfg := luaTableToConfig(tbl)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func luaTableToConfig(tbl *lua.LTable) *Config {
	cfg := &Config{}
	cfg.Admission = getStringField(tbl, "admission")

	sourcesTbl := getTableField(tbl, "sources")
	if sourcesTbl == nil {
		return cfg
	}
	sourcesTbl.ForEach(func(_ lua.LValue, val lua.LValue) {
		srcTbl, ok := val.(*lua.LTable)
		if !ok {
			return
		}
		cfg.Sources = append(cfg.Sources, KeySource{
			Kind:       SourceKind(getStringField(srcTbl, "kind")),
			Path:       getStringField(srcTbl, "path"),
			Password:   getStringField(srcTbl, "password"),
			StoreDir:   getStringField(srcTbl, "dir"),
			Thumbprint: getStringField(srcTbl, "thumbprint"),
			Passphrase: getStringField(srcTbl, "passphrase"),
			Salt:       getStringField(srcTbl, "salt"),
			KeyID:      getStringField(srcTbl, "key_id"),
			Algorithm:  getStringField(srcTbl, "alg"),
		})
	})
	return cfg
}

// Lua table helper functions

func getStringField(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

func getTableField(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}
