// Package luapolicy evaluates Lua admission scripts against signing-key
// attributes before a credential enters the credential set.
//
// Scripts run sandboxed: only the base, table, string and math libraries are
// opened, and file/loader functions are removed.
package luapolicy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// ErrPolicyTimeout is returned when a script exceeds its execution time limit.
var ErrPolicyTimeout = errors.New("admission policy exceeded execution time limit")

// DefaultTimeout is the default execution time limit per evaluation.
const DefaultTimeout = 5 * time.Second

// KeyInfo is the view of a candidate credential a script evaluates.
type KeyInfo struct {
	Kind      string
	Bits      int
	Algorithm string
	KeyID     string
}

// CompiledPolicy holds a pre-compiled script for reuse across evaluations.
type CompiledPolicy struct {
	proto *lua.FunctionProto
	mu    sync.Mutex
}

// Compile parses and compiles an admission script. The result can be reused
// for many Evaluate calls.
func Compile(script string) (*CompiledPolicy, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	fn, err := L.LoadString(script)
	if err != nil {
		return nil, fmt.Errorf("lua compile error: %w", err)
	}
	return &CompiledPolicy{proto: fn.Proto}, nil
}

// Evaluate runs the compiled script against info. It returns nil when the
// credential is admitted, or an error describing the rejection.
func (cp *CompiledPolicy) Evaluate(info KeyInfo) error {
	return cp.EvaluateWithTimeout(info, DefaultTimeout)
}

// EvaluateWithTimeout runs with a custom execution timeout.
func (cp *CompiledPolicy) EvaluateWithTimeout(info KeyInfo, timeout time.Duration) error {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	L.SetContext(ctx)

	openSafeLibs(L)

	L.SetGlobal("kind", lua.LString(info.Kind))
	L.SetGlobal("bits", lua.LNumber(info.Bits))
	L.SetGlobal("alg", lua.LString(info.Algorithm))
	L.SetGlobal("kid", lua.LString(info.KeyID))

	var policyErr error

	L.SetGlobal("reject", L.NewFunction(func(L *lua.LState) int {
		msg := L.OptString(1, "rejected")
		policyErr = errors.New(msg)
		L.RaiseError("%s", msg)
		return 0
	}))

	L.SetGlobal("min_bits", L.NewFunction(func(L *lua.LState) int {
		want := L.CheckInt(1)
		if info.Bits < want {
			policyErr = fmt.Errorf("key size %d below required %d bits", info.Bits, want)
			L.RaiseError("%s", policyErr.Error())
		}
		return 0
	}))

	fn := L.NewFunctionFromProto(cp.proto)
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrPolicyTimeout
		}
		if policyErr != nil {
			return policyErr
		}
		return fmt.Errorf("admission policy error: %w", err)
	}
	return policyErr
}

// openSafeLibs opens only safe standard libraries.
func openSafeLibs(L *lua.LState) {
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
	// Remove base functions that could escape the sandbox.
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)
	L.SetGlobal("load", lua.LNil)
	L.SetGlobal("loadstring", lua.LNil)
}
