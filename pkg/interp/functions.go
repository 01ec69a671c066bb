package interp

import (
	"errors"
	"sort"
	"strconv"
	"sync"

	"github.com/funvibe/axon/pkg/diag"
)

// Function is the signature host-registered functions expose to scripts.
// Argument keys that are numeric strings ("0", "1", ...) are positional;
// SplitArgs partitions them.
type Function func(ctx *Context, args map[string]any) (any, error)

// FunctionMeta is optional metadata recorded alongside a registered function.
type FunctionMeta struct {
	Doc    string
	Params []string
}

type registeredFunction struct {
	fn   Function
	meta FunctionMeta
}

// FunctionRegistry maps names to host-callable functions. Re-registering a
// name overwrites the prior binding (last write wins). The zero value is an
// empty, usable registry.
type FunctionRegistry struct {
	mu    sync.RWMutex
	funcs map[string]registeredFunction
}

func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{funcs: make(map[string]registeredFunction)}
}

// Register binds name to fn. Empty names and nil functions are rejected.
func (r *FunctionRegistry) Register(name string, fn Function, meta *FunctionMeta) error {
	if name == "" {
		return diag.New(diag.KindRuntime, "Cannot register function with empty name")
	}
	if fn == nil {
		return diag.New(diag.KindRuntime, "Cannot register nil function %q", name)
	}
	r.mu.Lock()
	if r.funcs == nil {
		r.funcs = make(map[string]registeredFunction)
	}
	reg := registeredFunction{fn: fn}
	if meta != nil {
		reg.meta = *meta
	}
	r.funcs[name] = reg
	r.mu.Unlock()
	return nil
}

// Lookup returns the function bound to name.
func (r *FunctionRegistry) Lookup(name string) (Function, bool) {
	r.mu.RLock()
	reg, ok := r.funcs[name]
	r.mu.RUnlock()
	return reg.fn, ok
}

// Meta returns the metadata recorded for name.
func (r *FunctionRegistry) Meta(name string) (FunctionMeta, bool) {
	r.mu.RLock()
	reg, ok := r.funcs[name]
	r.mu.RUnlock()
	return reg.meta, ok
}

// Names returns the registered names, sorted.
func (r *FunctionRegistry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Call looks up and invokes a function. Any failure raised by the function
// other than the engine's own typed errors is wrapped as a RuntimeError
// preserving the original as its cause.
func (r *FunctionRegistry) Call(name string, ctx *Context, args map[string]any) (any, error) {
	fn, ok := r.Lookup(name)
	if !ok {
		return nil, diag.New(diag.KindNotCallable, "Unknown function %q", name)
	}
	result, err := fn(ctx, args)
	if err != nil {
		var typed *diag.Error
		if errors.As(err, &typed) {
			return nil, err
		}
		return nil, diag.Wrap(diag.KindRuntime, err, "Function %q failed", name)
	}
	return result, nil
}

// SplitArgs partitions an argument map into positional arguments (numeric-
// string keys, in index order) and named arguments.
func SplitArgs(args map[string]any) ([]any, map[string]any) {
	named := make(map[string]any)
	indexed := make(map[int]any)
	maxIdx := -1
	for key, val := range args {
		if idx, err := strconv.Atoi(key); err == nil && idx >= 0 {
			indexed[idx] = val
			if idx > maxIdx {
				maxIdx = idx
			}
			continue
		}
		named[key] = val
	}
	positional := make([]any, 0, len(indexed))
	for i := 0; i <= maxIdx; i++ {
		if val, ok := indexed[i]; ok {
			positional = append(positional, val)
		}
	}
	return positional, named
}
