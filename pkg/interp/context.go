package interp

import (
	"sort"
	"strings"
	"sync"

	"github.com/funvibe/axon/pkg/diag"
)

// Scope names. Every key handed to Context.Set/Get must start with one of
// these followed by a dot-separated path.
const (
	ScopePrivate   = "private"
	ScopePublic    = "public"
	ScopeSystem    = "system"
	ScopeExecution = "execution"
)

// scopeOrder is the precedence used when resolving bare identifiers during
// expression evaluation. The execution scope comes last: it holds
// engine-written step results, which user names should not shadow.
var scopeOrder = []string{ScopePrivate, ScopePublic, ScopeSystem, ScopeExecution}

// ValidScopes returns the scope names in precedence order.
func ValidScopes() []string {
	out := make([]string, len(scopeOrder))
	copy(out, scopeOrder)
	return out
}

// IsValidScope reports whether name is a known scope.
func IsValidScope(name string) bool {
	for _, s := range scopeOrder {
		if s == name {
			return true
		}
	}
	return false
}

// Context is the mutable state container for one execution. Storage is
// partitioned into the fixed scopes above; each scope is a tree of nested
// maps keyed by dot-separated path segments. The Context also owns the
// resource registry holding host objects such as the Reasoner.
//
// A Context is owned by exactly one interpreter for its lifetime and is not
// designed for concurrent mutation from multiple interpreters.
type Context struct {
	mu        sync.RWMutex
	scopes    map[string]map[string]any
	resources map[string]any
}

func NewContext() *Context {
	c := &Context{
		scopes:    make(map[string]map[string]any, len(scopeOrder)),
		resources: make(map[string]any),
	}
	for _, s := range scopeOrder {
		c.scopes[s] = make(map[string]any)
	}
	return c
}

// splitKey validates a dotted key and returns its scope and path segments.
func splitKey(key string) (scope string, path []string, err error) {
	dot := strings.IndexByte(key, '.')
	if dot < 0 {
		return "", nil, diag.New(diag.KindInvalidKey,
			"Invalid key %q: expected scope.path (valid scopes: %s)", key, strings.Join(scopeOrder, ", "))
	}
	scope = key[:dot]
	if !IsValidScope(scope) {
		return "", nil, diag.New(diag.KindInvalidKey,
			"Invalid key %q: unknown scope %q (valid scopes: %s)", key, scope, strings.Join(scopeOrder, ", "))
	}
	path = strings.Split(key[dot+1:], ".")
	for _, seg := range path {
		if seg == "" {
			return "", nil, diag.New(diag.KindInvalidKey, "Invalid key %q: empty path segment", key)
		}
	}
	return scope, path, nil
}

// Set writes a value at a dotted key, creating intermediate nested maps as
// needed and overwriting the leaf. An intermediate that currently holds a
// non-map value is replaced by a fresh map: the write wins.
func (c *Context) Set(key string, value any) error {
	scope, path, err := splitKey(key)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	node := c.scopes[scope]
	for _, seg := range path[:len(path)-1] {
		next, ok := node[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			node[seg] = next
		}
		node = next
	}
	node[path[len(path)-1]] = value
	return nil
}

// Get reads the value at a dotted key. It fails with VariableNotFound when
// any path segment is absent; there is no default-value fallback at this
// layer.
func (c *Context) Get(key string) (any, error) {
	scope, path, err := splitKey(key)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	val, ok := lookupPath(c.scopes[scope], path)
	if !ok {
		return nil, diag.New(diag.KindVariableNotFound, "Variable %q not found", key)
	}
	return val, nil
}

// Has reports whether a dotted key resolves to a value.
func (c *Context) Has(key string) bool {
	_, err := c.Get(key)
	return err == nil
}

// ResolveBare resolves an unscoped (possibly dotted) name by searching the
// scopes in precedence order. This is only used during expression
// evaluation; direct Context access always requires a scope prefix.
func (c *Context) ResolveBare(name string) (any, bool) {
	path := strings.Split(name, ".")
	for _, seg := range path {
		if seg == "" {
			return nil, false
		}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, scope := range scopeOrder {
		if val, ok := lookupPath(c.scopes[scope], path); ok {
			return val, true
		}
	}
	return nil, false
}

func lookupPath(node map[string]any, path []string) (any, bool) {
	for i, seg := range path {
		val, ok := node[seg]
		if !ok {
			return nil, false
		}
		if i == len(path)-1 {
			return val, true
		}
		node, ok = val.(map[string]any)
		if !ok {
			return nil, false
		}
	}
	return nil, false
}

// ScopeSnapshot returns a shallow copy of one scope's root map, mainly for
// hooks and tests.
func (c *Context) ScopeSnapshot(scope string) map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	src, ok := c.scopes[scope]
	if !ok {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// RegisterResource stores a host object under name. Names are unique per
// Context; registering twice overwrites.
func (c *Context) RegisterResource(name string, obj any) {
	c.mu.Lock()
	c.resources[name] = obj
	c.mu.Unlock()
}

// GetResource returns the host object registered under name.
func (c *Context) GetResource(name string) (any, error) {
	c.mu.RLock()
	obj, ok := c.resources[name]
	c.mu.RUnlock()
	if !ok {
		return nil, diag.New(diag.KindResourceNotFound, "Resource %q not registered", name)
	}
	return obj, nil
}

// ListResources returns the registered resource names, sorted for stable
// diagnostics.
func (c *Context) ListResources() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.resources))
	for name := range c.resources {
		names = append(names, name)
	}
	c.mu.RUnlock()
	sort.Strings(names)
	return names
}
