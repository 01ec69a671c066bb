package interp

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/funvibe/axon/pkg/ast"
	"github.com/funvibe/axon/pkg/diag"
)

// maxLoopIterations is the hard ceiling on while-loop iterations. Reaching
// it stops the loop with a warning instead of raising: it is a defensive
// bound against runaway scripts, not an error condition.
const maxLoopIterations = 1000

// Callable is implemented by host objects whose methods scripts may invoke
// through dotted function-call names (e.g. "client.fetch").
type Callable interface {
	CallMethod(ctx *Context, method string, args map[string]any) (any, error)
}

// executeStatement runs one statement to completion, firing the statement
// hooks around it and the on-error hook when it fails.
func (in *Interpreter) executeStatement(stmt ast.Statement) error {
	in.hooks.Fire(BeforeStatement, HookPayload{Node: stmt, Interpreter: in, Context: in.context})

	var err error
	switch s := stmt.(type) {
	case *ast.Assignment:
		err = in.executeAssignment(s)
	case *ast.Conditional:
		err = in.executeConditional(s)
	case *ast.WhileLoop:
		err = in.executeWhile(s)
	case *ast.LogStatement:
		err = in.executeLog(s)
	case *ast.PrintStatement:
		err = in.executePrint(s)
	case *ast.LogLevelSet:
		in.SetLogLevel(s.Level)
	case *ast.ReasonStatement:
		err = in.executeReason(s)
	case *ast.FunctionCall:
		err = in.executeFunctionCall(s)
	default:
		err = diag.New(diag.KindRuntime, "Unknown statement node %T", stmt)
	}

	if err != nil {
		var typed *diag.Error
		if errors.As(err, &typed) {
			typed.WithPos(stmt.Pos())
		}
		in.hooks.Fire(OnError, HookPayload{Node: stmt, Interpreter: in, Context: in.context, Err: err})
		return err
	}
	in.hooks.Fire(AfterStatement, HookPayload{Node: stmt, Interpreter: in, Context: in.context, Value: in.lastValue})
	return nil
}

func (in *Interpreter) executeBlock(stmts []ast.Statement) error {
	for _, stmt := range stmts {
		if err := in.executeStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

// targetKey defaults an unscoped assignment target to the private scope.
func targetKey(name string) string {
	if dot := strings.IndexByte(name, '.'); dot > 0 && IsValidScope(name[:dot]) {
		return name
	}
	return ScopePrivate + "." + name
}

func (in *Interpreter) executeAssignment(s *ast.Assignment) error {
	in.hooks.Fire(BeforeAssignment, HookPayload{Node: s, Interpreter: in, Context: in.context})
	val, err := in.EvalExpression(s.Value)
	if err != nil {
		return err
	}
	if err := in.context.Set(targetKey(s.Target), val); err != nil {
		var typed *diag.Error
		if errors.As(err, &typed) {
			typed.WithPos(s.Position)
		}
		return err
	}
	in.lastValue = val
	in.hooks.Fire(AfterAssignment, HookPayload{Node: s, Interpreter: in, Context: in.context, Value: val})
	return nil
}

func (in *Interpreter) executeConditional(s *ast.Conditional) error {
	in.hooks.Fire(BeforeConditional, HookPayload{Node: s, Interpreter: in, Context: in.context})
	cond, err := in.EvalExpression(s.Condition)
	if err != nil {
		return err
	}
	taken := Truthy(cond)
	if taken {
		err = in.executeBlock(s.Body)
	} else if len(s.ElseBody) > 0 {
		err = in.executeBlock(s.ElseBody)
	}
	if err != nil {
		return err
	}
	in.hooks.Fire(AfterConditional, HookPayload{Node: s, Interpreter: in, Context: in.context, Value: taken})
	return nil
}

func (in *Interpreter) executeWhile(s *ast.WhileLoop) error {
	in.hooks.Fire(BeforeLoop, HookPayload{Node: s, Interpreter: in, Context: in.context})
	iterations := 0
	for {
		if iterations >= maxLoopIterations {
			in.logger.Warn("while loop reached iteration ceiling, stopping",
				zap.Int("iterations", iterations))
			break
		}
		cond, err := in.EvalExpression(s.Condition)
		if err != nil {
			return err
		}
		if !Truthy(cond) {
			break
		}
		if err := in.checkCancelled(); err != nil {
			return err
		}
		if err := in.executeBlock(s.Body); err != nil {
			return err
		}
		iterations++
	}
	in.hooks.Fire(AfterLoop, HookPayload{Node: s, Interpreter: in, Context: in.context, Iteration: iterations})
	return nil
}

func (in *Interpreter) executeLog(s *ast.LogStatement) error {
	in.hooks.Fire(BeforeLog, HookPayload{Node: s, Interpreter: in, Context: in.context})
	val, err := in.EvalExpression(s.Message)
	if err != nil {
		return err
	}
	in.emitLog(s.Level, Stringify(val))
	in.hooks.Fire(AfterLog, HookPayload{Node: s, Interpreter: in, Context: in.context, Value: val})
	return nil
}

func (in *Interpreter) executePrint(s *ast.PrintStatement) error {
	val, err := in.EvalExpression(s.Message)
	if err != nil {
		return err
	}
	fmt.Fprintln(in.out, Stringify(val))
	return nil
}

func (in *Interpreter) executeFunctionCall(s *ast.FunctionCall) error {
	args, err := in.evalArgs(s.Args)
	if err != nil {
		return err
	}

	var result any
	switch {
	case strings.Contains(s.Name, "."):
		result, err = in.callMethod(s, args)
	default:
		if _, ok := in.functions.Lookup(s.Name); ok {
			result, err = in.functions.Call(s.Name, in.context, args)
		} else {
			result, err = in.callContextValue(s, args)
		}
	}
	if err != nil {
		return err
	}
	in.lastValue = result
	return nil
}

// evalArgs evaluates argument expressions in sorted key order so evaluation
// is deterministic.
func (in *Interpreter) evalArgs(exprs map[string]ast.Expression) (map[string]any, error) {
	keys := make([]string, 0, len(exprs))
	for key := range exprs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make(map[string]any, len(exprs))
	for _, key := range keys {
		val, err := in.EvalExpression(exprs[key])
		if err != nil {
			return nil, err
		}
		args[key] = val
	}
	return args, nil
}

// callMethod resolves a dotted callee as a method call on a host object
// reachable via the Context: the receiver path is looked up among resources
// first, then as a context variable; the final segment names the method.
func (in *Interpreter) callMethod(s *ast.FunctionCall, args map[string]any) (any, error) {
	// A fully dotted name may still be a plain registered function
	// ("math.abs" registered as-is); the registry wins.
	if _, ok := in.functions.Lookup(s.Name); ok {
		return in.functions.Call(s.Name, in.context, args)
	}

	lastDot := strings.LastIndexByte(s.Name, '.')
	receiverPath := s.Name[:lastDot]
	method := s.Name[lastDot+1:]

	receiver, err := in.resolveReceiver(receiverPath)
	if err != nil {
		return nil, err
	}
	if callable, ok := receiver.(Callable); ok {
		result, err := callable.CallMethod(in.context, method, args)
		if err != nil {
			var typed *diag.Error
			if errors.As(err, &typed) {
				return nil, err
			}
			return nil, diag.Wrap(diag.KindRuntime, err, "Method %q failed", s.Name)
		}
		return result, nil
	}
	return in.reflectCall(receiver, s.Name, method, args)
}

func (in *Interpreter) resolveReceiver(path string) (any, error) {
	first := path
	if dot := strings.IndexByte(path, '.'); dot > 0 {
		first = path[:dot]
	}
	if obj, err := in.context.GetResource(first); err == nil {
		if first == path {
			return obj, nil
		}
		// Attribute chains below a resource walk nested maps.
		rest := strings.Split(path[len(first)+1:], ".")
		node, ok := obj.(map[string]any)
		if !ok {
			return nil, diag.New(diag.KindNotCallable,
				"Resource %q does not support attribute access", first)
		}
		val, found := lookupPath(node, rest)
		if !found {
			return nil, diag.New(diag.KindVariableNotFound, "Attribute %q not found on resource %q", path, first)
		}
		return val, nil
	}
	if IsValidScope(first) {
		return in.context.Get(path)
	}
	if val, ok := in.context.ResolveBare(path); ok {
		return val, nil
	}
	return nil, diag.New(diag.KindNotCallable,
		"Cannot resolve %q: no such resource or variable (resources: %s)",
		path, strings.Join(in.context.ListResources(), ", "))
}

// reflectCall invokes an exported Go method with the conventional
// (map[string]any) (any, error) signature on an arbitrary host object.
func (in *Interpreter) reflectCall(receiver any, fullName, method string, args map[string]any) (any, error) {
	rv := reflect.ValueOf(receiver)
	if !rv.IsValid() {
		return nil, diag.New(diag.KindNotCallable, "%q is not callable", fullName)
	}
	m := rv.MethodByName(exportedName(method))
	if !m.IsValid() {
		return nil, diag.New(diag.KindNotCallable, "%q is not callable", fullName)
	}
	mt := m.Type()
	if mt.NumIn() != 1 || mt.In(0) != reflect.TypeOf(map[string]any(nil)) || mt.NumOut() != 2 {
		return nil, diag.New(diag.KindNotCallable,
			"Method %q has unsupported signature %s", fullName, mt)
	}
	out := m.Call([]reflect.Value{reflect.ValueOf(args)})
	if errVal := out[1].Interface(); errVal != nil {
		err := errVal.(error)
		var typed *diag.Error
		if errors.As(err, &typed) {
			return nil, err
		}
		return nil, diag.Wrap(diag.KindRuntime, err, "Method %q failed", fullName)
	}
	return out[0].Interface(), nil
}

func exportedName(method string) string {
	if method == "" {
		return method
	}
	return strings.ToUpper(method[:1]) + method[1:]
}

// callContextValue handles a plain-identifier callee that is not in the
// registry: the identifier must resolve to a callable value.
func (in *Interpreter) callContextValue(s *ast.FunctionCall, args map[string]any) (any, error) {
	val, ok := in.context.ResolveBare(s.Name)
	if !ok {
		return nil, diag.New(diag.KindNotCallable,
			"Unknown function %q (registered: %s)", s.Name, strings.Join(in.functions.Names(), ", "))
	}
	fn, ok := val.(Function)
	if !ok {
		return nil, diag.New(diag.KindNotCallable, "%q is not callable (got %s)", s.Name, typeName(val))
	}
	result, err := fn(in.context, args)
	if err != nil {
		var typed *diag.Error
		if errors.As(err, &typed) {
			return nil, err
		}
		return nil, diag.Wrap(diag.KindRuntime, err, "Function %q failed", s.Name)
	}
	return result, nil
}
