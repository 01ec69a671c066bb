package interp

import (
	"fmt"

	"github.com/funvibe/axon/pkg/ast"
	"github.com/funvibe/axon/pkg/diag"
)

// registerBuiltins installs the functions every interpreter ships with.
// Hosts may overwrite any of them through the registry.
func (in *Interpreter) registerBuiltins() {
	in.functions.Register("log", in.builtinLog, &FunctionMeta{
		Doc:    "Route a message to the severity log sink.",
		Params: []string{"message", "level"},
	})
	in.functions.Register("print", in.builtinPrint, &FunctionMeta{
		Doc:    "Write a message to the plain output sink.",
		Params: []string{"message"},
	})
	in.functions.Register("set", builtinSet, &FunctionMeta{
		Doc:    "Write a value at a scoped dotted key.",
		Params: []string{"key", "value"},
	})
	in.functions.Register("get", builtinGet, &FunctionMeta{
		Doc:    "Read the value at a scoped dotted key.",
		Params: []string{"key"},
	})
}

func (in *Interpreter) builtinLog(ctx *Context, args map[string]any) (any, error) {
	positional, named := SplitArgs(args)
	message, ok := named["message"]
	if !ok {
		if len(positional) == 0 {
			return nil, diag.New(diag.KindRuntime, "log requires a message argument")
		}
		message = positional[0]
	}
	level := ast.LevelInfo
	if raw, ok := named["level"]; ok {
		level = ast.LogLevel(Stringify(raw))
	} else if len(positional) > 1 {
		level = ast.LogLevel(Stringify(positional[1]))
	}
	in.emitLog(level, Stringify(message))
	return nil, nil
}

func (in *Interpreter) builtinPrint(ctx *Context, args map[string]any) (any, error) {
	positional, named := SplitArgs(args)
	message, ok := named["message"]
	if !ok {
		if len(positional) == 0 {
			return nil, diag.New(diag.KindRuntime, "print requires a message argument")
		}
		message = positional[0]
	}
	fmt.Fprintln(in.out, Stringify(message))
	return nil, nil
}

func builtinSet(ctx *Context, args map[string]any) (any, error) {
	positional, named := SplitArgs(args)
	key, ok := named["key"]
	if !ok && len(positional) > 0 {
		key = positional[0]
	}
	value, ok2 := named["value"]
	if !ok2 && len(positional) > 1 {
		value = positional[1]
	}
	keyStr, ok3 := key.(string)
	if !ok3 {
		return nil, diag.New(diag.KindRuntime, "set requires a string key argument")
	}
	if err := ctx.Set(keyStr, value); err != nil {
		return nil, err
	}
	return value, nil
}

func builtinGet(ctx *Context, args map[string]any) (any, error) {
	positional, named := SplitArgs(args)
	key, ok := named["key"]
	if !ok && len(positional) > 0 {
		key = positional[0]
	}
	keyStr, ok2 := key.(string)
	if !ok2 {
		return nil, diag.New(diag.KindRuntime, "get requires a string key argument")
	}
	return ctx.Get(keyStr)
}
