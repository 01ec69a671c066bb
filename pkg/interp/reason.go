package interp

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/axon/pkg/ast"
	"github.com/funvibe/axon/pkg/diag"
)

// FormatStructured requests that the Reasoner's textual answer be parsed
// into structured data before it is stored.
const FormatStructured = "structured"

// executeReason evaluates the prompt, gathers the context payload and
// options, and issues the single blocking Reasoner round-trip. Execution
// does not proceed until a result or failure returns.
func (in *Interpreter) executeReason(s *ast.ReasonStatement) error {
	promptVal, err := in.EvalExpression(s.Prompt)
	if err != nil {
		return err
	}
	prompt := Stringify(promptVal)

	payload := in.gatherPayload(s.ContextVars)

	opts, err := in.evalReasonOptions(s.Options)
	if err != nil {
		return err
	}

	reasoner, err := in.lookupReasoner()
	if err != nil {
		var typed *diag.Error
		if errors.As(err, &typed) {
			typed.WithPos(s.Position)
		}
		return err
	}

	messages := buildMessages(prompt, payload)
	response, err := reasoner.Query(in.execCtx, messages, opts)
	if err != nil {
		return diag.Wrap(diag.KindReasonerFailure, err, "Reasoner query failed").WithPos(s.Position)
	}

	result := in.extractResult(response, opts.Format)
	if s.Target != "" {
		if err := in.context.Set(targetKey(s.Target), result); err != nil {
			return err
		}
	}
	in.lastValue = result
	return nil
}

// gatherPayload resolves the named context variables into the side payload.
// Missing variables are skipped with a warning; the payload is advisory
// context for the Reasoner, not program state.
func (in *Interpreter) gatherPayload(names []string) map[string]any {
	if len(names) == 0 {
		return nil
	}
	payload := make(map[string]any, len(names))
	for _, name := range names {
		var val any
		var found bool
		if dot := strings.IndexByte(name, '.'); dot > 0 && IsValidScope(name[:dot]) {
			v, err := in.context.Get(name)
			val, found = v, err == nil
		} else {
			val, found = in.context.ResolveBare(name)
		}
		if !found {
			in.logger.Warn("context variable for reason statement not found",
				zap.String("variable", name))
			continue
		}
		payload[name] = val
	}
	return payload
}

func (in *Interpreter) evalReasonOptions(exprs map[string]ast.Expression) (ReasonOptions, error) {
	opts := ReasonOptions{}
	if len(exprs) == 0 {
		return opts, nil
	}
	keys := make([]string, 0, len(exprs))
	for key := range exprs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		val, err := in.EvalExpression(exprs[key])
		if err != nil {
			return opts, err
		}
		switch key {
		case "temperature":
			if f, _, ok := asNumber(val); ok {
				opts.Temperature = f
			}
		case "max_tokens":
			if i, ok := asInt64(val); ok {
				opts.MaxTokens = int(i)
			}
		case "format":
			opts.Format = Stringify(val)
		default:
			if opts.Extra == nil {
				opts.Extra = make(map[string]any)
			}
			opts.Extra[key] = val
		}
	}
	return opts, nil
}

func (in *Interpreter) lookupReasoner() (Reasoner, error) {
	obj, err := in.context.GetResource(ResourceReasoner)
	if err != nil {
		return nil, diag.New(diag.KindReasonerUnavailable,
			"No reasoner registered (resources: %s)", strings.Join(in.context.ListResources(), ", "))
	}
	reasoner, ok := obj.(Reasoner)
	if !ok {
		return nil, diag.New(diag.KindReasonerUnavailable,
			"Resource %q does not implement the Reasoner contract (got %T)", ResourceReasoner, obj)
	}
	return reasoner, nil
}

// buildMessages renders the prompt and the optional context payload as an
// ordered message list: a system message carrying the payload (when
// present) followed by the user prompt.
func buildMessages(prompt string, payload map[string]any) []Message {
	messages := make([]Message, 0, 2)
	if len(payload) > 0 {
		keys := make([]string, 0, len(payload))
		for key := range payload {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString("Context:")
		for _, key := range keys {
			fmt.Fprintf(&b, "\n%s = %s", key, Stringify(payload[key]))
		}
		messages = append(messages, Message{Role: "system", Content: b.String()})
	}
	messages = append(messages, Message{Role: "user", Content: prompt})
	return messages
}

// extractResult pulls the textual answer out of one of the three supported
// response shapes, then applies the structured-format parse when requested.
func (in *Interpreter) extractResult(response any, format string) any {
	content := extractContent(response)
	if format != FormatStructured {
		return content
	}
	text, ok := content.(string)
	if !ok {
		// Already structured; nothing to parse.
		return content
	}
	parsed, err := parseStructured(text)
	if err != nil {
		in.logger.Warn("structured format requested but content is not parseable, keeping raw text",
			zap.Error(err))
		return text
	}
	return parsed
}

// extractContent supports the three response shapes of the Reasoner
// contract: a choices/message/content path, a direct content field, and a
// raw string fallback.
func extractContent(response any) any {
	switch resp := response.(type) {
	case map[string]any:
		if choices, ok := resp["choices"].([]any); ok && len(choices) > 0 {
			if choice, ok := choices[0].(map[string]any); ok {
				if message, ok := choice["message"].(map[string]any); ok {
					if content, ok := message["content"]; ok {
						return content
					}
				}
			}
		}
		if content, ok := resp["content"]; ok {
			return content
		}
		return resp
	case string:
		return resp
	default:
		return response
	}
}

// parseStructured decodes a textual answer as structured data. Strict JSON
// is tried first; YAML second, which also tolerates the looser JSON-ish
// output models sometimes emit. Decoded maps and lists are normalized to
// map[string]any / []any.
func parseStructured(text string) (any, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("empty content")
	}
	var viaJSON any
	if err := json.Unmarshal([]byte(trimmed), &viaJSON); err == nil {
		return normalizeDecoded(viaJSON), nil
	}
	var viaYAML any
	if err := yaml.Unmarshal([]byte(trimmed), &viaYAML); err != nil {
		return nil, err
	}
	switch viaYAML.(type) {
	case map[string]any, []any:
		return normalizeDecoded(viaYAML), nil
	default:
		// A bare scalar round-tripped through YAML is not structured data.
		return nil, fmt.Errorf("content is not a structure: %q", trimmed)
	}
}

// normalizeDecoded converts decoder output into the engine's value set:
// whole floats become int64 (encoding/json decodes every number as float64)
// and yaml ints become int64.
func normalizeDecoded(v any) any {
	switch val := v.(type) {
	case float64:
		if val == float64(int64(val)) {
			return int64(val)
		}
		return val
	case int:
		return int64(val)
	case []any:
		for i, item := range val {
			val[i] = normalizeDecoded(item)
		}
		return val
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeDecoded(item)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprintf("%v", k)] = normalizeDecoded(item)
		}
		return out
	default:
		return v
	}
}
