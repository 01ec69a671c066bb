package interp

import (
	"sync"

	"go.uber.org/zap"

	"github.com/funvibe/axon/pkg/ast"
)

// HookPoint names an extension point fired during execution. The set is
// fixed; each point supports any number of registered callbacks.
type HookPoint string

const (
	BeforeProgram     HookPoint = "before_program"
	AfterProgram      HookPoint = "after_program"
	BeforeStatement   HookPoint = "before_statement"
	AfterStatement    HookPoint = "after_statement"
	BeforeAssignment  HookPoint = "before_assignment"
	AfterAssignment   HookPoint = "after_assignment"
	BeforeConditional HookPoint = "before_conditional"
	AfterConditional  HookPoint = "after_conditional"
	BeforeLog         HookPoint = "before_log"
	AfterLog          HookPoint = "after_log"
	BeforeLoop        HookPoint = "before_loop"
	AfterLoop         HookPoint = "after_loop"
	BeforeExpression  HookPoint = "before_expression"
	AfterExpression   HookPoint = "after_expression"
	OnError           HookPoint = "on_error"
)

// HookPayload is handed to every callback fired at a point. Fields beyond
// Node/Interpreter/Context are point-specific: Value carries the assigned or
// evaluated value, Iteration the loop iteration count, Err the propagating
// error for OnError.
type HookPayload struct {
	Point       HookPoint
	Node        ast.Node
	Interpreter *Interpreter
	Context     *Context
	Value       any
	Iteration   int
	Err         error
}

// HookFunc is an observer callback. Hooks never participate in control flow:
// a panicking callback is recovered, logged and ignored.
type HookFunc func(HookPayload)

// HookRegistry maps extension points to their registered callbacks.
// The zero value is ready to use.
type HookRegistry struct {
	mu     sync.RWMutex
	hooks  map[HookPoint][]HookFunc
	logger *zap.Logger
}

func NewHookRegistry() *HookRegistry {
	return &HookRegistry{hooks: make(map[HookPoint][]HookFunc)}
}

// SetLogger sets the logger used to report recovered callback panics.
func (r *HookRegistry) SetLogger(logger *zap.Logger) {
	r.mu.Lock()
	r.logger = logger
	r.mu.Unlock()
}

// Register adds a callback at a point. Registration is additive; callbacks
// fire in registration order.
func (r *HookRegistry) Register(point HookPoint, fn HookFunc) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	if r.hooks == nil {
		r.hooks = make(map[HookPoint][]HookFunc)
	}
	r.hooks[point] = append(r.hooks[point], fn)
	r.mu.Unlock()
}

// Count returns the number of callbacks registered at a point.
func (r *HookRegistry) Count(point HookPoint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks[point])
}

// Fire invokes every callback registered at a point. A callback that panics
// is recovered and logged; sibling callbacks and the surrounding execution
// continue unaffected.
func (r *HookRegistry) Fire(point HookPoint, payload HookPayload) {
	r.mu.RLock()
	callbacks := r.hooks[point]
	logger := r.logger
	r.mu.RUnlock()
	if len(callbacks) == 0 {
		return
	}
	payload.Point = point
	for _, cb := range callbacks {
		r.fireOne(point, cb, payload, logger)
	}
}

func (r *HookRegistry) fireOne(point HookPoint, cb HookFunc, payload HookPayload, logger *zap.Logger) {
	defer func() {
		if rec := recover(); rec != nil && logger != nil {
			logger.Warn("hook callback panicked",
				zap.String("point", string(point)),
				zap.Any("panic", rec))
		}
	}()
	cb(payload)
}
