package services

import (
	"fmt"

	"github.com/assetkit-dev/assetkit/internal/domain/entities"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// maxFilterNodes limits filter expression complexity.
const maxFilterNodes = 500

// ScriptEnv defines the variables available during filter expression evaluation.
type ScriptEnv struct {
	ID      string `expr:"id"`
	Name    string `expr:"name"`
	Trigger string `expr:"trigger"`
	Event   string `expr:"event"`
	Enabled bool   `expr:"enabled"`
}

// NewScriptEnv builds the evaluation environment for a script.
func NewScriptEnv(s *entities.Script) ScriptEnv {
	return ScriptEnv{
		ID:      s.ID.String(),
		Name:    s.Name,
		Trigger: s.Trigger.String(),
		Event:   s.CustomEvent,
		Enabled: s.Enabled,
	}
}

// CompileScriptFilter compiles a boolean filter expression, e.g.
// `trigger == "OnCustomEvent" && event startsWith "door_"`.
func CompileScriptFilter(expression string) (*vm.Program, error) {
	program, err := expr.Compile(expression,
		expr.Env(ScriptEnv{}),
		expr.AsBool(),
		expr.MaxNodes(maxFilterNodes),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid script filter %q: %w", expression, err)
	}
	return program, nil
}

// ScriptFilter implements dispatch selection based on names, ids and an expression.
type ScriptFilter struct {
	// Exclusive mode: only include specified scripts (by id or name)
	exclusive map[string]bool

	// Exclusion filters
	excluded map[string]bool

	// Advanced filtering
	program *vm.Program
}

// NewScriptFilter initializes a new empty filter.
func NewScriptFilter() *ScriptFilter {
	return &ScriptFilter{
		exclusive: make(map[string]bool),
		excluded:  make(map[string]bool),
	}
}

// WithExclusiveScripts restricts dispatch to ONLY the given ids or names.
func (f *ScriptFilter) WithExclusiveScripts(keys []string) *ScriptFilter {
	f.exclusive = toSet(keys)
	return f
}

// WithExcludedScripts excludes the given ids or names.
func (f *ScriptFilter) WithExcludedScripts(keys []string) *ScriptFilter {
	f.excluded = toSet(keys)
	return f
}

// WithFilterExpression applies a compiled expr program for advanced filtering.
func (f *ScriptFilter) WithFilterExpression(program *vm.Program) *ScriptFilter {
	f.program = program
	return f
}

// ShouldRun evaluates whether a script matches the filter criteria.
// It returns true if the script may be dispatched, along with a reason if not.
func (f *ScriptFilter) ShouldRun(s *entities.Script) (bool, string) {
	if f == nil {
		return true, ""
	}
	var specs []ScriptSpecification
	if len(f.exclusive) > 0 {
		specs = append(specs, NewExclusiveScriptsSpecification(f.exclusive))
	}
	if len(f.excluded) > 0 {
		specs = append(specs, NewExcludedScriptsSpecification(f.excluded))
	}
	if f.program != nil {
		specs = append(specs, NewExpressionSpecification(f.program))
	}
	return NewAndSpecification(specs...).IsSatisfiedBy(s)
}

// toSet converts a slice to a map (set)
func toSet(slice []string) map[string]bool {
	s := make(map[string]bool, len(slice))
	for _, item := range slice {
		s[item] = true
	}
	return s
}
