package services

import (
	"fmt"

	"github.com/assetkit-dev/assetkit/internal/domain/entities"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ScriptSpecification defines a condition that a script must meet.
type ScriptSpecification interface {
	// IsSatisfiedBy returns true if satisfied, along with a reason if not.
	IsSatisfiedBy(s *entities.Script) (bool, string)
}

// AndSpecification combines multiple specifications with logical AND.
type AndSpecification struct {
	specs []ScriptSpecification
}

// NewAndSpecification creates a new AndSpecification.
func NewAndSpecification(specs ...ScriptSpecification) *AndSpecification {
	return &AndSpecification{specs: specs}
}

// IsSatisfiedBy checks if all specifications are satisfied.
func (a *AndSpecification) IsSatisfiedBy(s *entities.Script) (bool, string) {
	for _, spec := range a.specs {
		if ok, reason := spec.IsSatisfiedBy(s); !ok {
			return false, reason
		}
	}
	return true, ""
}

// ExclusiveScriptsSpecification includes only the listed ids or names.
type ExclusiveScriptsSpecification struct {
	keys map[string]bool
}

// NewExclusiveScriptsSpecification creates a new ExclusiveScriptsSpecification.
func NewExclusiveScriptsSpecification(keys map[string]bool) *ExclusiveScriptsSpecification {
	return &ExclusiveScriptsSpecification{keys: keys}
}

// IsSatisfiedBy checks if the script id or name is in the exclusive list.
func (e *ExclusiveScriptsSpecification) IsSatisfiedBy(s *entities.Script) (bool, string) {
	if e.keys[s.ID.String()] || e.keys[s.Name] {
		return true, ""
	}
	return false, "excluded by --script filter"
}

// ExcludedScriptsSpecification excludes the listed ids or names.
type ExcludedScriptsSpecification struct {
	keys map[string]bool
}

// NewExcludedScriptsSpecification creates a new ExcludedScriptsSpecification.
func NewExcludedScriptsSpecification(keys map[string]bool) *ExcludedScriptsSpecification {
	return &ExcludedScriptsSpecification{keys: keys}
}

// IsSatisfiedBy checks if the script id and name are NOT in the excluded list.
func (e *ExcludedScriptsSpecification) IsSatisfiedBy(s *entities.Script) (bool, string) {
	if e.keys[s.ID.String()] || e.keys[s.Name] {
		return false, "excluded by --exclude-script"
	}
	return true, ""
}

// ExpressionSpecification filters scripts using an expr program.
type ExpressionSpecification struct {
	program *vm.Program
}

// NewExpressionSpecification creates a new ExpressionSpecification.
func NewExpressionSpecification(program *vm.Program) *ExpressionSpecification {
	return &ExpressionSpecification{program: program}
}

// IsSatisfiedBy evaluates the expr program against the script.
func (e *ExpressionSpecification) IsSatisfiedBy(s *entities.Script) (bool, string) {
	if e.program == nil {
		return true, ""
	}

	output, err := expr.Run(e.program, NewScriptEnv(s))
	if err != nil {
		return false, fmt.Sprintf("filter expression error: %v", err)
	}

	result, ok := output.(bool)
	if !ok {
		return false, fmt.Sprintf("filter expression did not return boolean: %v", output)
	}
	if !result {
		return false, "excluded by --filter expression"
	}
	return true, ""
}
