package values

import (
	"fmt"
	"strings"
)

// ExecutionMode restricts script execution to the editor, the runtime or both.
type ExecutionMode int

const (
	// ModeEditorOnly allows execution only in an editor/tool context
	ModeEditorOnly ExecutionMode = 0
	// ModeRuntimeOnly allows execution only in a live runtime context
	ModeRuntimeOnly ExecutionMode = 1
	// ModeBoth allows execution everywhere
	ModeBoth ExecutionMode = 2
)

// HostContext says where the host is currently running.
type HostContext int

const (
	// ContextEditor is a tool/editor context
	ContextEditor HostContext = iota
	// ContextRuntime is a live runtime context
	ContextRuntime
)

// ParseExecutionMode parses a mode name such as "editor-only", "RuntimeOnly" or "both".
func ParseExecutionMode(s string) (ExecutionMode, error) {
	switch normalize(s) {
	case "editoronly", "editor", "0":
		return ModeEditorOnly, nil
	case "runtimeonly", "runtime", "1":
		return ModeRuntimeOnly, nil
	case "both", "2", "":
		return ModeBoth, nil
	default:
		return 0, fmt.Errorf("invalid execution mode: %q", s)
	}
}

// ParseHostContext parses "editor" or "runtime".
func ParseHostContext(s string) (HostContext, error) {
	switch normalize(s) {
	case "editor":
		return ContextEditor, nil
	case "runtime", "":
		return ContextRuntime, nil
	default:
		return 0, fmt.Errorf("invalid host context: %q", s)
	}
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "")
	return strings.ReplaceAll(s, "_", "")
}

// Allows reports whether scripts may execute in the given host context.
func (m ExecutionMode) Allows(ctx HostContext) bool {
	switch m {
	case ModeEditorOnly:
		return ctx == ContextEditor
	case ModeRuntimeOnly:
		return ctx == ContextRuntime
	case ModeBoth:
		return true
	default:
		return false
	}
}

// Validate returns an error if the mode value is invalid
func (m ExecutionMode) Validate() error {
	switch m {
	case ModeEditorOnly, ModeRuntimeOnly, ModeBoth:
		return nil
	default:
		return fmt.Errorf("invalid execution mode: %d", int(m))
	}
}

func (m ExecutionMode) String() string {
	switch m {
	case ModeEditorOnly:
		return "EditorOnly"
	case ModeRuntimeOnly:
		return "RuntimeOnly"
	case ModeBoth:
		return "Both"
	default:
		return fmt.Sprintf("ExecutionMode(%d)", int(m))
	}
}

func (c HostContext) String() string {
	if c == ContextEditor {
		return "editor"
	}
	return "runtime"
}
