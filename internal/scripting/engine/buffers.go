package engine

import (
	"slices"

	"github.com/assetkit-dev/assetkit/internal/domain/values"
	"github.com/assetkit-dev/assetkit/internal/scripting/session"
)

// buffers keeps the append-only output and error lines of every script.
type buffers struct {
	out  map[values.ScriptID][]string
	errs map[values.ScriptID][]string
}

var _ session.OutputSink = (*buffers)(nil)

func newBuffers() *buffers {
	return &buffers{
		out:  make(map[values.ScriptID][]string),
		errs: make(map[values.ScriptID][]string),
	}
}

func (b *buffers) Output(id values.ScriptID, line string) { b.out[id] = append(b.out[id], line) }
func (b *buffers) Error(id values.ScriptID, line string)  { b.errs[id] = append(b.errs[id], line) }

func (b *buffers) lines(m map[values.ScriptID][]string, id values.ScriptID) []string {
	return slices.Clone(m[id])
}

func (b *buffers) clear(id values.ScriptID) {
	delete(b.out, id)
	delete(b.errs, id)
}
