package toolbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrToolNotFound is returned by Call for an unregistered tool name.
var ErrToolNotFound = errors.New("tool not found")

// ToolBox orchestrates a collection of tools. It allows registering, retrieving,
// listing, and calling tools. Middleware added with Use wraps every handler the
// ToolBox hands out.
type ToolBox struct {
	tools      map[string]Tool
	middleware []Middleware
}

// New creates a new ToolBox ready for use.
func New() *ToolBox {
	return &ToolBox{
		tools: make(map[string]Tool),
	}
}

// Register adds one or more tools to the ToolBox. If a tool with the same name
// already exists, it is replaced.
func (tb *ToolBox) Register(tools ...Tool) {
	for _, t := range tools {
		tb.tools[t.Name] = t
	}
}

// Use appends middleware. The first middleware added is the outermost.
func (tb *ToolBox) Use(mw ...Middleware) {
	tb.middleware = append(tb.middleware, mw...)
}

// Get returns a tool by name, with middleware applied, and a boolean
// indicating whether it was found.
func (tb *ToolBox) Get(name string) (Tool, bool) {
	t, ok := tb.tools[name]
	if !ok {
		return Tool{}, false
	}

	return tb.wrap(t), true
}

// Filter returns a ToolBox holding only the named tools, sharing this
// ToolBox's middleware. Unknown names are skipped. An empty list returns tb
// itself.
func (tb *ToolBox) Filter(names []string) *ToolBox {
	if len(names) == 0 {
		return tb
	}

	out := New()
	out.middleware = slices.Clone(tb.middleware)
	for _, n := range names {
		if t, ok := tb.tools[strings.TrimSpace(n)]; ok {
			out.tools[t.Name] = t
		}
	}

	return out
}

// Names returns the registered tool names in sorted order.
func (tb *ToolBox) Names() []string {
	names := make([]string, 0, len(tb.tools))
	for n := range tb.tools {
		names = append(names, n)
	}
	slices.Sort(names)

	return names
}

// Tools returns all registered tools sorted by name, with middleware applied.
func (tb *ToolBox) Tools() []Tool {
	result := make([]Tool, 0, len(tb.tools))
	for _, n := range tb.Names() {
		result = append(result, tb.wrap(tb.tools[n]))
	}

	return result
}

// Call runs the named tool with the given JSON arguments.
func (tb *ToolBox) Call(ctx context.Context, name string, args json.RawMessage) (string, error) {
	t, ok := tb.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	return t.Handler(ctx, args)
}

func (tb *ToolBox) wrap(t Tool) Tool {
	h := t.Handler
	for i := len(tb.middleware) - 1; i >= 0; i-- {
		h = tb.middleware[i](t.Name, h)
	}
	t.Handler = h

	return t
}
