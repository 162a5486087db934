// ABOUTME: Fixed registry of agent definitions with handoff and tool wiring
// ABOUTME: Resolve falls back to the default agent; unknown names never fail

package registry

// AgentTool exposes another agent as a callable sub-routine: the invoking
// agent keeps control of the conversation and synthesizes the tool output.
type AgentTool struct {
	Target      string
	ToolName    string
	Description string
}

// Definition is one named agent configuration. Immutable after registry
// construction.
type Definition struct {
	Name         string
	Description  string
	Instructions string

	// Handoffs lists agents this one may transfer the whole conversation to.
	Handoffs []string

	// Tools lists agents exposed to this one as synchronous sub-calls.
	Tools []AgentTool
}

// Registry is a fixed name → definition mapping built once at startup.
type Registry struct {
	agents      map[string]*Definition
	order       []string
	defaultName string
}

// New builds a registry from the given definitions. The first definition whose
// name equals defaultName is the fallback for unknown lookups; defaultName
// must be present.
func New(defaultName string, defs ...*Definition) *Registry {
	r := &Registry{
		agents:      make(map[string]*Definition, len(defs)),
		defaultName: defaultName,
	}
	for _, d := range defs {
		if _, dup := r.agents[d.Name]; !dup {
			r.order = append(r.order, d.Name)
		}
		r.agents[d.Name] = d
	}
	if _, ok := r.agents[defaultName]; !ok {
		panic("registry: default agent " + defaultName + " not defined")
	}
	return r
}

// Resolve returns the definition for name, or the default agent's definition
// when the name is unknown or empty. It never fails.
func (r *Registry) Resolve(name string) *Definition {
	if d, ok := r.agents[name]; ok {
		return d
	}
	return r.agents[r.defaultName]
}

// Lookup returns the definition for name without fallback.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	d, ok := r.agents[name]
	return d, ok
}

// DefaultName returns the name of the fallback agent.
func (r *Registry) DefaultName() string {
	return r.defaultName
}

// List returns a name → description mapping of all registered agents.
func (r *Registry) List() map[string]string {
	out := make(map[string]string, len(r.agents))
	for name, d := range r.agents {
		out[name] = d.Description
	}
	return out
}

// Names returns agent names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	return len(r.agents)
}
