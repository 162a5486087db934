// ABOUTME: Default agent roster: triage (handoffs), orchestrator (agent tools),
// ABOUTME: and four specialists for research, creative, technical, business work

package registry

const (
	// DefaultAgent receives requests that name no agent or an unknown one.
	DefaultAgent = "triage"

	researchInstructions = `You are a research specialist. You help users find information,
analyze data, and provide well-researched answers. You cite sources when possible.`

	creativeInstructions = `You are a creative writing specialist. You help users with
creative tasks like writing stories, poems, brainstorming ideas, and
developing creative concepts.`

	technicalInstructions = `You are a technical specialist. You help with programming,
debugging, system architecture, and technical problem-solving. You provide
code examples when helpful.`

	businessInstructions = `You are a business consultant. You help with business strategy,
marketing, finance, and organizational planning. You provide actionable advice.`

	triageInstructions = `You are a helpful assistant that routes users to the right specialist.

Available specialists:
- research: For research, information gathering, and analysis
- creative: For creative writing, storytelling, and brainstorming
- technical: For programming, debugging, and technical problems
- business: For business strategy, marketing, and planning

Analyze the user's request and hand off to the most appropriate specialist.
If the request spans multiple areas, pick the primary focus.`

	orchestratorInstructions = `You are an orchestration agent that coordinates multiple specialists.

When a user needs help from multiple areas, you use the specialist tools to gather
information from each relevant expert, then synthesize their responses into a
comprehensive answer.

Always use the tools provided - never try to answer directly.`
)

// Overrides replaces roster instruction text per agent name. Unknown names are
// ignored; empty values keep the built-in text. Applied at construction only;
// the registry stays immutable afterwards.
type Overrides map[string]string

// Default builds the standard six-agent roster: four specialists, a triage
// agent that hands off to them, and an orchestrator that calls them as tools.
func Default(overrides Overrides) *Registry {
	return Roster(DefaultAgent, overrides)
}

// Roster builds the standard roster with a custom fallback agent. The name
// must be one of the roster agents; New panics otherwise.
func Roster(defaultName string, overrides Overrides) *Registry {
	specialists := []string{"research", "creative", "technical", "business"}

	research := &Definition{
		Name:         "research",
		Description:  "Research and information specialist",
		Instructions: override(overrides, "research", researchInstructions),
	}
	creative := &Definition{
		Name:         "creative",
		Description:  "Creative writing specialist",
		Instructions: override(overrides, "creative", creativeInstructions),
	}
	technical := &Definition{
		Name:         "technical",
		Description:  "Technical and programming specialist",
		Instructions: override(overrides, "technical", technicalInstructions),
	}
	business := &Definition{
		Name:         "business",
		Description:  "Business and strategy specialist",
		Instructions: override(overrides, "business", businessInstructions),
	}

	triage := &Definition{
		Name:         "triage",
		Description:  "Routes to the right specialist (handoffs pattern)",
		Instructions: override(overrides, "triage", triageInstructions),
		Handoffs:     specialists,
	}

	orchestrator := &Definition{
		Name:         "orchestrator",
		Description:  "Coordinates multiple specialists (agents-as-tools pattern)",
		Instructions: override(overrides, "orchestrator", orchestratorInstructions),
		Tools: []AgentTool{
			{Target: "research", ToolName: "consult_researcher", Description: "Get research and analysis from the research specialist"},
			{Target: "creative", ToolName: "consult_creative", Description: "Get creative ideas from the creative specialist"},
			{Target: "technical", ToolName: "consult_technical", Description: "Get technical advice from the technical specialist"},
			{Target: "business", ToolName: "consult_business", Description: "Get business advice from the business specialist"},
		},
	}

	return New(defaultName, triage, orchestrator, research, creative, technical, business)
}

func override(o Overrides, name, fallback string) string {
	if o != nil {
		if text, ok := o[name]; ok && text != "" {
			return text
		}
	}
	return fallback
}
