package prompt

// Module is one fixed instruction block of the bug-fixing prompt.
type Module struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Instruction blocks, in the order they appear in the composed prompt.
// Leading/trailing newlines and trailing spaces are part of the text.
const (
	BaseInstruction = "\n" +
		"You are an AI-based bug-fixing assistant. \n" +
		"Your job is to analyse code, identify bugs, explain the problem clearly, \n" +
		"and propose corrected code. \n" +
		"Keep answers accurate, structured, and helpful for developers.\n"

	AnalysisModule = "\n" +
		"[MODULE: BUG ANALYSIS]\n" +
		"- Identify syntax errors\n" +
		"- Identify logical errors\n" +
		"- Identify performance bottlenecks\n" +
		"- Identify missing dependencies\n"

	FixingModule = "\n" +
		"[MODULE: BUG FIXING]\n" +
		"For each bug:\n" +
		"1. Explain cause of the bug  \n" +
		"2. Provide corrected version of code  \n" +
		"3. Explain why fix works  \n"

	OptimizationModule = "\n" +
		"[MODULE: PROMPT OPTIMIZATION]\n" +
		"Generate the final answer using:\n" +
		"- Minimal wording\n" +
		"- Clear structure\n" +
		"- Developer-friendly formatting\n" +
		"- Bullet points for explanations\n"

	// UserCodeMarker heads the section carrying the submitted text.
	UserCodeMarker = "[USER CODE]"
)

// Seed returns the built-in modules in prompt order.
func Seed() []Module {
	return []Module{
		{ID: "base", Title: "Base instruction", Body: BaseInstruction},
		{ID: "analysis", Title: "Bug analysis", Body: AnalysisModule},
		{ID: "fixing", Title: "Bug fixing", Body: FixingModule},
		{ID: "optimization", Title: "Prompt optimization", Body: OptimizationModule},
	}
}
