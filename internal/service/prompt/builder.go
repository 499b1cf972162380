package prompt

import (
	"strings"

	model "github.com/zhouzirui/bug-fixer/backend/internal/model/prompt"
)

// Build composes the bug-fixing prompt for the submitted text.
//
// The result is the base instruction, the analysis, fixing and optimization
// modules, the user code marker and finally userCode verbatim, each joined
// by a newline. userCode is neither validated nor escaped.
func Build(userCode string) string {
	var b strings.Builder
	b.Grow(len(model.BaseInstruction) + len(model.AnalysisModule) + len(model.FixingModule) +
		len(model.OptimizationModule) + len(model.UserCodeMarker) + len(userCode) + 8)

	b.WriteString(model.BaseInstruction)
	b.WriteByte('\n')
	b.WriteString(model.AnalysisModule)
	b.WriteByte('\n')
	b.WriteString(model.FixingModule)
	b.WriteByte('\n')
	b.WriteString(model.OptimizationModule)
	b.WriteByte('\n')
	b.WriteString(model.UserCodeMarker)
	b.WriteByte('\n')
	b.WriteString(userCode)
	return b.String()
}
