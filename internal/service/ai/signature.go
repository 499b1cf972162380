package ai

import (
	"fmt"
	"strings"
)

// Field names one input or output slot of a Signature.
type Field struct {
	Name        string
	Description string
}

// Signature describes a single-input, single-output completion task and the
// [[ ## field ## ]] framing used to exchange it with the model.
type Signature struct {
	Instructions string
	Input        Field
	Output       Field
}

// BugFixer turns submitted code into a bug analysis and fix.
var BugFixer = Signature{
	Instructions: "Given the fields `code_input`, produce the fields `fixed_output`.",
	Input: Field{
		Name:        "code_input",
		Description: "Code provided by user that may have bugs.",
	},
	Output: Field{
		Name:        "fixed_output",
		Description: "The optimized bug-analysis and bug-fix response.",
	},
}

const completedField = "completed"

func marker(name string) string {
	return "[[ ## " + name + " ## ]]"
}

// SystemPrompt explains the fields and the expected reply structure.
func (s Signature) SystemPrompt() string {
	var b strings.Builder
	b.WriteString("Your input fields are:\n")
	fmt.Fprintf(&b, "1. `%s` (str): %s\n", s.Input.Name, s.Input.Description)
	b.WriteString("Your output fields are:\n")
	fmt.Fprintf(&b, "1. `%s` (str): %s\n", s.Output.Name, s.Output.Description)
	b.WriteString("All interactions will be structured in the following way, with the appropriate values filled in.\n\n")
	fmt.Fprintf(&b, "%s\n<%s>\n\n", marker(s.Input.Name), s.Input.Name)
	fmt.Fprintf(&b, "%s\n<%s>\n\n", marker(s.Output.Name), s.Output.Name)
	b.WriteString(marker(completedField))
	b.WriteString("\nIn adhering to this structure, your objective is: \n        ")
	b.WriteString(s.Instructions)
	return b.String()
}

// UserPrompt frames value as the input field.
func (s Signature) UserPrompt(value string) string {
	var b strings.Builder
	b.WriteString(marker(s.Input.Name))
	b.WriteByte('\n')
	b.WriteString(value)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Respond with the corresponding output fields, starting with the field `%s`, and then ending with the marker for `%s`.",
		marker(s.Output.Name), marker(completedField))
	return b.String()
}

// Parse extracts the output field from a model reply. Replies that ignore
// the framing are returned whole.
func (s Signature) Parse(content string) (string, error) {
	out := content
	if _, after, ok := strings.Cut(content, marker(s.Output.Name)); ok {
		out = after
	}
	if before, _, ok := strings.Cut(out, marker(completedField)); ok {
		out = before
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
