// Package prompts renders structured prompt documents and extracts their
// {{variable}} placeholders. Everything here is pure: same input, same output.
package prompts

import (
	"fmt"
	"strings"

	"github.com/psylab-io/psy-engine/pkg/models"
)

// Compile renders a prompt structure into a single Markdown document.
// Sections are emitted only when their source fields are non-empty, in fixed
// order: role, analysis logic, workflow, quality control. Parts are joined
// with single newlines and nothing is prettified afterwards; the output for a
// given structure is byte-stable.
func Compile(data models.PromptStructure) string {
	var parts []string

	if data.Role.Identity != "" {
		parts = append(parts, fmt.Sprintf("# Role: %s", data.Role.Identity))
	}
	if len(data.Role.Expertise) > 0 {
		parts = append(parts, "\n## Expertise\n- "+strings.Join(data.Role.Expertise, "\n- "))
	}
	if len(data.Role.Capabilities) > 0 {
		parts = append(parts, "\n## Capabilities\n- "+strings.Join(data.Role.Capabilities, "\n- "))
	}
	if data.Role.Example != "" {
		parts = append(parts, "\n## Role Context & Style\n"+data.Role.Example)
	}

	if data.Logic.Principles != "" || data.Logic.Method != "" || len(data.Logic.Constraints) > 0 {
		parts = append(parts, "\n# Analysis Logic")

		if data.Logic.Principles != "" {
			parts = append(parts, "\n## Core Principles\n"+data.Logic.Principles)
		}
		if data.Logic.Method != "" {
			parts = append(parts, "\n## Methodology\n"+data.Logic.Method)
		}
		if len(data.Logic.Constraints) > 0 {
			parts = append(parts, "\n## Constraints\n- "+strings.Join(data.Logic.Constraints, "\n- "))
		}
		if data.Logic.Example != "" {
			parts = append(parts, "\n## Few-Shot Example\n"+data.Logic.Example)
		}
	}

	if len(data.Workflow) > 0 {
		parts = append(parts, "\n# Workflow")
		for i, step := range data.Workflow {
			// Step numbers are recomputed from position on every render;
			// nothing stored in the step participates in numbering.
			parts = append(parts, fmt.Sprintf("\n## Step %d: %s", i+1, step.ID))
			parts = append(parts, step.Logic)
			if step.Example != "" {
				parts = append(parts, "> Example: "+step.Example)
			}
		}
	}

	if len(data.Quality.Checkpoints) > 0 || len(data.Quality.Avoidance) > 0 {
		parts = append(parts, "\n# Quality Control")

		if len(data.Quality.Checkpoints) > 0 {
			parts = append(parts, "\n## Output Checkpoints (Must Have)\n- [ ] "+strings.Join(data.Quality.Checkpoints, "\n- [ ] "))
		}
		if len(data.Quality.Avoidance) > 0 {
			// Checked boxes here are documentary, marking items as "handled
			// by avoidance", not a real completion state.
			parts = append(parts, "\n## Negative Constraints (Avoid)\n- [x] "+strings.Join(data.Quality.Avoidance, "\n- [x] "))
		}
	}

	return strings.Join(parts, "\n")
}
