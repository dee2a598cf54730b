package prompts

import (
	"fmt"
	"regexp"

	"github.com/psylab-io/psy-engine/pkg/models"
)

// variablePattern matches {{name}} with optional inner whitespace. Names are
// restricted to [A-Za-z0-9_]; anything else (dots, dashes, empty braces,
// single braces) is not a variable reference.
var variablePattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// ScannedVariable is one distinct variable name with the deduplicated,
// first-seen-ordered list of field locations it appears in.
type ScannedVariable struct {
	Name      string   `json:"name"`
	Locations []string `json:"locations"`
}

// ExtractNames returns every variable name referenced in text, in order of
// appearance, duplicates included.
func ExtractNames(text string) []string {
	if text == "" {
		return nil
	}
	matches := variablePattern.FindAllStringSubmatch(text, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// Scan walks the closed set of scannable fields of a prompt structure and
// collects every variable with the human-readable labels of the fields it
// occurs in. Fields outside the set (expertise, capabilities, the variable
// definitions themselves) are deliberately never scanned. Variable order and
// per-variable location order are both first-seen; a variable appearing twice
// in one field contributes a single location entry.
//
// The location labels are the console's original Chinese tab labels and are
// part of the persisted data contract.
func Scan(data models.PromptStructure) []ScannedVariable {
	var order []string
	locations := make(map[string][]string)

	add := func(text, location string) {
		for _, name := range ExtractNames(text) {
			locs, seen := locations[name]
			if !seen {
				order = append(order, name)
			}
			if !containsString(locs, location) {
				locations[name] = append(locs, location)
			}
		}
	}

	add(data.Role.Identity, "角色定义-身份")
	add(data.Role.Example, "角色定义-示例")

	add(data.Logic.Principles, "分析逻辑-原则")
	add(data.Logic.Method, "分析逻辑-方法")
	for i, c := range data.Logic.Constraints {
		add(c, fmt.Sprintf("分析逻辑-约束%d", i+1))
	}
	add(data.Logic.Example, "分析逻辑-示例")

	for i, step := range data.Workflow {
		add(step.Logic, fmt.Sprintf("工作流程-步骤%d", i+1))
		if step.Example != "" {
			add(step.Example, fmt.Sprintf("工作流程-步骤%d示例", i+1))
		}
	}

	for i, c := range data.Quality.Checkpoints {
		add(c, fmt.Sprintf("质量控制-检查点%d", i+1))
	}
	for i, c := range data.Quality.Avoidance {
		add(c, fmt.Sprintf("质量控制-避免%d", i+1))
	}

	result := make([]ScannedVariable, 0, len(order))
	for _, name := range order {
		result = append(result, ScannedVariable{Name: name, Locations: locations[name]})
	}
	return result
}

// Reconcile merges a fresh scan into an existing variable list: entries whose
// names are still referenced keep their description and default, newly found
// names are appended blank, and entries no longer referenced anywhere are
// dropped. Output order follows the scan.
func Reconcile(existing []models.PromptVariable, scanned []ScannedVariable) []models.PromptVariable {
	byName := make(map[string]models.PromptVariable, len(existing))
	for _, v := range existing {
		byName[v.Name] = v
	}

	merged := make([]models.PromptVariable, 0, len(scanned))
	for _, sv := range scanned {
		if prev, ok := byName[sv.Name]; ok {
			merged = append(merged, prev)
			continue
		}
		merged = append(merged, models.PromptVariable{Name: sv.Name})
	}
	return merged
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
