package ai

import (
	"fmt"
	"strings"

	"github.com/tallyhq/tally/internal/models"
)

// SummaryPrompt renders the project-status prompt from the project name, its
// tasks, and an optional free-text filter description.
func SummaryPrompt(project *models.Project, tasks []models.Task, filter string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a concise markdown status summary for the project %q.\n", project.Name)
	if filter != "" {
		fmt.Fprintf(&b, "Only consider tasks matching: %s\n", filter)
	}
	b.WriteString("Tasks:\n")
	if len(tasks) == 0 {
		b.WriteString("(none)\n")
	}
	for _, t := range tasks {
		fmt.Fprintf(&b, "- [%s] %s", t.Status, t.Title)
		if t.Notes != "" {
			fmt.Fprintf(&b, " - %s", t.Notes)
		}
		b.WriteString("\n")
	}
	b.WriteString("Summarize overall progress, call out blocked or stale items, and end with suggested next steps.\n")
	return b.String()
}

// TaskPrompt renders the prompt for executing one AI To-Do against a task.
func TaskPrompt(task *models.Task, instruction string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are helping complete a checklist task titled %q.\n", task.Title)
	if task.Notes != "" {
		fmt.Fprintf(&b, "Task notes: %s\n", task.Notes)
	}
	fmt.Fprintf(&b, "Instruction: %s\n", instruction)
	b.WriteString("Reply in markdown with the result of carrying out the instruction.\n")
	return b.String()
}
