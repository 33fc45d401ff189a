// Package todo implements the AI To-Do convention: a free-text
// [ai-todo|<status>] tag embedded in remark bodies that drives AI-assisted
// task execution.
package todo

import (
	"regexp"
	"strings"
)

// AI To-Do statuses.
const (
	StatusQueued  = "queued"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

var tagRe = regexp.MustCompile(`\[ai-todo\|(queued|running|done|failed)\]`)

// Tag renders the tag string for a status.
func Tag(status string) string {
	return "[ai-todo|" + status + "]"
}

// ParseTag returns the status of the first AI To-Do tag in body, if any.
func ParseTag(body string) (string, bool) {
	m := tagRe.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// SetStatus rewrites the first AI To-Do tag in body to the given status.
// Bodies without a tag are returned unchanged.
func SetStatus(body, status string) string {
	loc := tagRe.FindStringIndex(body)
	if loc == nil {
		return body
	}
	return body[:loc[0]] + Tag(status) + body[loc[1]:]
}

// Instruction returns the remark body with the tag stripped, which is the
// free-text instruction for the model.
func Instruction(body string) string {
	return strings.TrimSpace(tagRe.ReplaceAllString(body, ""))
}
