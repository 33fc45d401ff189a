package todo

import "testing"

func TestParseTag(t *testing.T) {
	cases := []struct {
		body   string
		status string
		ok     bool
	}{
		{"[ai-todo|queued] draft the announcement", "queued", true},
		{"prefix [ai-todo|running] middle", "running", true},
		{"[ai-todo|done]", "done", true},
		{"[ai-todo|failed] see below", "failed", true},
		{"[ai-todo|bogus] nope", "", false},
		{"no tag here", "", false},
		{"[ai-todo|]", "", false},
	}
	for _, c := range cases {
		status, ok := ParseTag(c.body)
		if ok != c.ok || status != c.status {
			t.Errorf("ParseTag(%q) = (%q, %v), want (%q, %v)", c.body, status, ok, c.status, c.ok)
		}
	}
}

func TestSetStatus(t *testing.T) {
	body := "please [ai-todo|queued] summarize this"
	got := SetStatus(body, StatusRunning)
	want := "please [ai-todo|running] summarize this"
	if got != want {
		t.Errorf("SetStatus = %q, want %q", got, want)
	}

	// No tag: unchanged.
	if got := SetStatus("plain remark", StatusDone); got != "plain remark" {
		t.Errorf("SetStatus on untagged body = %q", got)
	}

	// Only the first tag is rewritten.
	double := "[ai-todo|queued] and [ai-todo|queued]"
	got = SetStatus(double, StatusDone)
	if got != "[ai-todo|done] and [ai-todo|queued]" {
		t.Errorf("SetStatus double = %q", got)
	}
}

func TestInstruction(t *testing.T) {
	if got := Instruction("[ai-todo|queued] write release notes"); got != "write release notes" {
		t.Errorf("Instruction = %q", got)
	}
	if got := Instruction("write notes [ai-todo|queued]"); got != "write notes" {
		t.Errorf("Instruction trailing tag = %q", got)
	}
}
