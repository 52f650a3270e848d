package engine_test

import (
	"strings"
	"testing"

	"sqlprep/internal/engine"
)

func TestSplit(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		want  []string
		lines []int
	}{
		{
			name:  "two groups",
			text:  "CREATE TABLE foo (a TEXT);\nCREATE TABLE foo2(a TEXT);\n---\nCREATE TABLE bar (b INT);",
			want:  []string{"CREATE TABLE foo (a TEXT);\nCREATE TABLE foo2(a TEXT);", "CREATE TABLE bar (b INT);"},
			lines: []int{1, 4},
		},
		{
			name:  "no separator",
			text:  "SELECT 1;\nSELECT 2;\n",
			want:  []string{"SELECT 1;\nSELECT 2;\n"},
			lines: []int{1},
		},
		{
			name:  "leading and trailing separators",
			text:  "---\n\nSELECT 1;\n---\n  \n---\n",
			want:  []string{"SELECT 1;"},
			lines: []int{3},
		},
		{
			name:  "crlf line endings",
			text:  "SELECT 1;\r\n---\r\nSELECT 2;",
			want:  []string{"SELECT 1;\r", "SELECT 2;"},
			lines: []int{1, 3},
		},
		{
			name:  "indented dashes are not separators",
			text:  "SELECT 1;\n  ---\n--- \nSELECT 2;",
			want:  []string{"SELECT 1;\n  ---\n--- \nSELECT 2;"},
			lines: []int{1},
		},
		{
			name:  "comment lines are not separators",
			text:  "-- create\nSELECT 1;\n----\nSELECT 2;",
			want:  []string{"-- create\nSELECT 1;\n----\nSELECT 2;"},
			lines: []int{1},
		},
		{
			name: "empty",
			text: "\n\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			groups := engine.Split(tc.text)
			if len(groups) != len(tc.want) {
				t.Fatalf("got %d groups, want %d: %#v", len(groups), len(tc.want), groups)
			}
			for i, g := range groups {
				if g.Index != i {
					t.Errorf("group %d has index %d", i, g.Index)
				}
				if g.SQL != tc.want[i] {
					t.Errorf("group %d = %q, want %q", i, g.SQL, tc.want[i])
				}
				if g.Line != tc.lines[i] {
					t.Errorf("group %d starts on line %d, want %d", i, g.Line, tc.lines[i])
				}
			}
		})
	}
}

func TestSplitKeepsStatementsInTheirGroup(t *testing.T) {
	text := strings.Join([]string{
		"CREATE TABLE a (x INT);",
		"CREATE INDEX a_x ON a (x);",
		engine.Separator,
		"CREATE TABLE b (y INT);",
	}, "\n")

	groups := engine.Split(text)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if strings.Contains(groups[0].SQL, "TABLE b") || strings.Contains(groups[1].SQL, "TABLE a") {
		t.Errorf("statements leaked across groups: %#v", groups)
	}
}
