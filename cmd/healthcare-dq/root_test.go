package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kabirhiking/healthcare-data-quality/internal/rules/checks"
)

func TestCommandUsesStructuredLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want bool
	}{
		{name: "run", args: []string{"run"}, want: true},
		{name: "worker", args: []string{"worker"}, want: true},
		{name: "request-audit", args: []string{"request-audit"}, want: true},
		{name: "migrate", args: []string{"migrate"}, want: true},
		{name: "list-rules", args: []string{"list-rules"}, want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cmd, _, err := rootCmd.Find(tc.args)
			if err != nil {
				t.Fatalf("Find(%v) error = %v", tc.args, err)
			}
			if cmd == nil {
				t.Fatalf("Find(%v) returned nil command", tc.args)
			}

			if got := commandUsesStructuredLogging(cmd); got != tc.want {
				t.Fatalf("commandUsesStructuredLogging(%q) = %v, want %v", cmd.CommandPath(), got, tc.want)
			}
		})
	}
}

func TestRunCommandFlags(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"format", "out", "fail-on-issues", "dry-run", "wait"} {
		if runCmd.Flags().Lookup(name) == nil {
			t.Fatalf("run command is missing --%s", name)
		}
	}
}

func TestListRulesPrintsCatalogInOrder(t *testing.T) {
	var out bytes.Buffer
	listRulesCmd.SetOut(&out)
	t.Cleanup(func() { listRulesCmd.SetOut(nil) })

	if err := listRulesCmd.RunE(listRulesCmd, nil); err != nil {
		t.Fatalf("list-rules error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	catalog := checks.Catalog()
	if len(lines) != len(catalog)+1 {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(catalog)+1, out.String())
	}
	for i, info := range catalog {
		if !strings.HasPrefix(lines[i+1], info.Key) {
			t.Fatalf("line %d = %q, want key %q first", i+1, lines[i+1], info.Key)
		}
	}
}

func TestFirstNonEmpty(t *testing.T) {
	t.Parallel()

	if got := firstNonEmpty("  ", "", "html"); got != "html" {
		t.Fatalf("firstNonEmpty() = %q", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Fatalf("firstNonEmpty() = %q, want empty", got)
	}
}
