package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"vesper/internal/version"
)

func newColorTestCmd(value string) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("color", value, "")
	return cmd
}

func TestUseColorExplicitValues(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"on", true},
		{"ON", true},
		{"off", false},
		{" off ", false},
	}
	for _, tc := range cases {
		got, err := useColor(newColorTestCmd(tc.value))
		if err != nil {
			t.Fatalf("useColor(%q) error: %v", tc.value, err)
		}
		if got != tc.want {
			t.Fatalf("useColor(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestUseColorRejectsUnknownValue(t *testing.T) {
	if _, err := useColor(newColorTestCmd("rainbow")); err == nil {
		t.Fatalf("expected error for invalid --color value")
	}
}

func TestVersionPrettyOutput(t *testing.T) {
	var sb strings.Builder
	renderVersionPretty(&sb, versionInfo{Version: "1.2.3", GitCommit: "abc123", BuildDate: "2026-01-01"})
	out := sb.String()
	for _, want := range []string{"vesper 1.2.3", "commit: abc123", "built:  2026-01-01"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestVersionJSONOutput(t *testing.T) {
	var sb strings.Builder
	if err := renderVersionJSON(&sb, versionInfo{Version: "1.2.3"}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(sb.String()), &payload); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if payload.Tool != "vesper" || payload.Version != "1.2.3" {
		t.Fatalf("payload = %+v", payload)
	}
	if strings.Contains(sb.String(), "git_commit") {
		t.Fatalf("empty commit must be omitted:\n%s", sb.String())
	}
}

func TestCollectVersionInfoFallsBackToDev(t *testing.T) {
	defer func(v string) { version.Version = v }(version.Version)
	version.Version = "  "
	if info := collectVersionInfo(); info.Version != "dev" {
		t.Fatalf("blank version should collapse to dev, got %q", info.Version)
	}
}

func TestCommandWiring(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"check", "tables", "version"} {
		if !names[want] {
			t.Fatalf("root command missing %q subcommand", want)
		}
	}
	for _, flag := range []string{"color", "max-diagnostics", "cpuprofile", "memprofile"} {
		if rootCmd.PersistentFlags().Lookup(flag) == nil {
			t.Fatalf("missing persistent flag --%s", flag)
		}
	}
	for _, flag := range []string{"format", "jobs", "progress", "timings"} {
		if checkCmd.Flags().Lookup(flag) == nil {
			t.Fatalf("check missing flag --%s", flag)
		}
	}
}
