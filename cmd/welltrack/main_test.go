package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootHasSubcommands(t *testing.T) {
	root := buildRoot(command{out: &bytes.Buffer{}, in: strings.NewReader(""), sessions: newSessionManagerAt(t.TempDir())})
	want := []string{"serve", "login", "logout", "wells", "show", "set", "anchor", "delete", "dashboard", "workflow", "gen-cert"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("subcommand %s missing: %v", name, err)
		}
	}
}

func TestRequiredFlags(t *testing.T) {
	cases := [][]string{
		{"login"},
		{"show"},
		{"set", "--well", "SN-113"},
		{"anchor", "--well", "SN-113"},
		{"delete", "--process", "Rig Release"},
		{"workflow"},
		{"gen-cert"},
	}
	for _, args := range cases {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			out := &bytes.Buffer{}
			root := buildRoot(command{out: out, in: strings.NewReader(""), sessions: newSessionManagerAt(t.TempDir())})
			root.SetErr(out)
			root.SetArgs(args)
			if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "required flag") {
				t.Fatalf("expected required flag error, got %v", err)
			}
		})
	}
}

func TestAPIFlagsDefaults(t *testing.T) {
	root := buildRoot(command{out: &bytes.Buffer{}, in: strings.NewReader(""), sessions: newSessionManagerAt(t.TempDir())})
	cmd, _, err := root.Find([]string{"wells"})
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"api-url", "api-timeout", "ca-cert", "insecure", "json", "today"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Fatalf("wells is missing --%s", name)
		}
	}
	if got := cmd.Flags().Lookup("api-timeout").DefValue; got != "10s" {
		t.Fatalf("api-timeout default = %s", got)
	}
}

func TestServeRejectsMissingConfig(t *testing.T) {
	out := &bytes.Buffer{}
	root := buildRoot(command{out: out, in: strings.NewReader(""), sessions: newSessionManagerAt(t.TempDir())})
	root.SetErr(out)
	root.SetArgs([]string{"serve", "/nonexistent/welltrack.toml"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "error loading config") {
		t.Fatalf("expected config error, got %v", err)
	}
}
