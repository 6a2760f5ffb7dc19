package main

import "testing"

func TestBuildRootRegistersCommands(t *testing.T) {
	root := buildRoot()
	want := map[string]bool{
		"serve": false, "start": false, "stop": false,
		"detect": false, "create": false, "status": false, "history": false,
	}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("missing subcommand %q", name)
		}
	}
}

func TestRootHelpRuns(t *testing.T) {
	root := buildRoot()
	root.SetArgs([]string{"--help"})
	if err := root.Execute(); err != nil {
		t.Fatalf("help should not error: %v", err)
	}
}
