package main

import (
	"testing"
)

func TestVersionCommand(t *testing.T) {
	if versionCmd == nil {
		t.Fatal("versionCmd is nil")
	}

	if versionCmd.Use != "version" {
		t.Errorf("Unexpected Use: %s", versionCmd.Use)
	}

	if versionCmd.Short != "Print version information" {
		t.Errorf("Unexpected Short: %s", versionCmd.Short)
	}
}

func TestRootCommandStructure(t *testing.T) {
	if rootCmd.Use != "facil" {
		t.Errorf("Unexpected root Use: %s", rootCmd.Use)
	}

	expected := []string{"agenda", "meeting", "stats", "serve", "config", "version", "completion"}
	for _, name := range expected {
		found := false
		for _, sub := range rootCmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("command %q not registered on root", name)
		}
	}
}

func TestPersistentFlags(t *testing.T) {
	for _, name := range []string{"backend", "data-dir", "stream", "timeout", "output", "debug"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("--%s flag not found on root command", name)
		}
	}
}

func TestConfigSetRejectsUnknownKey(t *testing.T) {
	t.Setenv("FACIL_CONFIG_DIR", t.TempDir())

	err := configSetCmd.RunE(configSetCmd, []string{"no_such_key", "value"})
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestConfigSetRejectsBadFormat(t *testing.T) {
	t.Setenv("FACIL_CONFIG_DIR", t.TempDir())

	err := configSetCmd.RunE(configSetCmd, []string{"output_format", "yaml"})
	if err == nil {
		t.Fatal("expected error for invalid output format")
	}
}

func TestConfigSetTimeout(t *testing.T) {
	t.Setenv("FACIL_CONFIG_DIR", t.TempDir())

	if err := configSetCmd.RunE(configSetCmd, []string{"timeout", "45s"}); err != nil {
		t.Fatalf("setting timeout: %v", err)
	}

	if err := configSetCmd.RunE(configSetCmd, []string{"timeout", "not-a-duration"}); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}
