package main

import (
	"os"
	"testing"

	"github.com/AkihikoWatanabe/kijitori/internal/cmd"
)

func TestVersionVariables(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if BuildTime == "" {
		t.Error("BuildTime should not be empty")
	}

	cmd.SetVersionInfo(Version, BuildTime)
}

func TestExecuteHelp(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	// Help is the one path through Execute that needs no seed file.
	os.Args = []string{"kijitori", "--help"}

	cmd.SetVersionInfo(Version, BuildTime)
	if err := cmd.Execute(); err != nil {
		t.Errorf("Execute() with --help returned error: %v", err)
	}
}
