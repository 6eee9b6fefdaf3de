package utils

import "testing"

func TestDispatchScriptsCompile(t *testing.T) {
	// Compile-time smoke test: scripts should be initialized.
	if dispatchAcquireScript == nil || dispatchReleaseScript == nil {
		t.Fatalf("expected scripts to be initialized")
	}
}
