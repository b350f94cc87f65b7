package main

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	out := <-done
	r.Close()

	return string(out), fnErr
}

// resetGlobals restores every package-level flag variable to its default.
func resetGlobals() {
	verbose = false
	quiet = false
	jsonOut = false

	simOps = 10000
	simWorkers = 4
	simSeed = 1
	simMaxSize = 256
	simMaxAlign = 8
	simFreePct = 45
	simRate = 0
	simHistory = false
}

// decodeJSON unmarshals output into v, failing the test on invalid JSON
func decodeJSON(t *testing.T, output string, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(output), v), "output: %s", output)
}
