package main

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureStdout redirects os.Stdout for the duration of fn and returns
// everything written to it.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout = w
	t.Cleanup(func() { os.Stdout = old })

	fn()

	require.NoError(t, w.Close())

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)

	return buf.String()
}

func TestPrintStatus_JSON(t *testing.T) {
	cc := &CLIContext{JSON: true}
	rows := []driveStatus{{DriveID: "d1", DriveName: "Alpha", PendingCount: 3, PendingBytes: 2048, InterruptedRun: true}}

	out := captureStdout(t, func() {
		require.NoError(t, printStatus(cc, rows))
	})

	assert.Contains(t, out, "\"drive_name\": \"Alpha\"")
	assert.Contains(t, out, "\"pending_count\": 3")
}

func TestPrintStatus_JSON_Empty(t *testing.T) {
	cc := &CLIContext{JSON: true}

	out := captureStdout(t, func() {
		require.NoError(t, printStatus(cc, []driveStatus{}))
	})

	assert.Contains(t, out, "[]")
}
