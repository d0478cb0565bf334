package main

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w
	fn()
	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestInfoKeepsPercentSigns(t *testing.T) {
	// Progress strings are data, not formats; a % in one must print as-is.
	out := captureStdout(t, func() { info("%s", "hashed 50% of assets") })
	if !strings.Contains(out, "hashed 50% of assets") {
		t.Errorf("Expected percent preserved verbatim, got %q", out)
	}
}

func TestVersionString(t *testing.T) {
	s := versionString()
	for _, part := range []string{"modkit", version, commit, date} {
		if !strings.Contains(s, part) {
			t.Errorf("Expected %q in %q", part, s)
		}
	}
}
