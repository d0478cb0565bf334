package xerrors

import (
	"errors"
	"strings"
	"testing"
)

func TestNew_RegisteredCode(t *testing.T) {
	err := New("M001")
	if err.Category != CategoryParse {
		t.Errorf("Expected parse category, got %v", err.Category)
	}
	if err.Message == "" {
		t.Error("Expected a message from the registry")
	}
	if err.Offset != -1 {
		t.Errorf("Expected offset -1 before WithOffset, got %d", err.Offset)
	}
}

func TestNew_UnknownCode(t *testing.T) {
	err := New("M999")
	if err.Category != CategoryInternal {
		t.Errorf("Expected internal category for unknown code, got %v", err.Category)
	}
	if err.Code != "M999" {
		t.Errorf("Expected code preserved, got %q", err.Code)
	}
}

func TestError_OffsetInMessage(t *testing.T) {
	err := New("M001").WithOffset(42)
	if !strings.Contains(err.Error(), "42") {
		t.Errorf("Expected offset in error string, got %q", err.Error())
	}

	err = err.WithFile("src/app.js")
	if !strings.Contains(err.Error(), "src/app.js") {
		t.Errorf("Expected file in error string, got %q", err.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := New("M101").Wrap(inner)
	if !errors.Is(err, inner) {
		t.Error("Expected errors.Is to find the wrapped error")
	}

	var structured *Error
	if !errors.As(err, &structured) {
		t.Error("Expected errors.As to match *Error")
	}
	if structured.Code != "M101" {
		t.Errorf("Expected code M101, got %q", structured.Code)
	}
}

func TestFormat_ContainsParts(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("M001").
		WithFile("src/app.js").
		WithOffset(152).
		WithSuggestion("Use a string literal instead")

	out := err.Format()
	for _, want := range []string{"M001", "src/app.js", "@152", "Hint:", "Learn more:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
}
