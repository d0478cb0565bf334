package dev

import (
	"strings"
	"testing"
)

func TestExtractModuleScripts(t *testing.T) {
	page := []byte(`<!DOCTYPE html>
<html>
<head>
	<script type="module" src="/src/main.js"></script>
	<script type="module" src="/@modkit/client"></script>
	<script src="/legacy.js"></script>
	<script type="module" src="https://cdn.example.com/x.js"></script>
	<script type="module">console.log('inline')</script>
</head>
<body>
	<script type="module" src="/src/extra.js"></script>
</body>
</html>`)

	srcs, err := ExtractModuleScripts(page)
	if err != nil {
		t.Fatal(err)
	}
	if len(srcs) != 2 || srcs[0] != "/src/main.js" || srcs[1] != "/src/extra.js" {
		t.Errorf("Expected local module scripts only, got %v", srcs)
	}
}

func TestInjectClientScript_Head(t *testing.T) {
	page := "<html><head><title>x</title></head><body></body></html>"
	injected := InjectClientScript(page)

	idx := strings.Index(injected, ClientScriptTag)
	if idx == -1 {
		t.Fatal("Expected script tag injected")
	}
	if idx > strings.Index(injected, "</head>") {
		t.Error("Expected injection before </head>")
	}
}

func TestInjectClientScript_BodyFallback(t *testing.T) {
	page := "<html><body><p>hi</p></body></html>"
	injected := InjectClientScript(page)

	if !strings.Contains(injected, ClientScriptTag+"\n</body>") {
		t.Errorf("Expected injection before </body>, got %q", injected)
	}
}

func TestInjectClientScript_Append(t *testing.T) {
	page := "<p>fragment</p>"
	injected := InjectClientScript(page)

	if !strings.HasSuffix(injected, ClientScriptTag) {
		t.Errorf("Expected script appended, got %q", injected)
	}
}
