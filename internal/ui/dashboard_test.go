package ui

import (
	"bytes"
	"context"
	"io/fs"
	"strings"
	"testing"
)

func TestDashboardRendersOptions(t *testing.T) {
	data := PageData{
		Algorithms:   []string{"PSO", "DE"},
		Functions:    []string{"Sphere", "Ackley"},
		Initializers: []string{"Random", "Quasi-OBL"},
		Algorithm:    "DE",
		Function:     "Sphere",
		Initializer:  "Random",
		Epochs:       50,
		PopSize:      30,
		Sleep:        0.1,
		Threshold:    1e-3,
	}

	var buf bytes.Buffer
	if err := Dashboard(data).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Failed to render dashboard: %v", err)
	}
	html := buf.String()

	if !strings.HasPrefix(html, "<!doctype html>") {
		t.Errorf("Expected page to start with a doctype, got %q", html[:min(len(html), 20)])
	}
	for _, want := range []string{
		`<label>Algorithm <select id="algorithm" name="algorithm">`,
		`<option value="DE" selected>DE</option>`,
		`<option value="PSO">PSO</option>`,
		`<option value="Quasi-OBL">Quasi-OBL</option>`,
		`<label>Epochs <input type="number" id="epochs" name="epochs" step="1" value="50"></label>`,
		`id="pop_size" name="pop_size" step="1" value="30"`,
		`id="sleep" name="sleep" step="0.01" value="0.1"`,
		`value="0.001"`,
		`<script src="/assets/app.js"></script>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("Expected page to contain %q", want)
		}
	}
}

func TestDashboardEscapesNames(t *testing.T) {
	var buf bytes.Buffer
	err := Dashboard(PageData{Algorithms: []string{`<script>`}}).Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Failed to render dashboard: %v", err)
	}
	if strings.Contains(buf.String(), `<option value="<script>"`) {
		t.Error("Option values must be escaped")
	}
}

func TestDashboardEscapesAttributeQuotes(t *testing.T) {
	data := PageData{
		Functions: []string{`a"b`},
		Function:  `a"b`,
	}

	var buf bytes.Buffer
	if err := Dashboard(data).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Failed to render dashboard: %v", err)
	}
	want := `<option value="a&#34;b" selected>a&#34;b</option>`
	if !strings.Contains(buf.String(), want) {
		t.Errorf("Expected %q in page", want)
	}
}

func TestAssetsAreEmbedded(t *testing.T) {
	for _, name := range []string{"app.js", "style.css"} {
		if _, err := fs.Stat(Assets(), name); err != nil {
			t.Errorf("Expected embedded asset %s: %v", name, err)
		}
	}
}
