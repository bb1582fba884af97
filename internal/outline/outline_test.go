package outline

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestParseLuaFunctions(t *testing.T) {
	source := `-- simple synth
engine.name = 'PolyPerc'

function init()
  redraw()
end

local function helper(x)
  return x * 2
end

function redraw()
  screen.clear()
end
`
	out, err := Parse(context.Background(), []byte(source), "synth.lua")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if out.HasError {
		t.Error("valid script reported a syntax error")
	}

	found := map[string]int{}
	for _, s := range out.Symbols {
		found[s.Name] = s.Line
	}
	for name, line := range map[string]int{"init": 4, "redraw": 12} {
		got, ok := found[name]
		if !ok {
			t.Errorf("missing symbol %q in %+v", name, out.Symbols)
			continue
		}
		if got != line {
			t.Errorf("%s at line %d, want %d", name, got, line)
		}
	}
	if !strings.Contains(out.Summary(), "ƒ init") {
		t.Errorf("Summary() = %q", out.Summary())
	}
}

func TestParseReportsSyntaxError(t *testing.T) {
	out, err := Parse(context.Background(), []byte("function broken(\n"), "broken.lua")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !out.HasError {
		t.Error("expected HasError for truncated function")
	}
}

func TestParseUnsupported(t *testing.T) {
	_, err := Parse(context.Background(), []byte("x"), "notes.txt")
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestSupported(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a.lua", true},
		{"A.LUA", true},
		{"a.wav", false},
		{"lua", false},
	}
	for _, tt := range tests {
		if got := Supported(tt.name); got != tt.want {
			t.Errorf("Supported(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestEmptySummary(t *testing.T) {
	var o *Outline
	if o.Summary() != "" {
		t.Error("nil outline should have empty summary")
	}
}
