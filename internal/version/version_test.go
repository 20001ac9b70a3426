package version

import (
	"strings"
	"testing"
)

func TestFullCarriesNumber(t *testing.T) {
	out := Full()
	if !strings.HasPrefix(out, "code-auditor ") {
		t.Fatalf("unexpected version string %q", out)
	}
	if !strings.Contains(out, Number) {
		t.Fatalf("version string %q missing %q", out, Number)
	}
}
