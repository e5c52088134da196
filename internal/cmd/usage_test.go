package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintUsageListsExitCodes(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)
	for _, want := range []string{"-g, --generate", "-r, --refresh", "130", "OAUTH2_TOKEN_STORE"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("usage missing %q", want)
		}
	}
	if strings.Contains(buf.String(), "%!") {
		t.Fatalf("usage has formatting errors: %q", buf.String())
	}
}
