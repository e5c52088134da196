package buildinfo

import "testing"

func TestSummary(t *testing.T) {
	oldVersion, oldCommit, oldDate := Version, Commit, BuildDate
	t.Cleanup(func() { Version, Commit, BuildDate = oldVersion, oldCommit, oldDate })

	Version, Commit, BuildDate = "1.2.0", "abc123", "2026-01-02"
	if got, want := Summary(), "1.2.0 (commit abc123, built 2026-01-02)"; got != want {
		t.Fatalf("Summary() = %q, want %q", got, want)
	}
}
