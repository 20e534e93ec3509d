package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteDocument writes a fake scanned-page file under dir and returns its
// path, for tests that feed image documents from disk.
func WriteDocument(t testing.TB, dir, name string, content []byte) string {
	t.Helper()

	if len(content) == 0 {
		content = []byte("scanned-page")
	}
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
