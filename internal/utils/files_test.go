package utils

import (
	"os"
	"path/filepath"
	"testing"
)

// writeTestFile is a helper to write test files with 0644 permissions.
// #nosec G306 -- Test files are temporary and don't contain sensitive data.
func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil { // #nosec G306
		t.Fatalf("Failed to create test file: %v", err)
	}
}

func TestResolveFiles_EmptyPatterns(t *testing.T) {
	tmpDir := t.TempDir()

	// Empty patterns should return nil (caller uses default behavior).
	files, err := ResolveFiles([]string{}, tmpDir)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if files != nil {
		t.Errorf("Expected nil, got: %v", files)
	}
}

func TestResolveFiles_SingleFile(t *testing.T) {
	tmpDir := t.TempDir()

	report := filepath.Join(tmpDir, "report.pdf")
	writeTestFile(t, report, "%PDF")

	files, err := ResolveFiles([]string{"report.pdf"}, tmpDir)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("Expected 1 file, got: %d", len(files))
	}
	if files[0] != report {
		t.Errorf("Expected %s, got: %s", report, files[0])
	}
}

func TestResolveFiles_Directory(t *testing.T) {
	tmpDir := t.TempDir()

	photo := filepath.Join(tmpDir, "photos", "beach.jpg")
	writeTestFile(t, photo, "jpeg")
	// Hidden directories are not walked.
	writeTestFile(t, filepath.Join(tmpDir, "photos", ".thumbs", "beach.jpg"), "thumb")

	files, err := ResolveFiles([]string{"photos/"}, tmpDir)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("Expected 1 file, got: %d", len(files))
	}
	if files[0] != photo {
		t.Errorf("Expected %s, got: %s", photo, files[0])
	}
}

func TestResolveFiles_DoubleStarGlob(t *testing.T) {
	tmpDir := t.TempDir()

	paths := []string{
		filepath.Join(tmpDir, "a.txt"),
		filepath.Join(tmpDir, "docs", "b.txt"),
		filepath.Join(tmpDir, "docs", "nested", "c.txt"),
	}
	for _, p := range paths {
		writeTestFile(t, p, "text")
	}
	writeTestFile(t, filepath.Join(tmpDir, "docs", "d.md"), "markdown")

	files, err := ResolveFiles([]string{"**/*.txt"}, tmpDir)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("Expected 3 files, got: %d", len(files))
	}
}

func TestResolveFiles_NonExistentFile(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := ResolveFiles([]string{"missing.bin"}, tmpDir)
	if err == nil {
		t.Fatal("Expected error for non-existent file")
	}
}

func TestResolveFiles_Deduplication(t *testing.T) {
	tmpDir := t.TempDir()

	file := filepath.Join(tmpDir, "notes.txt")
	writeTestFile(t, file, "notes")

	files, err := ResolveFiles([]string{"notes.txt", "notes.txt", "*.txt"}, tmpDir)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(files) != 1 {
		t.Errorf("Expected 1 file (deduplicated), got: %d", len(files))
	}
}

func TestResolveFiles_GlobWithoutMatches(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := ResolveFiles([]string{"*.zip"}, tmpDir)
	if err == nil {
		t.Fatal("Expected error when nothing matches")
	}
}
