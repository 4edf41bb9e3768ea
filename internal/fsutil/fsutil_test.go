package fsutil

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
)

func TestWriteFileAtomicCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "file.txt")
	if err := WriteFileAtomic(path, []byte("hello")); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q", data)
	}

	if runtime.GOOS != "windows" {
		info, _ := os.Stat(path)
		if perm := info.Mode().Perm(); perm != FilePerm {
			t.Errorf("permissions = %o, want %o", perm, FilePerm)
		}
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

func TestWriteFileAtomicOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	if err := WriteFileAtomic(path, []byte("first version")); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("second")); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "second" {
		t.Errorf("content = %q, want %q", data, "second")
	}
}

func TestReadLines(t *testing.T) {
	dir := t.TempDir()

	lines, err := ReadLines(filepath.Join(dir, "missing.txt"))
	if err != nil || lines != nil {
		t.Errorf("missing file: lines=%v err=%v", lines, err)
	}

	path := filepath.Join(dir, "lines.txt")
	if err := WriteLines(path, []string{"a", "b", "c"}); err != nil {
		t.Fatal(err)
	}
	lines, err = ReadLines(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(lines, []string{"a", "b", "c"}) {
		t.Errorf("lines = %v", lines)
	}

	os.WriteFile(path, []byte("x\r\ny\n"), 0644)
	lines, _ = ReadLines(path)
	if !reflect.DeepEqual(lines, []string{"x", "y"}) {
		t.Errorf("CRLF lines = %v", lines)
	}

	os.WriteFile(path, nil, 0644)
	lines, _ = ReadLines(path)
	if len(lines) != 0 {
		t.Errorf("empty file lines = %v", lines)
	}
}

func TestRemoveDirIfEmpty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "org")
	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, "keep.json"), []byte("{}"), 0644)

	removed, err := RemoveDirIfEmpty(dir)
	if err != nil || removed {
		t.Fatalf("non-empty dir: removed=%v err=%v", removed, err)
	}

	os.Remove(filepath.Join(dir, "keep.json"))
	removed, err = RemoveDirIfEmpty(dir)
	if err != nil || !removed {
		t.Fatalf("empty dir: removed=%v err=%v", removed, err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("directory should be gone")
	}

	removed, err = RemoveDirIfEmpty(dir)
	if err != nil || removed {
		t.Errorf("missing dir: removed=%v err=%v", removed, err)
	}
}
