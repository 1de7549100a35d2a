package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_Stat(t *testing.T) {
	fsys := OSFileSystem{}

	info, err := fsys.Stat("filesystem.go")
	if err != nil || info.IsDir() || info.Size() == 0 {
		t.Errorf("Stat(filesystem.go) = %v, %v", info, err)
	}
	if _, err := fsys.Stat("nonexistent_file_xyz.go"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat(missing) = %v, want ErrNotExist", err)
	}
}

func TestOSFileSystem_WriteReadOpen(t *testing.T) {
	fsys := OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "nested", "out")

	if err := fsys.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	path := filepath.Join(dir, "points.csv")
	if err := fsys.WriteFile(path, []byte("1,2,3\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := fsys.ReadFile(path)
	if err != nil || string(data) != "1,2,3\n" {
		t.Fatalf("ReadFile = %q, %v", data, err)
	}

	f, err := fsys.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	info, err := fsys.Stat(path)
	if err != nil || info.Size() != 6 {
		t.Errorf("Stat = %v, %v", info, err)
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if err := mfs.WriteFile("/data/output.csv", []byte("1,2,3"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := mfs.ReadFile("/data/output.csv")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "1,2,3" {
		t.Errorf("got %q", data)
	}
}

func TestMemoryFileSystem_DataIsolation(t *testing.T) {
	mfs := NewMemoryFileSystem()

	src := []byte("abc")
	mfs.WriteFile("/f", src, 0644)
	src[0] = 'x'

	got, _ := mfs.ReadFile("/f")
	if string(got) != "abc" {
		t.Errorf("write did not copy input: %q", got)
	}
	got[1] = 'y'
	again, _ := mfs.ReadFile("/f")
	if string(again) != "abc" {
		t.Errorf("read did not copy output: %q", again)
	}
}

func TestMemoryFileSystem_Open(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.WriteFile("/points.csv", []byte("4,5,6\n"), 0644)

	f, err := mfs.Open("/points.csv")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil || string(data) != "4,5,6\n" {
		t.Errorf("ReadAll = %q, %v", data, err)
	}

	info, err := f.Stat()
	if err != nil || info.Name() != "points.csv" || info.Size() != 6 {
		t.Errorf("Stat = %+v, %v", info, err)
	}
}

func TestMemoryFileSystem_NotExist(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if _, err := mfs.Open("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open: got %v", err)
	}
	if _, err := mfs.ReadFile("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile: got %v", err)
	}
	if _, err := mfs.Stat("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat: got %v", err)
	}
}

func TestMemoryFileSystem_MkdirAll(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.MkdirAll("/a/b/c", 0755)

	for _, p := range []string{"/a", "/a/b", "/a/b/c"} {
		if !mfs.Exists(p) {
			t.Errorf("expected %s to exist", p)
		}
	}
	info, err := mfs.Stat("/a/b")
	if err != nil || !info.IsDir() {
		t.Errorf("Stat dir = %+v, %v", info, err)
	}
}

func TestMemoryFileSystem_PathCleaning(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.WriteFile("/a/./b/../snapshot.png", []byte("x"), 0644)

	if !mfs.Exists("/a/snapshot.png") {
		t.Error("expected cleaned path to exist")
	}
}
