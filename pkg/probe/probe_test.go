package probe

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "java")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	ok, err := FileExists(path)(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("existing file reported absent")
	}

	ok, err = FileExists(filepath.Join(dir, "missing"))(context.Background())
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if ok {
		t.Error("missing file reported present")
	}

	// A directory is not a file.
	ok, err = FileExists(dir)(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("directory satisfied a file probe")
	}
}

func TestDirExists(t *testing.T) {
	dir := t.TempDir()
	ok, err := DirExists(dir)(context.Background())
	if err != nil || !ok {
		t.Errorf("DirExists(%s) = %v, %v; want true, nil", dir, ok, err)
	}
	ok, err = DirExists(filepath.Join(dir, "none"))(context.Background())
	if err != nil || ok {
		t.Errorf("DirExists(missing) = %v, %v; want false, nil", ok, err)
	}
}

func TestBinaryOnPath(t *testing.T) {
	ok, err := BinaryOnPath("go-definitely-not-a-binary-xyz")(context.Background())
	if err != nil {
		t.Fatalf("missing binary must not error: %v", err)
	}
	if ok {
		t.Error("nonexistent binary reported on PATH")
	}
}

func TestAllOf(t *testing.T) {
	dir := t.TempDir()
	present := DirExists(dir)
	absent := DirExists(filepath.Join(dir, "none"))

	ok, err := AllOf(present, present)(context.Background())
	if err != nil || !ok {
		t.Errorf("AllOf(present, present) = %v, %v; want true, nil", ok, err)
	}
	ok, err = AllOf(present, absent)(context.Background())
	if err != nil || ok {
		t.Errorf("AllOf(present, absent) = %v, %v; want false, nil", ok, err)
	}
}

func TestUserInGroupUnknownGroup(t *testing.T) {
	ok, err := UserInGroup("mobup-no-such-group-xyz")
	if err != nil {
		t.Fatalf("unknown group must not error: %v", err)
	}
	if ok {
		t.Error("membership reported for unknown group")
	}
}

func TestDeviceAccessibleMissing(t *testing.T) {
	ok, err := DeviceAccessible(filepath.Join(t.TempDir(), "kvm"))
	if err != nil {
		t.Fatalf("missing device must not error: %v", err)
	}
	if ok {
		t.Error("missing device reported accessible")
	}
}

func TestFreeDisk(t *testing.T) {
	free, err := FreeDisk(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if free == 0 {
		t.Error("temp dir volume reports zero free bytes")
	}
}
