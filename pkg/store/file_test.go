package store

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func TestFileStoreRoundTrip(t *testing.T) {
	s, err := Create(t.TempDir())
	if err != nil {
		t.Fatalf("create store: %s", err)
	}

	if _, err = s.Get("0_0_0"); errors.Cause(err) != ErrNotExist {
		t.Fatalf("get of a missing key = %v, want ErrNotExist", err)
	}
	if s.Exists("0_0_0") {
		t.Fatalf("missing key must not exist")
	}

	data := []byte("voxels")
	if err = s.Put("0_0_0", data); err != nil {
		t.Fatalf("put: %s", err)
	}
	if !s.Exists("0_0_0") {
		t.Fatalf("put key must exist")
	}
	got, err := s.Get("0_0_0")
	if err != nil {
		t.Fatalf("get: %s", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("get = %q, want %q", got, data)
	}

	keys, err := s.List()
	if err != nil {
		t.Fatalf("list: %s", err)
	}
	if len(keys) != 1 || keys[0] != "0_0_0" {
		t.Fatalf("list = %v, want [0_0_0]", keys)
	}

	if err = s.Delete("0_0_0"); err != nil {
		t.Fatalf("delete: %s", err)
	}
	if s.Exists("0_0_0") {
		t.Fatalf("deleted key must not exist")
	}
	if err = s.Delete("0_0_0"); err != nil {
		t.Fatalf("deleting a missing key is fine: %s", err)
	}
}

func TestFileStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "deeper")
	s, err := Create(dir)
	if err != nil {
		t.Fatalf("create store: %s", err)
	}
	if err = s.Put("1_2_3", []byte{42}); err != nil {
		t.Fatalf("put must create the directory path: %s", err)
	}
	if !s.Exists("1_2_3") {
		t.Fatalf("put key must exist")
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	s, err := Create(t.TempDir())
	if err != nil {
		t.Fatalf("create store: %s", err)
	}
	if err = s.Put("k", []byte("old")); err != nil {
		t.Fatalf("put: %s", err)
	}
	if err = s.Put("k", []byte("new")); err != nil {
		t.Fatalf("overwrite: %s", err)
	}
	got, _ := s.Get("k")
	if string(got) != "new" {
		t.Fatalf("get = %q, want new", got)
	}
}

func TestCreateRejectsEmptyURI(t *testing.T) {
	if _, err := Create(""); err == nil {
		t.Fatalf("empty uri must be rejected")
	}
}
