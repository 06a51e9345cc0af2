package chain

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestChainResumesAndVerifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "security.log")
	w, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := w.Log("auth.login", "alice", "", map[string]string{"ip": "10.0.0.1"}); err != nil {
		t.Fatal(err)
	}
	if err := w.Log("user.create", "alice", "user:7", nil); err != nil {
		t.Fatal(err)
	}
	w.Close()

	w, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := w.Log("user.delete", "alice", "user:7", nil); err != nil {
		t.Fatal(err)
	}
	w.Close()

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	n, err := Verify(f)
	if err != nil || n != 3 {
		t.Fatalf("verify = %d, %v", n, err)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "security.log")
	w, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	w.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	for _, actor := range []string{"a", "b", "c"} {
		if err := w.Log("auth.login", actor, "", nil); err != nil {
			t.Fatal(err)
		}
	}
	w.Close()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	edited := bytes.Replace(raw, []byte(`"actor":"b"`), []byte(`"actor":"x"`), 1)
	if _, err := Verify(bytes.NewReader(edited)); err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected hash mismatch on line 2, got %v", err)
	}

	lines := bytes.SplitAfter(raw, []byte("\n"))
	dropped := append(append([]byte{}, lines[0]...), lines[2]...)
	if _, err := Verify(bytes.NewReader(dropped)); err == nil {
		t.Fatal("expected broken chain")
	}

	if err := os.WriteFile(path, edited, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("open should refuse a tampered log")
	}
}

func TestNilWriterDiscards(t *testing.T) {
	var w *Writer
	if err := w.Log("auth.login", "a", "", nil); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}
