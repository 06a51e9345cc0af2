// Package chain appends security events to a JSON-lines file where each line
// carries the hash of the line before it, so edited or dropped lines break the
// chain and Verify reports where.
package chain

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type Event struct {
	Time   time.Time         `json:"time"`
	Kind   string            `json:"kind"`
	Actor  string            `json:"actor"`
	Target string            `json:"target,omitempty"`
	Meta   map[string]string `json:"meta,omitempty"`
	Prev   string            `json:"prev"`
	Hash   string            `json:"hash,omitempty"`
}

// Writer is safe for concurrent use. A nil *Writer discards events, which is
// what callers get when no audit file is configured.
type Writer struct {
	mu   sync.Mutex
	f    *os.File
	prev [sha256.Size]byte
	now  func() time.Time
}

// Open appends to path, continuing the chain already in the file. A file whose
// chain does not verify is refused rather than extended.
func Open(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	w := &Writer{now: func() time.Time { return time.Now().UTC() }}
	if existing, err := os.Open(path); err == nil {
		_, last, verr := verify(existing)
		existing.Close()
		if verr != nil {
			return nil, fmt.Errorf("audit log %s: %w", path, verr)
		}
		w.prev = last
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	w.f = f
	return w, nil
}

func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	return w.f.Close()
}

func digest(prev [sha256.Size]byte, ev Event) ([sha256.Size]byte, error) {
	ev.Hash = ""
	b, err := json.Marshal(ev)
	if err != nil {
		return [sha256.Size]byte{}, err
	}
	return sha256.Sum256(append(prev[:], b...)), nil
}

func (w *Writer) Log(kind, actor, target string, meta map[string]string) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	ev := Event{Time: w.now(), Kind: kind, Actor: actor, Target: target, Meta: meta, Prev: hex.EncodeToString(w.prev[:])}
	h, err := digest(w.prev, ev)
	if err != nil {
		return err
	}
	ev.Hash = hex.EncodeToString(h[:])
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := w.f.Write(append(b, '\n')); err != nil {
		return err
	}
	w.prev = h
	return nil
}

// Verify walks the chain in r and returns the number of valid events.
func Verify(r io.Reader) (int, error) {
	n, _, err := verify(r)
	return n, err
}

func verify(r io.Reader) (int, [sha256.Size]byte, error) {
	var prev [sha256.Size]byte
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	n := 0
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return n, prev, fmt.Errorf("line %d: %w", n+1, err)
		}
		if ev.Prev != hex.EncodeToString(prev[:]) {
			return n, prev, fmt.Errorf("line %d: chain broken", n+1)
		}
		h, err := digest(prev, ev)
		if err != nil {
			return n, prev, err
		}
		if ev.Hash != hex.EncodeToString(h[:]) {
			return n, prev, fmt.Errorf("line %d: hash mismatch", n+1)
		}
		prev = h
		n++
	}
	return n, prev, sc.Err()
}
