package services

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func writeChunks(t *testing.T, dir string, chunks [][]byte) {
	t.Helper()
	for i, data := range chunks {
		if err := os.WriteFile(filepath.Join(dir, strconv.Itoa(i)), data, 0o644); err != nil {
			t.Fatalf("write chunk %d: %v", i, err)
		}
	}
}

func TestUnionChunksReassemblesOriginalBytes(t *testing.T) {
	sessionDir := t.TempDir()
	target := filepath.Join(t.TempDir(), "out", "merged.bin")

	chunks := [][]byte{
		[]byte("hello "),
		[]byte("chunked "),
		[]byte("world"),
	}
	writeChunks(t, sessionDir, chunks)

	if err := UnionChunks(sessionDir, target, len(chunks)); err != nil {
		t.Fatalf("UnionChunks returned error: %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	want := []byte("hello chunked world")
	if !bytes.Equal(got, want) {
		t.Fatalf("merged content = %q, want %q", got, want)
	}

	if _, err := os.Stat(sessionDir); !os.IsNotExist(err) {
		t.Fatalf("session dir should be removed after successful union")
	}
}

func TestUnionChunksSortsByIntegerValueNotLexical(t *testing.T) {
	sessionDir := t.TempDir()
	target := filepath.Join(t.TempDir(), "merged.bin")

	// 以字典序 "10" 会排在 "2" 前面，必须按数值序合并
	chunks := make([][]byte, 12)
	var want []byte
	for i := range chunks {
		chunks[i] = []byte{byte('a' + i)}
		want = append(want, chunks[i]...)
	}
	writeChunks(t, sessionDir, chunks)

	if err := UnionChunks(sessionDir, target, len(chunks)); err != nil {
		t.Fatalf("UnionChunks returned error: %v", err)
	}
	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("merged content = %q, want %q", got, want)
	}
}

func TestUnionChunksMissingChunkLeavesTargetUntouched(t *testing.T) {
	sessionDir := t.TempDir()
	targetDir := t.TempDir()
	target := filepath.Join(targetDir, "merged.bin")

	// 5 个分片缺第 3 个
	for _, i := range []int{0, 1, 2, 4} {
		if err := os.WriteFile(filepath.Join(sessionDir, strconv.Itoa(i)), []byte("x"), 0o644); err != nil {
			t.Fatalf("write chunk %d: %v", i, err)
		}
	}

	if err := UnionChunks(sessionDir, target, 5); err == nil {
		t.Fatal("expected error for missing chunk, got nil")
	}

	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatalf("target must not exist after failed union")
	}
	if _, err := os.Stat(sessionDir); err != nil {
		t.Fatalf("session dir must survive a failed union: %v", err)
	}
}

func TestUnionChunksResendOverwriteKeepsContentStable(t *testing.T) {
	sessionDir := t.TempDir()
	target := filepath.Join(t.TempDir(), "merged.bin")

	chunks := [][]byte{[]byte("aaa"), []byte("bbb")}
	writeChunks(t, sessionDir, chunks)
	// 模拟客户端重发分片 1
	writeChunks(t, sessionDir, chunks)

	if err := UnionChunks(sessionDir, target, len(chunks)); err != nil {
		t.Fatalf("UnionChunks returned error: %v", err)
	}
	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if string(got) != "aaabbb" {
		t.Fatalf("merged content = %q, want %q", got, "aaabbb")
	}
}

func TestUnionChunksIgnoresNonNumericEntries(t *testing.T) {
	sessionDir := t.TempDir()
	target := filepath.Join(t.TempDir(), "merged.bin")

	writeChunks(t, sessionDir, [][]byte{[]byte("ab"), []byte("cd")})
	if err := os.WriteFile(filepath.Join(sessionDir, ".DS_Store"), []byte("junk"), 0o644); err != nil {
		t.Fatalf("write stray file: %v", err)
	}

	if err := UnionChunks(sessionDir, target, 2); err != nil {
		t.Fatalf("UnionChunks returned error: %v", err)
	}
	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if string(got) != "abcd" {
		t.Fatalf("merged content = %q, want %q", got, "abcd")
	}
}
