package persist

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/dshills/keycalc/internal/calc/history"
)

func sampleHistory() *history.History {
	h := history.New(0)
	h.Enter("1+1")
	h.Enter("12÷4")
	h.Enter("sin(π)")
	h.MoveToPrevious()
	h.Update("12÷44")
	return h
}

func TestRoundTrip(t *testing.T) {
	h := sampleHistory()

	var buf bytes.Buffer
	if err := Encode(&buf, State{DeleteMode: 1, History: h}); err != nil {
		t.Fatalf("Encode error = %v", err)
	}

	got, err := Decode(&buf, 0)
	if err != nil {
		t.Fatalf("Decode error = %v", err)
	}
	if got.Version != LatestVersion || got.DeleteMode != 1 {
		t.Errorf("Version=%d DeleteMode=%d", got.Version, got.DeleteMode)
	}

	wantEntries, wantPos := h.Snapshot()
	gotEntries, gotPos := got.History.Snapshot()
	if diff := cmp.Diff(wantEntries, gotEntries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	if gotPos != wantPos {
		t.Errorf("pos = %d, want %d", gotPos, wantPos)
	}
}

func TestEncodeLayout(t *testing.T) {
	h := history.New(0)
	h.Enter("7")

	var buf bytes.Buffer
	if err := Encode(&buf, State{History: h}); err != nil {
		t.Fatalf("Encode error = %v", err)
	}

	want := []byte{
		0, 0, 0, 2, // version
		0, 0, 0, 0, // delete mode
		0, 0, 0, 2, // count
		0, 1, '7', 0, 1, '7',
		0, 0, 0, 0,
		0, 0, 0, 1, // cursor
	}
	if diff := cmp.Diff(want, buf.Bytes()); diff != "" {
		t.Errorf("layout mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeVersion1(t *testing.T) {
	data := []byte{
		0, 0, 0, 1, // version
		0, 0, 0, 1, // count
		0, 0, 0, 0,
		0, 0, 0, 0, // cursor
	}
	got, err := Decode(bytes.NewReader(data), 0)
	if err != nil {
		t.Fatalf("Decode error = %v", err)
	}
	if got.Version != Version1 || got.DeleteMode != 0 || got.History.Len() != 1 {
		t.Errorf("got %+v len=%d", got, got.History.Len())
	}
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	for _, v := range []byte{0, 3} {
		data := []byte{0, 0, 0, v, 0, 0, 0, 0}
		_, err := Decode(bytes.NewReader(data), 0)
		var verr *VersionError
		if !errors.As(err, &verr) || verr.Version != int(v) {
			t.Errorf("version %d: error = %v, want VersionError", v, err)
		}
	}
}

func TestDecodeCorrupt(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"truncated count", []byte{0, 0, 0, 2, 0, 0, 0, 0, 0, 0}},
		{"negative count", []byte{0, 0, 0, 2, 0, 0, 0, 0, 0xFF, 0xFF, 0xFF, 0xFF}},
		{"zero entries", []byte{0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
		{"truncated string", []byte{0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 1, 0, 5, 'a'}},
		{"cursor out of range", []byte{0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 3}},
		{"bad utf", []byte{0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 1, 0, 1, 0xFF, 0, 0, 0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(bytes.NewReader(tt.data), 0); !errors.Is(err, ErrCorrupt) {
				t.Errorf("Decode error = %v, want ErrCorrupt", err)
			}
		})
	}
}

func TestReadTruncatedVersion(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte{0, 0}), 0); err == nil {
		t.Error("Decode of truncated header succeeded")
	}
}

func TestModifiedUTF8(t *testing.T) {
	tests := []struct {
		in   string
		want []byte
	}{
		{"", nil},
		{"a", []byte{'a'}},
		{"\x00", []byte{0xC0, 0x80}},
		{"÷", []byte{0xC3, 0xB7}},
		{"−", []byte{0xE2, 0x88, 0x92}},
		{"😀", []byte{0xED, 0xA0, 0xBD, 0xED, 0xB8, 0x80}},
	}
	for _, tt := range tests {
		got := encodeModifiedUTF8(tt.in)
		if !bytes.Equal(got, tt.want) && !(len(got) == 0 && len(tt.want) == 0) {
			t.Errorf("encode(%q) = % x, want % x", tt.in, got, tt.want)
		}
		back, err := decodeModifiedUTF8(got)
		if err != nil || back != tt.in {
			t.Errorf("decode(% x) = %q, %v; want %q", got, back, err, tt.in)
		}
	}
}

func TestStoreLoadMissing(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), DefaultFileName))
	state := s.Load()
	if state.History == nil || state.History.Len() != 1 {
		t.Fatalf("Load of missing file = %+v", state)
	}
	if state.DeleteMode != 0 {
		t.Errorf("DeleteMode = %d, want 0", state.DeleteMode)
	}
	if state.Restored {
		t.Error("Restored = true for a missing file")
	}
}

func TestStoreSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultFileName)
	s := NewStore(path, WithLogger(zap.NewNop()))

	h := sampleHistory()
	if !s.Save(State{DeleteMode: 1, History: h}) {
		t.Fatal("Save failed")
	}

	got := s.Load()
	if got.DeleteMode != 1 || !got.Restored {
		t.Errorf("DeleteMode = %d, Restored = %v; want 1, true", got.DeleteMode, got.Restored)
	}
	if diff := cmp.Diff(h.Entries(), got.History.Entries()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	if got.History.Pos() != h.Pos() {
		t.Errorf("Pos = %d, want %d", got.History.Pos(), h.Pos())
	}

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	if len(matches) != 0 {
		t.Errorf("temporary files left behind: %v", matches)
	}
}

func TestStoreLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte{0, 0, 0, 9}, 0o644); err != nil {
		t.Fatal(err)
	}

	state := NewStore(path).Load()
	if state.History.Len() != 1 || state.History.Base() != "" {
		t.Errorf("Load of corrupt file = %+v", state.History.Entries())
	}
}

func TestStoreLoadBoundsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	h := history.New(0)
	for _, s := range []string{"1", "2", "3", "4"} {
		h.Enter(s)
	}
	if !NewStore(path).Save(State{History: h}) {
		t.Fatal("Save failed")
	}

	got := NewStore(path, WithMaxEntries(3)).Load()
	if got.History.Len() != 3 {
		t.Errorf("Len = %d, want 3", got.History.Len())
	}
}

func TestStoreSaveFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore(filepath.Join(blocker, DefaultFileName))
	if s.Save(State{History: history.New(0)}) {
		t.Error("Save under a regular file succeeded")
	}
}
