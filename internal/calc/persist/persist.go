// Package persist saves the calculator history and delete mode to a
// single binary file and reads it back.
//
// Layout, big-endian throughout:
//
//	version    int32
//	deleteMode int32          (version >= 2)
//	count      int32
//	count × { base, edited }  (uint16 length + modified UTF-8)
//	cursor     int32
//
// Version 1 files carry no delete mode. Files are always written as the
// latest version.
package persist

import (
	"errors"
	"fmt"
	"io"

	"github.com/dshills/keycalc/internal/calc/history"
)

// Format versions.
const (
	Version1      = 1
	Version2      = 2
	LatestVersion = Version2
)

// DefaultFileName is the file name used inside the data directory.
const DefaultFileName = "calculator.data"

// maxEntryCount bounds the entry count read from a file so a corrupt
// header cannot trigger a huge allocation.
const maxEntryCount = 1 << 16

// ErrCorrupt is returned for a file whose contents cannot describe a
// history.
var ErrCorrupt = errors.New("corrupt calculator data")

// VersionError reports an unsupported format version.
type VersionError struct {
	Version int
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("data version %d; expected %d..%d", e.Version, Version1, LatestVersion)
}

// State is everything kept across restarts.
type State struct {
	// Version is the format version the state was read from. Encode
	// ignores it.
	Version int

	DeleteMode int
	History    *history.History

	// Restored is set by Store.Load when the state came from the file.
	Restored bool
}

// Encode writes state as the latest version.
func Encode(w io.Writer, state State) error {
	h := state.History
	if h == nil {
		h = history.New(0)
	}
	entries, pos := h.Snapshot()

	out := newWriter(w)
	out.int32(LatestVersion)
	out.int32(int32(state.DeleteMode))
	out.int32(int32(len(entries)))
	for _, e := range entries {
		out.utf(e.Base)
		out.utf(e.Edited)
	}
	out.int32(int32(pos))
	return out.flush()
}

// Decode reads a state written by Encode or by an older version. The
// restored history is bounded by maxEntries.
func Decode(r io.Reader, maxEntries int) (State, error) {
	in := newReader(r)

	version := int(in.int32())
	if in.err != nil {
		return State{}, fmt.Errorf("reading version: %w", in.err)
	}
	if version < Version1 || version > LatestVersion {
		return State{}, &VersionError{Version: version}
	}

	state := State{Version: version}
	if version >= Version2 {
		state.DeleteMode = int(in.int32())
	}

	count := int(in.int32())
	if in.err == nil && (count < 0 || count > maxEntryCount) {
		return State{}, fmt.Errorf("%w: entry count %d", ErrCorrupt, count)
	}

	var entries []history.Entry
	for i := 0; i < count && in.err == nil; i++ {
		base := in.utf()
		edited := in.utf()
		entries = append(entries, history.Entry{Base: base, Edited: edited})
	}
	pos := int(in.int32())
	if in.err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrCorrupt, in.err)
	}

	h, err := history.Restore(entries, pos, maxEntries)
	if err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	state.History = h
	return state, nil
}
