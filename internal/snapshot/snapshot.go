// Package snapshot encodes/decodes a VFS tree as CBOR, the binary envelope
// spec.md §6 names for "VFS snapshot handles". The shell itself never
// persists anything (spec.md §6 "Persisted state: None") — this is purely
// an opt-in CLI debug facility (--snapshot-out/--snapshot-in) for test
// harnesses that need a byte-identical, reloadable capture of VFS state
// across separate just-bash invocations.
package snapshot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/vercel-labs/just-bash/internal/vfs"
)

// Entry is one path's CBOR-encoded record.
type Entry struct {
	Path   string `cbor:"path"`
	Kind   string `cbor:"kind"` // "file", "dir", "symlink"
	Mode   uint32 `cbor:"mode"`
	Data   []byte `cbor:"data,omitempty"`
	Target string `cbor:"target,omitempty"`
}

// Document is the full encoded snapshot.
type Document struct {
	Entries []Entry `cbor:"entries"`
}

// Encode walks the VFS depth-first from root and serializes every entry to
// CBOR bytes.
func Encode(v *vfs.VFS) ([]byte, error) {
	var entries []Entry
	var walk func(p string) error
	walk = func(p string) error {
		st, err := v.Lstat(p)
		if err != nil {
			return err
		}
		e := Entry{Path: p, Mode: st.Mode}
		switch {
		case st.IsSymlink:
			e.Kind = "symlink"
			target, err := v.Readlink(p)
			if err != nil {
				return err
			}
			e.Target = target
		case st.IsDirectory:
			e.Kind = "dir"
		default:
			e.Kind = "file"
			data, err := v.ReadFile(p)
			if err != nil {
				return err
			}
			e.Data = data
		}
		entries = append(entries, e)
		if st.IsDirectory {
			names, err := v.Readdir(p)
			if err != nil {
				return err
			}
			for _, n := range names {
				child := p
				if child != "/" {
					child += "/"
				}
				if err := walk(child + n); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk("/"); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return cbor.Marshal(Document{Entries: entries})
}

// Decode builds a fresh VFS from previously-encoded CBOR bytes.
func Decode(data []byte) (*vfs.VFS, error) {
	var doc Document
	if err := cbor.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	// Directories must be created before their children; sorting by path
	// length guarantees parents precede descendants.
	sort.Slice(doc.Entries, func(i, j int) bool {
		return len(doc.Entries[i].Path) < len(doc.Entries[j].Path)
	})
	v := vfs.New(nil)
	for _, e := range doc.Entries {
		if e.Path == "/" {
			continue
		}
		switch e.Kind {
		case "dir":
			if err := v.Mkdir(e.Path, true); err != nil {
				return nil, fmt.Errorf("snapshot: %s: %w", e.Path, err)
			}
		case "symlink":
			if err := v.Symlink(e.Target, e.Path); err != nil {
				return nil, fmt.Errorf("snapshot: %s: %w", e.Path, err)
			}
		case "file":
			if err := v.WriteFile(e.Path, e.Data, e.Mode); err != nil {
				return nil, fmt.Errorf("snapshot: %s: %w", e.Path, err)
			}
		default:
			return nil, fmt.Errorf("snapshot: %s: unknown kind %q", e.Path, e.Kind)
		}
	}
	return v, nil
}

// Summary renders a human-readable one-line-per-entry listing, handy for
// --snapshot-out debugging without a separate CBOR-dump tool.
func Summary(data []byte) (string, error) {
	var doc Document
	if err := cbor.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}
	var b strings.Builder
	for _, e := range doc.Entries {
		fmt.Fprintf(&b, "%s\t%s\t%04o\n", e.Kind, e.Path, e.Mode)
	}
	return b.String(), nil
}
