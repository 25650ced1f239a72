// Package vfs implements the in-memory, copy-on-write virtual filesystem
// that every just-bash builtin and utility reads and writes through. It is
// the system's only persistence (spec.md §3, §4.1) and has no dependency on
// any other package in this module.
package vfs

import (
	"errors"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vercel-labs/just-bash/internal/invariant"
)

// Kind tags the FsEntry variant.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
	KindSymlink
)

const maxSymlinkHops = 40

// DefaultDirMode and DefaultFileMode mirror the permission bits a real shell
// would apply when an explicit mode is not given.
const (
	DefaultDirMode  = 0o755
	DefaultFileMode = 0o644
)

// FsEntry is the tagged variant described in spec.md §3. Byte contents are
// never mutated in place - a write replaces the slice - so entries can be
// shared by reference across snapshots.
type FsEntry struct {
	Kind   Kind
	Mode   uint32 // 12-bit permission+type bits (lower 9 bits are rwxrwxrwx)
	MTime  time.Time
	Data   []byte // KindFile only
	Target string // KindSymlink only
}

func (e *FsEntry) clone() *FsEntry {
	cp := *e
	// Data is intentionally NOT deep-copied: byte contents are immutable
	// values, shared by reference until a write replaces the whole slice.
	return &cp
}

// Stat is the information returned by Stat/Lstat.
type Stat struct {
	IsFile      bool
	IsDirectory bool
	IsSymlink   bool
	Mode        uint32
	Size        int64
	MTime       time.Time
}

// InitialFile is one entry of the optional construction-time seed mapping.
type InitialFile struct {
	Content interface{} // []byte or string
	Mode    uint32      // 0 means DefaultFileMode
}

type pathMap map[string]*FsEntry

// Snapshot is an opaque, O(1)-to-take handle produced by Snapshot and
// consumed by Restore. Taking one shares storage with the live VFS until
// the next mutation forces a copy-on-write clone.
type Snapshot struct {
	entries pathMap
}

// VFS is the in-memory tree of files/directories/symlinks.
type VFS struct {
	mu       sync.RWMutex
	entries  pathMap
	shared   bool // true once entries may also be referenced by a live Snapshot
	readOnly bool
}

// New creates a VFS rooted at "/" holding an empty /tmp directory, seeded
// with initial files whose parent directories are auto-created with mode
// 0o755 (spec.md §4.1).
func New(initial map[string]InitialFile) *VFS {
	v := &VFS{entries: pathMap{}}
	v.entries["/"] = &FsEntry{Kind: KindDirectory, Mode: DefaultDirMode, MTime: time.Now()}
	v.entries["/tmp"] = &FsEntry{Kind: KindDirectory, Mode: DefaultDirMode, MTime: time.Now()}

	// Deterministic order so ancestor creation and mtimes are reproducible.
	paths := make([]string, 0, len(initial))
	for p := range initial {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		f := initial[p]
		mode := f.Mode
		if mode == 0 {
			mode = DefaultFileMode
		}
		var data []byte
		switch c := f.Content.(type) {
		case []byte:
			data = c
		case string:
			data = []byte(c)
		}
		norm := v.resolvePathLocked("/", p)
		v.ensureParents(norm)
		v.entries[norm] = &FsEntry{Kind: KindFile, Mode: mode, MTime: time.Now(), Data: data}
	}
	return v
}

// SetReadOnly toggles read-only mode; every mutating operation then fails
// with ErrReadOnly (spec.md §4.1 "Read-only mode").
func (v *VFS) SetReadOnly(ro bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.readOnly = ro
}

func (v *VFS) ReadOnly() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.readOnly
}

// cowLocked must be called while v.mu is held, before any mutation of
// v.entries. It performs the lazy copy-on-write clone a snapshot requires.
func (v *VFS) cowLocked() {
	if !v.shared {
		return
	}
	clone := make(pathMap, len(v.entries))
	for k, e := range v.entries {
		clone[k] = e
	}
	v.entries = clone
	v.shared = false
}

// Snapshot takes an O(1) copy-on-write handle of the whole path map.
func (v *VFS) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.shared = true
	return Snapshot{entries: v.entries}
}

// Restore reinstates a previously taken snapshot.
func (v *VFS) Restore(s Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	invariant.NotNil(s.entries, "snapshot.entries")
	v.entries = s.entries
	v.shared = true
}

// ResolvePath canonicalizes cwd+p into an absolute path, collapsing "."/".."
// lexically WITHOUT resolving symlinks (spec.md §4.1).
func (v *VFS) ResolvePath(cwd, p string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.resolvePathLocked(cwd, p)
}

func (v *VFS) resolvePathLocked(cwd, p string) string {
	if p == "" {
		p = "."
	}
	var joined string
	if path.IsAbs(p) {
		joined = p
	} else {
		joined = path.Join(cwd, p)
	}
	return path.Clean("/" + strings.TrimPrefix(joined, "/"))
}

func parentOf(p string) string {
	if p == "/" {
		return "/"
	}
	return path.Dir(p)
}

func baseOf(p string) string {
	return path.Base(p)
}

// ensureParents creates missing ancestor directories (used only at
// construction time for the initial-files seed; writeFile/mkdir have their
// own, stricter ancestor rules per spec.md §4.1).
func (v *VFS) ensureParents(p string) {
	dir := parentOf(p)
	if dir == "/" {
		if _, ok := v.entries["/"]; !ok {
			v.entries["/"] = &FsEntry{Kind: KindDirectory, Mode: DefaultDirMode, MTime: time.Now()}
		}
		return
	}
	v.ensureParents(dir)
	if _, ok := v.entries[dir]; !ok {
		v.entries[dir] = &FsEntry{Kind: KindDirectory, Mode: DefaultDirMode, MTime: time.Now()}
	}
}

// realpathLocked fully resolves p (all symlinks, including ancestors),
// capped at maxSymlinkHops (spec.md §4.1 "realpath").
func (v *VFS) realpathLocked(p string, hops int) (string, error) {
	if hops > maxSymlinkHops {
		return "", ErrTooManyLinks
	}
	if p == "/" {
		return "/", nil
	}
	dir, base := parentOf(p), baseOf(p)
	resolvedDir, err := v.realpathLocked(dir, hops)
	if err != nil {
		return "", err
	}
	full := path.Clean(resolvedDir + "/" + base)
	e, ok := v.entries[full]
	if !ok {
		return full, ErrNotFound
	}
	if e.Kind == KindSymlink {
		target := e.Target
		if !path.IsAbs(target) {
			target = path.Clean(resolvedDir + "/" + target)
		}
		return v.realpathLocked(target, hops+1)
	}
	return full, nil
}

// Realpath fully resolves path, failing with ErrTooManyLinks past 40 hops.
func (v *VFS) Realpath(p string) (string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	norm := v.resolvePathLocked("/", p)
	resolved, err := v.realpathLocked(norm, 0)
	if err != nil && err != ErrNotFound {
		return "", newErr("realpath", p, err)
	}
	return resolved, nil
}

// resolveForAccess resolves all ancestor symlinks but, when resolveFinal is
// false, leaves the final path component as-is (lstat semantics).
func (v *VFS) resolveForAccess(p string, resolveFinal bool) (string, error) {
	norm := v.resolvePathLocked("/", p)
	if norm == "/" {
		return "/", nil
	}
	dir, base := parentOf(norm), baseOf(norm)
	resolvedDir, err := v.realpathLocked(dir, 0)
	if err != nil {
		return "", err
	}
	full := path.Clean(resolvedDir + "/" + base)
	if !resolveFinal {
		return full, nil
	}
	resolved, err := v.realpathLocked(full, 0)
	if err != nil {
		return full, err
	}
	return resolved, nil
}

// Stat resolves the final path component (follows a trailing symlink).
func (v *VFS) Stat(p string) (Stat, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	full, err := v.resolveForAccess(p, true)
	if err != nil {
		return Stat{}, newErr("stat", p, err)
	}
	e, ok := v.entries[full]
	if !ok {
		return Stat{}, newErr("stat", p, ErrNotFound)
	}
	return statOf(e), nil
}

// Lstat does not resolve the final path component.
func (v *VFS) Lstat(p string) (Stat, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	full, err := v.resolveForAccess(p, false)
	if err != nil {
		return Stat{}, newErr("lstat", p, err)
	}
	e, ok := v.entries[full]
	if !ok {
		return Stat{}, newErr("lstat", p, ErrNotFound)
	}
	return statOf(e), nil
}

func statOf(e *FsEntry) Stat {
	return Stat{
		IsFile:      e.Kind == KindFile,
		IsDirectory: e.Kind == KindDirectory,
		IsSymlink:   e.Kind == KindSymlink,
		Mode:        e.Mode,
		Size:        int64(len(e.Data)),
		MTime:       e.MTime,
	}
}

// ReadFile returns a file's bytes. Fails with ErrNotFound or ErrIsADirectory.
func (v *VFS) ReadFile(p string) ([]byte, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	full, err := v.resolveForAccess(p, true)
	if err != nil {
		return nil, newErr("read", p, err)
	}
	e, ok := v.entries[full]
	if !ok {
		return nil, newErr("read", p, ErrNotFound)
	}
	if e.Kind == KindDirectory {
		return nil, newErr("read", p, ErrIsADirectory)
	}
	return e.Data, nil
}

// WriteFile creates or atomically replaces a file. mode 0 keeps the
// existing mode, or DefaultFileMode for a new file.
func (v *VFS) WriteFile(p string, data []byte, mode uint32) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.readOnly {
		return newErr("write", p, ErrReadOnly)
	}
	norm := v.resolvePathLocked("/", p)
	dir, base := parentOf(norm), baseOf(norm)
	resolvedDir, err := v.realpathLocked(dir, 0)
	if err != nil {
		return newErr("write", p, err)
	}
	if e, ok := v.entries[resolvedDir]; !ok || e.Kind != KindDirectory {
		if ok {
			return newErr("write", p, ErrNotADirectory)
		}
		return newErr("write", p, ErrNotFound)
	}
	full := path.Clean(resolvedDir + "/" + base)
	v.cowLocked()
	if existing, ok := v.entries[full]; ok {
		if existing.Kind == KindDirectory {
			return newErr("write", p, ErrIsADirectory)
		}
		m := existing.Mode
		if mode != 0 {
			m = mode
		}
		v.entries[full] = &FsEntry{Kind: KindFile, Mode: m, MTime: time.Now(), Data: data}
		return nil
	}
	m := mode
	if m == 0 {
		m = DefaultFileMode
	}
	v.entries[full] = &FsEntry{Kind: KindFile, Mode: m, MTime: time.Now(), Data: data}
	return nil
}

// AppendFile appends bytes to an existing file or creates it.
func (v *VFS) AppendFile(p string, data []byte, mode uint32) error {
	existing, err := v.ReadFile(p)
	if err != nil {
		var pe *PathError
		if errors.As(err, &pe) && pe.Err == ErrNotFound {
			existing = nil
		} else {
			return err
		}
	}
	buf := append(append([]byte{}, existing...), data...)
	return v.WriteFile(p, buf, mode)
}

// Mkdir creates a directory. With recursive=false, a missing ancestor fails
// with ErrNotFound; an existing directory target with recursive succeeds
// silently.
func (v *VFS) Mkdir(p string, recursive bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.readOnly {
		return newErr("mkdir", p, ErrReadOnly)
	}
	norm := v.resolvePathLocked("/", p)
	v.cowLocked()
	return v.mkdirLocked(norm, recursive)
}

func (v *VFS) mkdirLocked(norm string, recursive bool) error {
	if norm == "/" {
		return nil
	}
	if e, ok := v.entries[norm]; ok {
		if e.Kind == KindDirectory {
			if recursive {
				return nil
			}
			return newErr("mkdir", norm, ErrExists)
		}
		return newErr("mkdir", norm, ErrExists)
	}
	dir := parentOf(norm)
	if _, ok := v.entries[dir]; !ok {
		if !recursive {
			return newErr("mkdir", norm, ErrNotFound)
		}
		if err := v.mkdirLocked(dir, true); err != nil {
			return err
		}
	} else if v.entries[dir].Kind != KindDirectory {
		return newErr("mkdir", norm, ErrNotADirectory)
	}
	v.entries[norm] = &FsEntry{Kind: KindDirectory, Mode: DefaultDirMode, MTime: time.Now()}
	return nil
}

// Rm removes a file, empty/non-empty directory (recursive), or symlink.
func (v *VFS) Rm(p string, recursive, force bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.readOnly {
		return newErr("rm", p, ErrReadOnly)
	}
	full, err := v.resolveForAccess(p, false)
	if err != nil {
		if force {
			return nil
		}
		return newErr("rm", p, err)
	}
	e, ok := v.entries[full]
	if !ok {
		if force {
			return nil
		}
		return newErr("rm", p, ErrNotFound)
	}
	if e.Kind == KindDirectory {
		if !recursive {
			hasChildren := false
			prefix := full
			if prefix != "/" {
				prefix += "/"
			}
			for k := range v.entries {
				if k != full && strings.HasPrefix(k, prefix) {
					hasChildren = true
					break
				}
			}
			if hasChildren {
				return newErr("rm", p, ErrIsADirectory)
			}
		}
	}
	v.cowLocked()
	prefix := full
	if prefix != "/" {
		prefix += "/"
	}
	for k := range v.entries {
		if k == full || strings.HasPrefix(k, prefix) {
			delete(v.entries, k)
		}
	}
	return nil
}

// Symlink stores target verbatim at linkPath.
func (v *VFS) Symlink(target, linkPath string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.readOnly {
		return newErr("symlink", linkPath, ErrReadOnly)
	}
	norm := v.resolvePathLocked("/", linkPath)
	dir := parentOf(norm)
	if e, ok := v.entries[dir]; !ok || e.Kind != KindDirectory {
		return newErr("symlink", linkPath, ErrNotFound)
	}
	if _, ok := v.entries[norm]; ok {
		return newErr("symlink", linkPath, ErrExists)
	}
	v.cowLocked()
	v.entries[norm] = &FsEntry{Kind: KindSymlink, Mode: 0o777, MTime: time.Now(), Target: target}
	return nil
}

// Readlink returns a symlink's stored target verbatim.
func (v *VFS) Readlink(p string) (string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	full, err := v.resolveForAccess(p, false)
	if err != nil {
		return "", newErr("readlink", p, err)
	}
	e, ok := v.entries[full]
	if !ok {
		return "", newErr("readlink", p, ErrNotFound)
	}
	if e.Kind != KindSymlink {
		return "", newErr("readlink", p, ErrInvalidPath)
	}
	return e.Target, nil
}

// Chmod sets the permission bits (lower 12 bits) of an entry.
func (v *VFS) Chmod(p string, mode uint32) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.readOnly {
		return newErr("chmod", p, ErrReadOnly)
	}
	full, err := v.resolveForAccess(p, true)
	if err != nil {
		return newErr("chmod", p, err)
	}
	e, ok := v.entries[full]
	if !ok {
		return newErr("chmod", p, ErrNotFound)
	}
	v.cowLocked()
	clone := e.clone()
	clone.Mode = mode
	v.entries[full] = clone
	return nil
}

// Rename moves an entry (and, for a directory, its whole subtree) to a new
// path.
func (v *VFS) Rename(oldPath, newPath string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.readOnly {
		return newErr("rename", oldPath, ErrReadOnly)
	}
	oldFull, err := v.resolveForAccess(oldPath, false)
	if err != nil {
		return newErr("rename", oldPath, err)
	}
	e, ok := v.entries[oldFull]
	if !ok {
		return newErr("rename", oldPath, ErrNotFound)
	}
	newNorm := v.resolvePathLocked("/", newPath)
	newDir := parentOf(newNorm)
	if de, ok := v.entries[newDir]; !ok || de.Kind != KindDirectory {
		return newErr("rename", newPath, ErrNotFound)
	}
	v.cowLocked()
	oldPrefix := oldFull
	if oldPrefix != "/" {
		oldPrefix += "/"
	}
	if e.Kind == KindDirectory {
		moved := pathMap{}
		for k, v2 := range v.entries {
			if k == oldFull {
				moved[newNorm] = v2
			} else if strings.HasPrefix(k, oldPrefix) {
				moved[newNorm+"/"+strings.TrimPrefix(k, oldPrefix)] = v2
			}
		}
		for k := range v.entries {
			if k == oldFull || strings.HasPrefix(k, oldPrefix) {
				delete(v.entries, k)
			}
		}
		for k, v2 := range moved {
			v.entries[k] = v2
		}
	} else {
		delete(v.entries, oldFull)
		v.entries[newNorm] = e
	}
	return nil
}

// CopyFile duplicates a file's bytes and mode to a new path.
func (v *VFS) CopyFile(src, dst string) error {
	data, err := v.ReadFile(src)
	if err != nil {
		return err
	}
	st, err := v.Stat(src)
	if err != nil {
		return err
	}
	return v.WriteFile(dst, append([]byte{}, data...), st.Mode)
}

// Readdir lists a directory's immediate children, sorted lexicographically.
func (v *VFS) Readdir(p string) ([]string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	full, err := v.resolveForAccess(p, true)
	if err != nil {
		return nil, newErr("readdir", p, err)
	}
	e, ok := v.entries[full]
	if !ok {
		return nil, newErr("readdir", p, ErrNotFound)
	}
	if e.Kind != KindDirectory {
		return nil, newErr("readdir", p, ErrNotADirectory)
	}
	prefix := full
	if prefix != "/" {
		prefix += "/"
	}
	names := []string{}
	for k := range v.entries {
		if k == full || !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := strings.TrimPrefix(k, prefix)
		if strings.Contains(rest, "/") {
			continue
		}
		names = append(names, rest)
	}
	sort.Strings(names)
	return names, nil
}

// Exists reports whether a path resolves to any entry (symlinks followed).
func (v *VFS) Exists(p string) bool {
	_, err := v.Stat(p)
	return err == nil
}
