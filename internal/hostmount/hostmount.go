// Package hostmount implements the CLI's --root flag (spec.md §6): it
// copies a host directory into the VFS at mount time and, optionally,
// keeps watching the host tree so external edits stay visible (spec.md §6
// "Persisted state" — "a read-only projection of the host tree is
// exposed").
package hostmount

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/vercel-labs/just-bash/internal/vfs"
)

// MountPoint is the fixed VFS location spec.md §6 assigns to --root.
const MountPoint = "/home/user/project"

// Load walks hostDir and writes every regular file into v under MountPoint,
// preserving relative structure and file mode bits.
func Load(v *vfs.VFS, hostDir string) error {
	if err := v.Mkdir(MountPoint, true); err != nil {
		return fmt.Errorf("hostmount: %w", err)
	}
	return filepath.Walk(hostDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(hostDir, p)
		if err != nil {
			return err
		}
		dst := MountPoint
		if rel != "." {
			dst = MountPoint + "/" + filepath.ToSlash(rel)
		}
		if info.IsDir() {
			if rel == "." {
				return nil
			}
			return v.Mkdir(dst, true)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		return v.WriteFile(dst, data, uint32(info.Mode().Perm()))
	})
}

// Watcher re-syncs files from the host tree into the VFS as they change on
// disk, so a host-mounted directory behaves like a live view rather than a
// one-time copy (spec.md §6 doesn't mandate this; it is the "documented
// corner" the DOMAIN STACK table calls out for fsnotify). Re-syncs go
// through vfs.WriteFile, which fails on a read-only VFS, and the failure is
// ignored: the CLI marks the VFS read-only unless --allow-write is given, so
// without that flag the mounted directory stays a one-time copy.
type Watcher struct {
	fw      *fsnotify.Watcher
	hostDir string
	vfs     *vfs.VFS
	done    chan struct{}
}

// Start begins watching hostDir non-recursively per directory discovered
// under it; call Close to stop.
func Start(v *vfs.VFS, hostDir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("hostmount: %w", err)
	}
	err = filepath.Walk(hostDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fw.Add(p)
		}
		return nil
	})
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("hostmount: %w", err)
	}
	w := &Watcher{fw: fw, hostDir: hostDir, vfs: v, done: make(chan struct{})}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.resync(ev.Name)
			}
		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) resync(hostPath string) {
	info, err := os.Stat(hostPath)
	if err != nil || info.IsDir() {
		return
	}
	rel, err := filepath.Rel(w.hostDir, hostPath)
	if err != nil {
		return
	}
	data, err := os.ReadFile(hostPath)
	if err != nil {
		return
	}
	dst := MountPoint + "/" + filepath.ToSlash(rel)
	w.vfs.WriteFile(dst, data, uint32(info.Mode().Perm()))
}

// Close stops the watcher goroutine and releases the underlying fsnotify
// handle.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fw.Close()
}
