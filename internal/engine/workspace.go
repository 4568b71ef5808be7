package engine

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentx-labs/tailor/internal/platform"
	"github.com/aymanbagabas/go-udiff"
	"github.com/google/uuid"
)

// renameFile is swapped out in tests to simulate a crash between writing the
// temporary file and renaming it into place.
var renameFile = func(root *os.Root, oldname, newname string) error {
	return root.Rename(oldname, newname)
}

// workspace overlays pending mutations on top of the project tree. Reads
// see pending changes; nothing touches disk until commit. All I/O goes
// through an os.Root, so symlinks cannot carry a read or write outside the
// project.
type workspace struct {
	fs        *os.Root
	originals map[string]snapshot
	pending   map[string]*change
	order     []string
}

type change struct {
	data    []byte
	mode    os.FileMode
	deleted bool
}

func newWorkspace(ec *ExecutionContext) (*workspace, error) {
	root, err := os.OpenRoot(ec.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("opening project root: %w", err)
	}
	return &workspace{fs: root, originals: ec.snapshots(), pending: map[string]*change{}}, nil
}

func (w *workspace) close() error { return w.fs.Close() }

func local(rel string) string { return filepath.FromSlash(rel) }

// read returns the current content of rel and whether it exists.
func (w *workspace) read(rel string) ([]byte, bool, error) {
	if c, ok := w.pending[rel]; ok {
		if c.deleted {
			return nil, false, nil
		}
		return c.data, true, nil
	}
	return w.readDisk(rel)
}

func (w *workspace) readDisk(rel string) ([]byte, bool, error) {
	data, err := w.fs.ReadFile(local(rel))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", rel, err)
	}
	return data, true, nil
}

func (w *workspace) exists(rel string) (bool, error) {
	if c, ok := w.pending[rel]; ok {
		return !c.deleted, nil
	}
	_, err := w.fs.Lstat(local(rel))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", rel, err)
	}
	return true, nil
}

// mode returns the permission bits rel has or will have.
func (w *workspace) mode(rel string) os.FileMode {
	if c, ok := w.pending[rel]; ok && !c.deleted {
		return c.mode
	}
	info, err := w.fs.Stat(local(rel))
	if err != nil {
		return platform.DefaultFileMode
	}
	return info.Mode().Perm()
}

func (w *workspace) write(rel string, data []byte, mode os.FileMode) {
	w.track(rel)
	w.pending[rel] = &change{data: data, mode: mode}
}

func (w *workspace) remove(rel string) {
	w.track(rel)
	w.pending[rel] = &change{deleted: true}
}

// track records rel as changed and, the first time the run touches it,
// remembers what it held on disk.
func (w *workspace) track(rel string) {
	if _, ok := w.pending[rel]; ok {
		return
	}
	w.order = append(w.order, rel)
	if _, seen := w.originals[rel]; seen || w.originals == nil {
		return
	}
	if data, exists, err := w.readDisk(rel); err == nil {
		w.originals[rel] = snapshot{data: data, exists: exists}
	}
}

func (w *workspace) discard() {
	w.pending = map[string]*change{}
	w.order = nil
}

// commit writes pending changes to disk in the order they were first made.
func (w *workspace) commit() error {
	defer w.discard()
	for _, rel := range w.order {
		c := w.pending[rel]
		name := local(rel)
		if c.deleted {
			if err := w.fs.RemoveAll(name); err != nil {
				return &WriteError{Path: rel, Op: "delete", Err: err}
			}
			continue
		}
		if dir := filepath.Dir(name); dir != "." {
			if err := w.fs.MkdirAll(dir, 0755); err != nil {
				return &WriteError{Path: rel, Op: "mkdir", Err: err}
			}
		}
		if err := writeAtomic(w.fs, name, c.data, c.mode); err != nil {
			return &WriteError{Path: rel, Op: "write", Err: err}
		}
	}
	return nil
}

// diff writes a unified diff of every pending change.
func (w *workspace) diff(out io.Writer) error {
	for _, rel := range w.order {
		c := w.pending[rel]
		old, _, err := w.readDisk(rel)
		if err != nil {
			return err
		}
		var next []byte
		if !c.deleted {
			next = c.data
		}
		d := udiff.Unified("a/"+rel, "b/"+rel, string(old), string(next))
		if d == "" {
			continue
		}
		if _, err := io.WriteString(out, d); err != nil {
			return err
		}
		if !strings.HasSuffix(d, "\n") {
			if _, err := io.WriteString(out, "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeAtomic writes data to a sibling temporary file and renames it over
// name, so name holds either its old or its new content and never a
// partial write.
func writeAtomic(root *os.Root, name string, data []byte, mode os.FileMode) error {
	tmpName := filepath.Join(filepath.Dir(name), "."+filepath.Base(name)+".tmp-"+uuid.NewString()[:8])
	tmp, err := root.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		root.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		root.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		root.Remove(tmpName)
		return err
	}
	if err := platform.Chmod(root, tmpName, mode); err != nil {
		root.Remove(tmpName)
		return err
	}
	if err := renameFile(root, tmpName, name); err != nil {
		root.Remove(tmpName)
		return err
	}
	return nil
}
