package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/yuya-takeyama/differy/internal/domain"
)

// Entry is a named blob to store in an archive.
type Entry struct {
	Name string
	Data []byte
}

// Writer streams entries into a new zip file. A Writer owns its output
// path until Close; it must not be shared between goroutines.
type Writer struct {
	path    string
	file    *os.File
	zw      *zip.Writer
	entries int
}

// Create truncates or creates the archive at path.
func Create(path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, &domain.OpError{Op: "archive.create", Kind: domain.KindIO, Path: path, Err: err}
	}
	return &Writer{path: path, file: file, zw: zip.NewWriter(file)}, nil
}

// Add writes one deflated file entry.
func (w *Writer) Add(name string, data []byte) error {
	hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
	hdr.SetMode(0o644)
	fw, err := w.zw.CreateHeader(hdr)
	if err != nil {
		return w.fail("archive.add", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return w.fail("archive.add", name, err)
	}
	w.entries++
	return nil
}

// AddDir writes a directory entry. The trailing slash is added if missing.
func (w *Writer) AddDir(name string) error {
	if !strings.HasSuffix(name, "/") {
		name += "/"
	}
	hdr := &zip.FileHeader{Name: name, Method: zip.Store}
	hdr.SetMode(fs.ModeDir | 0o755)
	if _, err := w.zw.CreateHeader(hdr); err != nil {
		return w.fail("archive.add_dir", name, err)
	}
	w.entries++
	return nil
}

// Entries returns the number of entries written so far.
func (w *Writer) Entries() int {
	return w.entries
}

// Close finishes the central directory and closes the file.
func (w *Writer) Close() error {
	zerr := w.zw.Close()
	ferr := w.file.Close()
	if zerr != nil {
		return &domain.OpError{Op: "archive.close", Kind: domain.KindArchive, Path: w.path, Err: zerr}
	}
	if ferr != nil {
		return &domain.OpError{Op: "archive.close", Kind: domain.KindIO, Path: w.path, Err: ferr}
	}
	return nil
}

// Abort closes the writer after a failure. The partial file stays on disk and
// is overwritten by the next run.
func (w *Writer) Abort() {
	_ = w.zw.Close()
	_ = w.file.Close()
}

func (w *Writer) fail(op, name string, err error) error {
	return &domain.OpError{Op: op, Kind: domain.KindArchive, Path: w.path, Err: fmt.Errorf("%s: %w", name, err)}
}

// Append adds entries to the existing archive at path. Existing entries are
// carried over unchanged in name, mode and content.
func Append(path string, entries ...Entry) (err error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return openError("archive.append", path, err)
	}
	defer r.Close()

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return &domain.OpError{Op: "archive.append", Kind: domain.KindIO, Path: path, Err: err}
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	w := &Writer{path: tmpPath, file: tmp, zw: zip.NewWriter(tmp)}
	for _, f := range r.File {
		if err := copyEntry(w, f); err != nil {
			w.Abort()
			return err
		}
	}
	for _, e := range entries {
		if err := w.Add(e.Name, e.Data); err != nil {
			w.Abort()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return &domain.OpError{Op: "archive.append", Kind: domain.KindIO, Path: path, Err: err}
	}
	return nil
}

func copyEntry(w *Writer, f *zip.File) error {
	hdr := &zip.FileHeader{Name: f.Name, Method: f.Method, Modified: f.Modified}
	hdr.SetMode(f.Mode())
	if f.FileInfo().IsDir() {
		if _, err := w.zw.CreateHeader(hdr); err != nil {
			return w.fail("archive.append", f.Name, err)
		}
		w.entries++
		return nil
	}

	rc, err := f.Open()
	if err != nil {
		return w.fail("archive.append", f.Name, err)
	}
	defer rc.Close()

	fw, err := w.zw.CreateHeader(hdr)
	if err != nil {
		return w.fail("archive.append", f.Name, err)
	}
	if _, err := io.Copy(fw, rc); err != nil {
		return w.fail("archive.append", f.Name, err)
	}
	w.entries++
	return nil
}

// ReadEntry returns the bytes of the entry called name. A missing archive or
// a missing entry yields an error wrapping domain.ErrNotFound.
func ReadEntry(path, name string) ([]byte, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, openError("archive.read", path, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, &domain.OpError{Op: "archive.read", Kind: domain.KindArchive, Path: path, Err: err}
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, &domain.OpError{Op: "archive.read", Kind: domain.KindArchive, Path: path, Err: err}
		}
		return data, nil
	}

	return nil, &domain.OpError{
		Op:   "archive.read",
		Kind: domain.KindArchive,
		Path: path,
		Err:  fmt.Errorf("entry %q: %w", name, domain.ErrNotFound),
	}
}

// List returns the entry names of the archive at path, in archive order.
func List(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, openError("archive.list", path, err)
	}
	defer r.Close()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names, nil
}

func openError(op, path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return &domain.OpError{Op: op, Kind: domain.KindIO, Path: path, Err: fmt.Errorf("%w: %v", domain.ErrNotFound, err)}
	}
	return &domain.OpError{Op: op, Kind: domain.KindArchive, Path: path, Err: err}
}
