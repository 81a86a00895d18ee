package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/maruel/natural"
	"go.uber.org/multierr"

	"fluidcss/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates empty report. When destination could not be created report
// goes to temporary directory.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	r := &Report{items: make(map[string]item)}

	f, err := os.Create(conf.Destination)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err != nil {
			return nil, fmt.Errorf("unable to create report: %w", err)
		}
	}
	r.file = f
	return r, nil
}

// item is a single report entry: either data kept in memory or file or
// directory read when report is written.
type item struct {
	origin string // path as given by caller, empty for data
	path   string
	data   []byte
	stamp  time.Time
}

// Report collects stylesheets, logs and configuration for troubleshooting and
// writes them into zip archive on Close. Nil report ignores everything, this
// is the case when --debug was not requested. Safe for concurrent use.
type Report struct {
	mu    sync.Mutex
	items map[string]item
	// directories created by StoreCopy, removed on Close
	temps []string
	file  *os.File
}

// Close writes the archive and removes temporary copies.
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.write()
	err = multierr.Append(err, r.file.Close())
	for _, dir := range r.temps {
		err = multierr.Append(err, os.RemoveAll(dir))
	}
	r.temps = nil
	return err
}

// Name returns absolute name of the archive.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store adds file or directory to the report, it is read when report is
// written. Storing the same path under the same name again is a no-op.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}
	actual := path
	if p, err := filepath.Abs(path); err == nil {
		actual = p
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(name, item{origin: path, path: actual})
}

// StoreData adds data to the report as file with requested name.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(name, item{data: data, stamp: time.Now()})
}

// StoreCopy copies file or directory right away, so the report has content
// as it was before processing changed it.
func (r *Report) StoreCopy(name, path string) error {
	if r == nil {
		return nil
	}
	src, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir, err := os.MkdirTemp("", misc.GetAppName()+"-r-")
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.temps = append(r.temps, dir)
	copied, err := copyTree(dir, src)
	if err != nil {
		return fmt.Errorf("unable to copy %s for report: %w", path, err)
	}
	r.add(name, item{origin: path, path: copied, stamp: time.Now()})
	return nil
}

// add puts it under name, taken names get numeric suffix ("name~2") unless
// it is the same path stored again. Must be called with mu held.
func (r *Report) add(name string, it item) {
	unique := name
	for n := 2; ; n++ {
		old, exists := r.items[unique]
		if !exists || (it.data == nil && old.data == nil && old.path == it.path) {
			break
		}
		unique = fmt.Sprintf("%s~%d", name, n)
	}
	r.items[unique] = it
}

// copyTree copies regular file or all regular files under directory src into
// dir keeping modification times. It returns what should be archived.
func copyTree(dir, src string) (string, error) {
	fi, err := os.Stat(src)
	if err != nil {
		return "", err
	}
	if !fi.IsDir() {
		dst := filepath.Join(dir, filepath.Base(src))
		return dst, copyFile(dst, src, fi.ModTime())
	}
	return dir, filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0700); err != nil {
			return err
		}
		return copyFile(dst, path, info.ModTime())
	})
}

func copyFile(dst, src string, modTime time.Time) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		return multierr.Append(err, out.Close())
	}
	if err = out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, modTime, modTime)
}

// write puts MANIFEST and all items into the archive, items which disappeared
// (log file which was never created) are skipped.
func (r *Report) write() error {
	zw := zip.NewWriter(r.file)

	names := slices.Collect(maps.Keys(r.items))
	sort.Sort(natural.StringSlice(names))

	now := time.Now()
	var manifest bytes.Buffer
	for _, name := range names {
		it := r.items[name]
		stamp := it.stamp
		if stamp.IsZero() {
			stamp = now
		}
		fmt.Fprintf(&manifest, "%s\t%s\t%s\n", stamp.UTC().Format(time.RFC3339), name, it.origin)
	}

	err := writeEntry(zw, "MANIFEST", now, &manifest)
	for _, name := range names {
		if err != nil {
			break
		}
		it := r.items[name]
		if it.data != nil {
			err = writeEntry(zw, name, it.stamp, bytes.NewReader(it.data))
			continue
		}
		err = writePath(zw, name, it.path)
	}
	return multierr.Append(err, zw.Close())
}

func writePath(zw *zip.Writer, name, path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return nil
	}
	if !fi.IsDir() {
		return writeFile(zw, name, path, fi.ModTime())
	}
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		return writeFile(zw, name+"/"+filepath.ToSlash(rel), p, info.ModTime())
	})
}

func writeFile(zw *zip.Writer, name, path string, modTime time.Time) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeEntry(zw, name, modTime, f)
}

func writeEntry(zw *zip.Writer, name string, modTime time.Time, src io.Reader) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modTime})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
