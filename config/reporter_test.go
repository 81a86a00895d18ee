package config

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func newTestReport(t *testing.T) *Report {
	t.Helper()
	conf := ReporterConfig{Destination: filepath.Join(t.TempDir(), "report.zip")}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	return r
}

func readArchive(t *testing.T, name string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("unable to open report %s: %v", name, err)
	}
	defer zr.Close()

	files := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("unable to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("unable to read %s: %v", f.Name, err)
		}
		files[f.Name] = string(data)
	}
	return files
}

func TestReport_Archive(t *testing.T) {
	r := newTestReport(t)

	src := filepath.Join(t.TempDir(), "site.css")
	if err := os.WriteFile(src, []byte("a { b: fluid(1px, 2px) }"), 0644); err != nil {
		t.Fatal(err)
	}

	r.StoreData("config.yaml", []byte("version: 1\n"))
	r.Store("source", src)
	if err := r.StoreCopy("source-copy", src); err != nil {
		t.Fatalf("StoreCopy() error = %v", err)
	}
	name := r.Name()
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files := readArchive(t, name)
	if _, ok := files["MANIFEST"]; !ok {
		t.Error("report has no MANIFEST")
	}
	if files["config.yaml"] != "version: 1\n" {
		t.Errorf("config.yaml = %q", files["config.yaml"])
	}
	if files["source"] != "a { b: fluid(1px, 2px) }" {
		t.Errorf("source = %q", files["source"])
	}
	if files["source-copy"] != "a { b: fluid(1px, 2px) }" {
		t.Errorf("source-copy = %q", files["source-copy"])
	}
}

func TestReport_StoreCopyDirectory(t *testing.T) {
	r := newTestReport(t)

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "nested", "a.css"), []byte("a{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.StoreCopy("input", dir); err != nil {
		t.Fatalf("StoreCopy() error = %v", err)
	}
	// same name twice is versioned
	if err := r.StoreCopy("input", dir); err != nil {
		t.Fatalf("StoreCopy() error = %v", err)
	}
	if len(r.items) != 2 {
		t.Errorf("expected 2 items, got %d", len(r.items))
	}

	temps := append([]string(nil), r.temps...)
	name := r.Name()
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files := readArchive(t, name)
	if files["input/nested/a.css"] != "a{}" {
		t.Errorf("input/nested/a.css = %q", files["input/nested/a.css"])
	}
	for _, tmp := range temps {
		if _, err := os.Stat(tmp); !os.IsNotExist(err) {
			os.RemoveAll(tmp)
			t.Errorf("temporary copy %s was not removed", tmp)
		}
	}
	// originals are left alone
	if _, err := os.Stat(filepath.Join(dir, "nested", "a.css")); err != nil {
		t.Errorf("original file was removed: %v", err)
	}
}

func TestReport_NameConflicts(t *testing.T) {
	r := newTestReport(t)

	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.css"), filepath.Join(dir, "b.css")
	for _, f := range []string{a, b} {
		if err := os.WriteFile(f, []byte(filepath.Base(f)), 0644); err != nil {
			t.Fatal(err)
		}
	}

	r.Store("result", a)
	r.Store("result", a) // same path again is not a new item
	r.Store("result", b)
	r.StoreData("diff", []byte("first"))
	r.StoreData("diff", []byte("second"))

	name := r.Name()
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files := readArchive(t, name)
	want := map[string]string{
		"result":   "a.css",
		"result~2": "b.css",
		"diff":     "first",
		"diff~2":   "second",
	}
	for n, content := range want {
		if files[n] != content {
			t.Errorf("%s = %q, want %q", n, files[n], content)
		}
	}
	if len(files) != len(want)+1 {
		t.Errorf("expected %d files with MANIFEST, got %d", len(want)+1, len(files))
	}
}

func TestReport_MissingFileSkipped(t *testing.T) {
	r := newTestReport(t)
	r.Store("final.log", filepath.Join(t.TempDir(), "never-created.log"))

	name := r.Name()
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	files := readArchive(t, name)
	if _, ok := files["final.log"]; ok {
		t.Error("missing file should not be archived")
	}
	if !strings.Contains(files["MANIFEST"], "final.log") {
		t.Errorf("MANIFEST = %q, want final.log listed", files["MANIFEST"])
	}
}

func TestReport_Concurrent(t *testing.T) {
	r := newTestReport(t)

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Go(func() {
			r.StoreData(fmt.Sprintf("data-%02d", i), []byte{byte(i)})
		})
	}
	wg.Wait()

	name := r.Name()
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	files := readArchive(t, name)
	if len(files) != 33 {
		t.Errorf("expected 32 data files and MANIFEST, got %d", len(files))
	}
}

func TestReportClose_NilReport(t *testing.T) {
	var r *Report
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
	r.Store("a", "b")
	r.StoreData("a", nil)
	if err := r.StoreCopy("a", "b"); err != nil {
		t.Errorf("StoreCopy on nil report should not error, got: %v", err)
	}
	if r.Name() != "" {
		t.Errorf("Name() on nil report = %q", r.Name())
	}
}

func TestReportClose_NilFile(t *testing.T) {
	r := &Report{items: make(map[string]item)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}
