package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"syscall"
	"testing"

	"github.com/spf13/afero"

	"github.com/moyu-x/framemover/pkg/mover"
	"github.com/moyu-x/framemover/pkg/progress"
)

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}

func exists(t *testing.T, fs afero.Fs, path string) bool {
	t.Helper()
	ok, err := afero.Exists(fs, path)
	if err != nil {
		t.Fatalf("Exists(%s) error = %v", path, err)
	}
	return ok
}

// snapshotTree 记录目录树中所有文件的内容
func snapshotTree(t *testing.T, fs afero.Fs, roots ...string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, root := range roots {
		walkTree(t, fs, root, out)
	}
	return out
}

func walkTree(t *testing.T, fs afero.Fs, root string, out map[string]string) {
	t.Helper()
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			out[path+"/"] = ""
			return nil
		}
		out[path] = readFile(t, fs, path)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
}

func memTree(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, dir := range []string{"/src", "/dest"} {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
	}
	for path, content := range files {
		writeFile(t, fs, path, content)
	}
	return fs
}

func mustRun(t *testing.T, fs afero.Fs, p Params) *Result {
	t.Helper()
	res, err := New(fs).Run(context.Background(), p, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return res
}

func TestRun_EndToEnd(t *testing.T) {
	tempDir := t.TempDir()
	fs := afero.NewOsFs()
	src := filepath.Join(tempDir, "Source")
	dest := filepath.Join(tempDir, "Dest")

	writeFile(t, fs, filepath.Join(src, "A", "IMG_7612.JPG"), "new frame")
	writeFile(t, fs, filepath.Join(src, "B", "IMG_7605.png"), "known frame")
	writeFile(t, fs, filepath.Join(dest, "B", "IMG_7605.png"), "known frame")

	res := mustRun(t, fs, Params{Source: src, Dest: dest, Suffixes: "7612,7605", Precount: true})

	final := res.Final
	if final.Phase != progress.PhaseDone {
		t.Errorf("Phase = %s, want done", final.Phase)
	}
	if final.Scanned != 2 || final.Matched != 2 {
		t.Errorf("Scanned/Matched = %d/%d, want 2/2", final.Scanned, final.Matched)
	}
	if final.Moved != 1 || final.SkippedDuplicates != 1 || final.Errors != 0 {
		t.Errorf("Moved/Skipped/Errors = %d/%d/%d, want 1/1/0", final.Moved, final.SkippedDuplicates, final.Errors)
	}
	if final.Percent != 100 {
		t.Errorf("Percent = %v, want 100", final.Percent)
	}
	if final.CurrentFile != "" {
		t.Errorf("CurrentFile = %q, want empty", final.CurrentFile)
	}
	if res.ExitCode() != 0 {
		t.Errorf("ExitCode() = %d, want 0", res.ExitCode())
	}

	if got := readFile(t, fs, filepath.Join(dest, "A", "IMG_7612.JPG")); got != "new frame" {
		t.Errorf("moved content = %q", got)
	}
	if exists(t, fs, filepath.Join(src, "A", "IMG_7612.JPG")) {
		t.Error("Expected moved source to be gone")
	}
	if !exists(t, fs, filepath.Join(src, "B", "IMG_7605.png")) {
		t.Error("Duplicate source must stay in place")
	}

	kinds := map[OutcomeKind]int{}
	for _, o := range res.Outcomes {
		kinds[o.Kind]++
		if o.Kind == OutcomeSkippedDuplicate && o.Path != filepath.Join(dest, "B", "IMG_7605.png") {
			t.Errorf("duplicate outcome path = %q", o.Path)
		}
		if o.Kind == OutcomeMoved && o.MIME != "image/jpeg" {
			t.Errorf("moved outcome MIME = %q", o.MIME)
		}
	}
	if kinds[OutcomeMoved] != 1 || kinds[OutcomeSkippedDuplicate] != 1 {
		t.Errorf("outcomes = %v", kinds)
	}
}

func TestRun_NonMatchingFilesUntouched(t *testing.T) {
	fs := memTree(t, map[string]string{
		"/src/IMG_7612.mov": "video",
		"/src/IMG_7613.jpg": "frame",
		"/src/notes.txt":    "text",
	})

	res := mustRun(t, fs, Params{Source: "/src", Dest: "/dest", Suffixes: "7612"})

	if res.Final.Scanned != 3 || res.Final.Matched != 0 || res.Final.Moved != 0 {
		t.Errorf("final = %+v", res.Final)
	}
	if len(res.Outcomes) != 0 {
		t.Errorf("Expected no outcomes for rejected candidates, got %v", res.Outcomes)
	}
	for _, path := range []string{"/src/IMG_7612.mov", "/src/IMG_7613.jpg", "/src/notes.txt"} {
		if !exists(t, fs, path) {
			t.Errorf("%s should not be moved", path)
		}
	}
}

func TestRun_DryRunNeverMutates(t *testing.T) {
	files := map[string]string{
		"/src/A/IMG_11.jpg":     "same",
		"/src/A/IMG_21.jpg":     "same",
		"/src/A/IMG_7612.jpg":   "incoming",
		"/src/B/IMG_31.png":     "other",
		"/src/B/skip.txt":       "text",
		"/dest/A/IMG_7612.jpg":  "existing",
		"/dest/B/IMG_31_1.png":  "other",
		"/dest/C/unrelated.gif": "gif",
	}
	p := Params{Source: "/src", Dest: "/dest", Suffixes: "1 7612", DryRun: true}

	fs := memTree(t, files)
	before := snapshotTree(t, fs, "/src", "/dest")
	dry := mustRun(t, fs, p)
	after := snapshotTree(t, fs, "/src", "/dest")

	if !reflect.DeepEqual(before, after) {
		t.Fatalf("dry run changed the filesystem:\nbefore %v\nafter  %v", before, after)
	}

	// 与真实运行的计数一致
	p.DryRun = false
	realRun := mustRun(t, memTree(t, files), p)

	if dry.Final.Moved != realRun.Final.Moved ||
		dry.Final.SkippedDuplicates != realRun.Final.SkippedDuplicates ||
		dry.Final.Errors != realRun.Final.Errors {
		t.Errorf("dry run counters %+v differ from real run %+v", dry.Final, realRun.Final)
	}
	if dry.Final.Moved != 2 || dry.Final.SkippedDuplicates != 2 {
		t.Errorf("Moved/Skipped = %d/%d, want 2/2", dry.Final.Moved, dry.Final.SkippedDuplicates)
	}

	for i := range dry.Outcomes {
		if !dry.Outcomes[i].Simulated {
			t.Errorf("outcome %d should be marked simulated", i)
		}
		if dry.Outcomes[i].Kind != realRun.Outcomes[i].Kind || dry.Outcomes[i].Path != realRun.Outcomes[i].Path {
			t.Errorf("outcome %d: dry %+v, real %+v", i, dry.Outcomes[i], realRun.Outcomes[i])
		}
	}
}

func TestRun_DedupIdempotence(t *testing.T) {
	files := map[string]string{
		"/src/A/IMG_7612.jpg":  "a",
		"/src/A/IMG_8612.jpg":  "b",
		"/src/B/C/IMG_612.png": "c",
	}
	fs := memTree(t, files)
	p := Params{Source: "/src", Dest: "/dest", Suffixes: "612"}

	first := mustRun(t, fs, p)
	if first.Final.Moved != 3 {
		t.Fatalf("first run Moved = %d, want 3", first.Final.Moved)
	}

	// 把已移动的文件复制回源目录
	for path, content := range files {
		writeFile(t, fs, path, content)
	}

	second := mustRun(t, fs, p)
	if second.Final.Moved != 0 {
		t.Errorf("second run Moved = %d, want 0", second.Final.Moved)
	}
	if second.Final.SkippedDuplicates != 3 {
		t.Errorf("second run SkippedDuplicates = %d, want 3", second.Final.SkippedDuplicates)
	}
	if second.ExitCode() != 0 {
		t.Errorf("ExitCode() = %d", second.ExitCode())
	}
}

func TestRun_CollisionNaming(t *testing.T) {
	fs := memTree(t, map[string]string{
		"/dest/IMG_7612.jpg": "original",
		"/src/IMG_7612.jpg":  "first",
	})
	p := Params{Source: "/src", Dest: "/dest", Suffixes: "7612"}

	mustRun(t, fs, p)
	if got := readFile(t, fs, "/dest/IMG_7612-1.jpg"); got != "first" {
		t.Errorf("IMG_7612-1.jpg = %q", got)
	}

	writeFile(t, fs, "/src/IMG_7612.jpg", "second")
	res := mustRun(t, fs, p)
	if got := readFile(t, fs, "/dest/IMG_7612-2.jpg"); got != "second" {
		t.Errorf("IMG_7612-2.jpg = %q", got)
	}
	if res.Outcomes[0].Path != "/dest/IMG_7612-2.jpg" {
		t.Errorf("outcome path = %q", res.Outcomes[0].Path)
	}
	if got := readFile(t, fs, "/dest/IMG_7612.jpg"); got != "original" {
		t.Errorf("original must be untouched, got %q", got)
	}
}

func TestRun_DuplicateWithinRun(t *testing.T) {
	fs := memTree(t, map[string]string{
		"/src/IMG_01.jpg": "same",
		"/src/IMG_11.jpg": "same",
	})

	res := mustRun(t, fs, Params{Source: "/src", Dest: "/dest", Suffixes: "1"})

	if res.Final.Moved != 1 || res.Final.SkippedDuplicates != 1 {
		t.Errorf("Moved/Skipped = %d/%d, want 1/1", res.Final.Moved, res.Final.SkippedDuplicates)
	}
	if !exists(t, fs, "/src/IMG_11.jpg") {
		t.Error("second copy should stay in source")
	}
}

// cancelAfterFs 在第 n 次 rename 完成后取消运行
type cancelAfterFs struct {
	afero.Fs
	n       int
	renames int
	cancel  context.CancelFunc
}

func (c *cancelAfterFs) Rename(oldname, newname string) error {
	err := c.Fs.Rename(oldname, newname)
	c.renames++
	if c.renames == c.n {
		c.cancel()
	}
	return err
}

func TestRun_Cancellation(t *testing.T) {
	base := memTree(t, map[string]string{
		"/src/IMG_1.jpg": "1",
		"/src/IMG_2.jpg": "2",
		"/src/IMG_3.jpg": "3",
		"/src/IMG_4.jpg": "4",
		"/src/IMG_5.jpg": "5",
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fs := &cancelAfterFs{Fs: base, n: 2, cancel: cancel}

	pub := progress.NewPublisher()
	res, err := New(fs).Run(ctx, Params{Source: "/src", Dest: "/dest", Suffixes: "1,2,3,4,5"}, pub)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	pub.Close()

	if res.Final.Phase != progress.PhaseCancelled {
		t.Errorf("Phase = %s, want cancelled", res.Final.Phase)
	}
	if res.Final.Scanned < 2 {
		t.Errorf("Scanned = %d, want >= 2", res.Final.Scanned)
	}
	if res.Final.Moved != 2 || fs.renames != 2 {
		t.Errorf("Moved = %d, renames = %d, want 2", res.Final.Moved, fs.renames)
	}
	if res.Final.Percent >= 100 {
		t.Errorf("cancelled run reported Percent = %v", res.Final.Percent)
	}

	for _, path := range []string{"/src/IMG_3.jpg", "/src/IMG_4.jpg", "/src/IMG_5.jpg"} {
		if !exists(t, base, path) {
			t.Errorf("%s should not be moved after cancellation", path)
		}
	}

	last, ok := <-pub.C()
	if !ok || last.Phase != progress.PhaseCancelled {
		t.Errorf("final published snapshot = %+v (ok=%v)", last, ok)
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	fs := memTree(t, map[string]string{"/src/IMG_1.jpg": "1"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := New(fs).Run(ctx, Params{Source: "/src", Dest: "/dest", Suffixes: "1", Precount: true}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Final.Phase != progress.PhaseCancelled || res.Final.Scanned != 0 {
		t.Errorf("final = %+v", res.Final)
	}
	if !exists(t, fs, "/src/IMG_1.jpg") {
		t.Error("nothing should be moved")
	}
}

// crossDeviceFs 源与目标位于不同卷；failRemove 时源目录中的文件无法删除
type crossDeviceFs struct {
	afero.Fs
	failRemove bool
}

func (c *crossDeviceFs) Rename(oldname, newname string) error {
	if mover.IsTempFile(oldname) {
		return c.Fs.Rename(oldname, newname)
	}
	return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: syscall.EXDEV}
}

func (c *crossDeviceFs) Remove(name string) error {
	if c.failRemove && strings.HasPrefix(name, "/src/") {
		return &os.PathError{Op: "remove", Path: name, Err: syscall.EACCES}
	}
	return c.Fs.Remove(name)
}

func TestRun_CrossDevice(t *testing.T) {
	base := memTree(t, map[string]string{"/src/A/IMG_7612.jpg": "frame"})

	res := mustRun(t, &crossDeviceFs{Fs: base}, Params{Source: "/src", Dest: "/dest", Suffixes: "7612"})

	if res.Final.Moved != 1 || res.Final.Errors != 0 {
		t.Errorf("final = %+v", res.Final)
	}
	if got := readFile(t, base, "/dest/A/IMG_7612.jpg"); got != "frame" {
		t.Errorf("destination content = %q", got)
	}
	if exists(t, base, "/src/A/IMG_7612.jpg") {
		t.Error("source should be removed after fallback")
	}
}

func TestRun_CrossDeviceDeleteFailure(t *testing.T) {
	base := memTree(t, map[string]string{
		"/src/IMG_1.jpg":  "frame",
		"/src/IMG_11.jpg": "frame",
	})

	res := mustRun(t, &crossDeviceFs{Fs: base, failRemove: true}, Params{Source: "/src", Dest: "/dest", Suffixes: "1"})

	if res.Final.Errors != 1 || res.Final.Moved != 0 {
		t.Errorf("Errors/Moved = %d/%d, want 1/0", res.Final.Errors, res.Final.Moved)
	}
	// 第一份已经落地，第二份相同内容应判定为重复
	if res.Final.SkippedDuplicates != 1 {
		t.Errorf("SkippedDuplicates = %d, want 1", res.Final.SkippedDuplicates)
	}
	if res.ExitCode() == 0 {
		t.Error("ExitCode() should be non-zero")
	}

	first := res.Outcomes[0]
	if first.Kind != OutcomeError || first.ErrorKind != ErrorKindCrossDevice {
		t.Errorf("first outcome = %+v", first)
	}
	if !exists(t, base, "/src/IMG_1.jpg") || !exists(t, base, "/dest/IMG_1.jpg") {
		t.Error("Both copies must be kept when delete fails")
	}
}

// failOpenFs 打开指定文件时返回权限错误
type failOpenFs struct {
	afero.Fs
	path string
}

func (f *failOpenFs) Open(name string) (afero.File, error) {
	if name == f.path {
		return nil, &os.PathError{Op: "open", Path: name, Err: syscall.EACCES}
	}
	return f.Fs.Open(name)
}

func TestRun_HashErrorIsIsolated(t *testing.T) {
	base := memTree(t, map[string]string{
		"/src/IMG_1.jpg": "locked",
		"/src/IMG_2.jpg": "open",
	})

	res := mustRun(t, &failOpenFs{Fs: base, path: "/src/IMG_1.jpg"}, Params{Source: "/src", Dest: "/dest", Suffixes: "1,2"})

	if res.Final.Phase != progress.PhaseDone {
		t.Errorf("Phase = %s, want done", res.Final.Phase)
	}
	if res.Final.Errors != 1 || res.Final.Moved != 1 {
		t.Errorf("Errors/Moved = %d/%d, want 1/1", res.Final.Errors, res.Final.Moved)
	}
	if res.Outcomes[0].ErrorKind != ErrorKindIO || res.Outcomes[0].Source != "/src/IMG_1.jpg" {
		t.Errorf("error outcome = %+v", res.Outcomes[0])
	}
	if res.ExitCode() != 1 {
		t.Errorf("ExitCode() = %d, want 1", res.ExitCode())
	}
	if !exists(t, base, "/src/IMG_1.jpg") {
		t.Error("unreadable file should stay in source")
	}
}

func TestRun_SnapshotsMonotonic(t *testing.T) {
	files := map[string]string{}
	for i := 0; i < 40; i++ {
		files[fmt.Sprintf("/src/d%d/IMG_%02d.jpg", i%4, i)] = fmt.Sprintf("frame %d", i)
	}
	fs := memTree(t, files)

	pub := progress.NewPublisher()
	var seen []progress.Snapshot
	done := make(chan struct{})
	go func() {
		defer close(done)
		for s := range pub.C() {
			seen = append(seen, s)
		}
	}()

	res, err := New(fs).Run(context.Background(), Params{Source: "/src", Dest: "/dest", Suffixes: "1 3 5 7 9"}, pub)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	pub.Close()
	<-done

	if len(seen) == 0 {
		t.Fatal("Expected at least one snapshot")
	}
	for i := 1; i < len(seen); i++ {
		if seen[i].Percent < seen[i-1].Percent {
			t.Errorf("percent decreased: %v -> %v", seen[i-1].Percent, seen[i].Percent)
		}
		if seen[i].Matched > seen[i].Scanned {
			t.Errorf("matched %d > scanned %d", seen[i].Matched, seen[i].Scanned)
		}
	}
	if last := seen[len(seen)-1]; last != res.Final {
		t.Errorf("last snapshot %+v != final %+v", last, res.Final)
	}
}

func TestValidate(t *testing.T) {
	fs := memTree(t, map[string]string{
		"/src/IMG_1.jpg":   "1",
		"/file.txt":        "x",
		"/dest/keep.jpg":   "k",
		"/src/inner/a.jpg": "a",
	})
	e := New(fs)

	tests := []struct {
		name string
		p    Params
	}{
		{"empty source", Params{Dest: "/dest", Suffixes: "1"}},
		{"empty dest", Params{Source: "/src", Suffixes: "1"}},
		{"relative source", Params{Source: "src", Dest: "/dest", Suffixes: "1"}},
		{"relative dest", Params{Source: "/src", Dest: "dest", Suffixes: "1"}},
		{"same dir", Params{Source: "/src", Dest: "/src/", Suffixes: "1"}},
		{"dest inside source", Params{Source: "/src", Dest: "/src/inner", Suffixes: "1"}},
		{"missing source", Params{Source: "/nope", Dest: "/dest", Suffixes: "1"}},
		{"source is file", Params{Source: "/file.txt", Dest: "/dest", Suffixes: "1"}},
		{"missing dest", Params{Source: "/src", Dest: "/nope", Suffixes: "1"}},
		{"empty suffixes", Params{Source: "/src", Dest: "/dest", Suffixes: " ,\n "}},
		{"only non-numeric suffixes", Params{Source: "/src", Dest: "/dest", Suffixes: "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Validate(tt.p)
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfiguration", err)
			}
		})
	}

	plan, err := e.Validate(Params{Source: "/src/", Dest: "/dest", Suffixes: "7612, 1"})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if plan.Source != "/src" || plan.Suffixes.Len() != 2 {
		t.Errorf("plan = %+v", plan)
	}

	// 源目录位于目标目录下是允许的
	if _, err := e.Validate(Params{Source: "/src/inner", Dest: "/src", Suffixes: "1"}); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidate_Writability(t *testing.T) {
	base := memTree(t, map[string]string{"/src/IMG_1.jpg": "1"})
	ro := afero.NewReadOnlyFs(base)

	_, err := New(ro).Validate(Params{Source: "/src", Dest: "/dest", Suffixes: "1"})
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("Expected read-only dest to be rejected, got %v", err)
	}

	// dry-run 不做写入探测
	if _, err := New(ro).Validate(Params{Source: "/src", Dest: "/dest", Suffixes: "1", DryRun: true}); err != nil {
		t.Errorf("dry run Validate() error = %v", err)
	}

	// 探测文件不能残留
	if _, err := New(base).Validate(Params{Source: "/src", Dest: "/dest", Suffixes: "1"}); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	infos, err := afero.ReadDir(base, "/dest")
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("probe left behind: %v", infos[0].Name())
	}
}

func TestValidate_SymlinkedDirectories(t *testing.T) {
	tempDir := t.TempDir()
	fs := afero.NewOsFs()
	src := filepath.Join(tempDir, "src")
	alias := filepath.Join(tempDir, "alias")

	writeFile(t, fs, filepath.Join(src, "IMG_7612.jpg"), "frame")
	if err := fs.MkdirAll(filepath.Join(src, "Picked"), 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.Symlink(src, alias); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	before := snapshotTree(t, fs, src)

	tests := []struct {
		name string
		dest string
	}{
		{"dest is a link to source", alias},
		{"dest inside source through a link", filepath.Join(alias, "Picked")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(fs).Run(context.Background(), Params{Source: src, Dest: tt.dest, Suffixes: "7612"}, nil)
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("Run() error = %v, want ErrInvalidConfiguration", err)
			}
		})
	}

	if after := snapshotTree(t, fs, src); !reflect.DeepEqual(before, after) {
		t.Errorf("source tree changed:\nbefore %v\nafter  %v", before, after)
	}

	// 源目录经链接位于目标目录下仍然允许
	if _, err := New(fs).Validate(Params{Source: filepath.Join(alias, "Picked"), Dest: src, Suffixes: "7612"}); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

// denyDirFs 打开指定目录时返回权限错误
type denyDirFs struct {
	afero.Fs
	deny string
}

func (d *denyDirFs) Open(name string) (afero.File, error) {
	if filepath.Clean(name) == d.deny {
		return nil, &os.PathError{Op: "open", Path: name, Err: syscall.EACCES}
	}
	return d.Fs.Open(name)
}

func TestRun_UnreadableDirectory(t *testing.T) {
	base := memTree(t, map[string]string{
		"/src/A/IMG_7612.jpg": "hidden",
		"/src/B/IMG_7612.jpg": "visible",
	})

	res := mustRun(t, &denyDirFs{Fs: base, deny: "/src/A"}, Params{Source: "/src", Dest: "/dest", Suffixes: "7612"})

	final := res.Final
	if final.Phase != progress.PhaseDone {
		t.Errorf("Phase = %s, want done", final.Phase)
	}
	if final.Errors != 1 || final.Scanned != 1 || final.Moved != 1 {
		t.Errorf("Errors/Scanned/Moved = %d/%d/%d, want 1/1/1", final.Errors, final.Scanned, final.Moved)
	}
	if res.ExitCode() != 1 {
		t.Errorf("ExitCode() = %d, want 1", res.ExitCode())
	}

	var failed *Outcome
	for i := range res.Outcomes {
		if res.Outcomes[i].Kind == OutcomeError {
			failed = &res.Outcomes[i]
		}
	}
	if failed == nil || failed.Source != "/src/A" || failed.ErrorKind != ErrorKindIO {
		t.Errorf("error outcome = %+v", failed)
	}

	if got := readFile(t, base, "/dest/B/IMG_7612.jpg"); got != "visible" {
		t.Errorf("sibling directory content = %q", got)
	}
	if !exists(t, base, "/src/A/IMG_7612.jpg") {
		t.Error("file in unreadable directory must stay in place")
	}
}
