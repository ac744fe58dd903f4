package site

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"

	"pagesbot/internal/task"
)

const testPagesURL = "https://octocat.github.io/site/"

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "app_files")
	b := NewBuilder(dir, testPagesURL, "octocat", slog.New(slog.NewTextHandler(io.Discard, nil)))
	b.now = func() time.Time { return time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC) }
	return b
}

func newRequest(brief string, attachments ...task.Attachment) *task.Request {
	if attachments == nil {
		attachments = []task.Attachment{}
	}
	return &task.Request{
		Task:        "task1",
		Round:       1,
		Brief:       brief,
		Attachments: attachments,
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestBuild_DecodesDataURIAttachment(t *testing.T) {
	b := newTestBuilder(t)
	req := newRequest("", task.Attachment{Name: "a.txt", URL: "data:text/plain;base64,aGVsbG8="})

	if err := b.Build(req); err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := readFile(t, filepath.Join(b.Dir(), "a.txt")); got != "hello" {
		t.Errorf("a.txt = %q, want %q", got, "hello")
	}
	want := []string{LicenseFile, ReadmeFile, "a.txt", IndexFile}
	sort.Strings(want)
	if got := listDir(t, b.Dir()); !reflect.DeepEqual(got, want) {
		t.Errorf("workspace = %v, want %v", got, want)
	}
}

func TestBuild_UnpaddedPayload(t *testing.T) {
	b := newTestBuilder(t)
	req := newRequest("", task.Attachment{Name: "a.txt", URL: "data:text/plain;base64,aGVsbG8"})

	if err := b.Build(req); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := readFile(t, filepath.Join(b.Dir(), "a.txt")); got != "hello" {
		t.Errorf("a.txt = %q", got)
	}
}

func TestBuild_SkipsNonDataURIButListsIt(t *testing.T) {
	b := newTestBuilder(t)
	req := newRequest("Demo",
		task.Attachment{Name: "remote.png", URL: "https://example.com/remote.png"},
		task.Attachment{Name: "a.txt", URL: "data:text/plain;base64,aGVsbG8="},
	)

	if err := b.Build(req); err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, err := os.Stat(filepath.Join(b.Dir(), "remote.png")); !os.IsNotExist(err) {
		t.Errorf("remote.png should not be written, stat err = %v", err)
	}
	index := readFile(t, filepath.Join(b.Dir(), IndexFile))
	if !strings.Contains(index, "Attachments saved: remote.png, a.txt</p>") {
		t.Errorf("index does not list all attachments:\n%s", index)
	}
}

func TestBuild_IndexWithBriefAndNoAttachments(t *testing.T) {
	b := newTestBuilder(t)

	if err := b.Build(newRequest("Hello")); err != nil {
		t.Fatalf("Build: %v", err)
	}

	index := readFile(t, filepath.Join(b.Dir(), IndexFile))
	if !strings.Contains(index, "<h1>Hello</h1>") {
		t.Errorf("index missing brief:\n%s", index)
	}
	if !strings.Contains(index, "Attachments saved: </p>") {
		t.Errorf("index attachment listing should be empty:\n%s", index)
	}
	if !strings.Contains(index, "<title>Task Round 1</title>") {
		t.Errorf("index missing round title:\n%s", index)
	}
}

func TestBuild_EscapesMarkupInBrief(t *testing.T) {
	b := newTestBuilder(t)

	if err := b.Build(newRequest("<script>alert(1)</script>")); err != nil {
		t.Fatalf("Build: %v", err)
	}

	index := readFile(t, filepath.Join(b.Dir(), IndexFile))
	if strings.Contains(index, "<script>") {
		t.Errorf("brief markup should be escaped:\n%s", index)
	}
}

func TestBuild_SecondRunReplacesFirst(t *testing.T) {
	b := newTestBuilder(t)

	first := newRequest("First", task.Attachment{Name: "old.txt", URL: "data:text/plain;base64,b2xk"})
	if err := b.Build(first); err != nil {
		t.Fatalf("first Build: %v", err)
	}
	if err := b.Build(newRequest("Second")); err != nil {
		t.Fatalf("second Build: %v", err)
	}

	want := []string{LicenseFile, ReadmeFile, IndexFile}
	sort.Strings(want)
	if got := listDir(t, b.Dir()); !reflect.DeepEqual(got, want) {
		t.Errorf("workspace = %v, want %v", got, want)
	}
	index := readFile(t, filepath.Join(b.Dir(), IndexFile))
	if strings.Contains(index, "First") || !strings.Contains(index, "Second") {
		t.Errorf("index should only hold the second brief:\n%s", index)
	}
}

func TestBuild_RejectsUnsafeNames(t *testing.T) {
	b := newTestBuilder(t)
	parent := filepath.Dir(b.Dir())
	payload := "data:text/plain;base64,aGVsbG8="

	req := newRequest("",
		task.Attachment{Name: "../escape.txt", URL: payload},
		task.Attachment{Name: "nested/file.txt", URL: payload},
		task.Attachment{Name: "/etc/passwd-copy", URL: payload},
		task.Attachment{Name: "..", URL: payload},
	)
	if err := b.Build(req); err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, err := os.Stat(filepath.Join(parent, "escape.txt")); !os.IsNotExist(err) {
		t.Errorf("attachment escaped the workspace, stat err = %v", err)
	}
	want := []string{LicenseFile, ReadmeFile, IndexFile}
	sort.Strings(want)
	if got := listDir(t, b.Dir()); !reflect.DeepEqual(got, want) {
		t.Errorf("workspace = %v, want %v", got, want)
	}
	index := readFile(t, filepath.Join(b.Dir(), IndexFile))
	if !strings.Contains(index, "../escape.txt") {
		t.Errorf("rejected name should still be listed:\n%s", index)
	}
}

func TestBuild_MalformedBase64(t *testing.T) {
	b := newTestBuilder(t)
	req := newRequest("", task.Attachment{Name: "bad.bin", URL: "data:application/octet-stream;base64,@@@not-base64@@@"})

	err := b.Build(req)
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestBuild_DataURIWithoutComma(t *testing.T) {
	b := newTestBuilder(t)
	req := newRequest("", task.Attachment{Name: "x", URL: "data:text/plain;base64"})

	if err := b.Build(req); !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestBuild_ReadmeAndLicense(t *testing.T) {
	b := newTestBuilder(t)
	req := newRequest("")
	req.Task = "captcha-solver"
	req.Round = 2

	if err := b.Build(req); err != nil {
		t.Fatalf("Build: %v", err)
	}

	readme := readFile(t, filepath.Join(b.Dir(), ReadmeFile))
	for _, want := range []string{"# captcha-solver - Round 2", "`captcha-solver` in round 2", testPagesURL} {
		if !strings.Contains(readme, want) {
			t.Errorf("README missing %q:\n%s", want, readme)
		}
	}

	license := readFile(t, filepath.Join(b.Dir(), LicenseFile))
	if !strings.HasPrefix(license, "MIT License\n") || !strings.Contains(license, "Copyright (c) 2025 octocat") {
		t.Errorf("unexpected LICENSE:\n%s", license)
	}
}
