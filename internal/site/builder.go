package site

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pagesbot/internal/task"
)

var ErrStorage = errors.New("workspace storage failed")

// Builder regenerates the static site in a single scratch directory.
// It is not safe for concurrent use; callers serialize Build.
type Builder struct {
	dir          string
	pagesURL     string
	licenseOwner string
	now          func() time.Time
	log          *slog.Logger
}

func NewBuilder(dir, pagesURL, licenseOwner string, log *slog.Logger) *Builder {
	return &Builder{
		dir:          dir,
		pagesURL:     pagesURL,
		licenseOwner: licenseOwner,
		now:          time.Now,
		log:          log,
	}
}

func (b *Builder) Dir() string {
	return b.dir
}

func (b *Builder) Build(req *task.Request) error {
	if err := b.reset(); err != nil {
		return err
	}
	if err := b.saveAttachments(req.Attachments); err != nil {
		return err
	}

	index := indexData{
		Round:       req.Round,
		Brief:       req.Brief,
		Attachments: strings.Join(req.AttachmentNames(), ", "),
	}
	if err := b.render(IndexFile, indexTmpl, index); err != nil {
		return err
	}

	readme := readmeData{Task: req.Task, Round: req.Round, PagesURL: b.pagesURL}
	if err := b.render(ReadmeFile, readmeTmpl, readme); err != nil {
		return err
	}

	license := licenseData{Year: b.now().Year(), Owner: b.licenseOwner}
	if err := b.render(LicenseFile, licenseTmpl, license); err != nil {
		return err
	}

	b.log.Debug("workspace built", "dir", b.dir, "attachments", len(req.Attachments))
	return nil
}

func (b *Builder) reset() error {
	if err := os.RemoveAll(b.dir); err != nil {
		if !errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: remove %s: %v", ErrStorage, b.dir, err)
		}
		// Locked files stay behind; the rest of the build overwrites what it can.
		b.log.Warn("workspace only partially removed", "dir", b.dir, "err", err)
	}
	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrStorage, b.dir, err)
	}
	return nil
}

func (b *Builder) saveAttachments(attachments []task.Attachment) error {
	for _, a := range attachments {
		if a.Name == "" || !isDataURI(a.URL) {
			b.log.Debug("skipping attachment", "name", a.Name)
			continue
		}
		if !isSafeName(a.Name) {
			b.log.Warn("rejecting attachment with unsafe name", "name", a.Name)
			continue
		}

		content, err := decodeDataURI(a.URL)
		if err != nil {
			return fmt.Errorf("%w: decode attachment %q: %v", ErrStorage, a.Name, err)
		}
		if err := b.write(a.Name, content); err != nil {
			return err
		}
	}
	return nil
}

type executor interface {
	Execute(w io.Writer, data any) error
}

func (b *Builder) render(name string, tmpl executor, data any) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("%w: render %s: %v", ErrStorage, name, err)
	}
	return b.write(name, buf.Bytes())
}

func (b *Builder) write(name string, content []byte) error {
	path := filepath.Join(b.dir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrStorage, path, err)
	}
	return nil
}

// isSafeName accepts only a single path element that stays inside the
// workspace.
func isSafeName(name string) bool {
	if !filepath.IsLocal(name) || strings.ContainsAny(name, `/\`) {
		return false
	}
	return name != "." && name != ".."
}
