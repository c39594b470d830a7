package store

import (
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/solewatch/solewatch/internal/core/domain"
)

// VerifyLine vets one cleaned line; returning false drops it. Hooks log
// their own reasons.
type VerifyLine func(line string) bool

// TextFile is a line-oriented store. Every load and save runs the same
// pipeline: trim, drop blanks and # comments, verify, then dedupe with the
// first occurrence winning. A missing file reads as empty.
type TextFile struct {
	fs     afero.Fs
	path   string
	verify VerifyLine
	mu     sync.Mutex
}

func OpenTextFile(fs afero.Fs, path string, verify VerifyLine) *TextFile {
	return &TextFile{fs: fs, path: path, verify: verify}
}

func (t *TextFile) Path() string {
	return t.path
}

func (t *TextFile) LoadAll() ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.loadAll()
}

func (t *TextFile) SaveAll(lines []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.saveAll(lines)
}

// Insert appends a line unless an equal line is already stored.
func (t *TextFile) Insert(line string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	lines, err := t.loadAll()
	if err != nil {
		return err
	}

	for _, existing := range lines {
		if existing == line {
			return nil
		}
	}

	return t.saveAll(append(lines, line))
}

func (t *TextFile) loadAll() ([]string, error) {
	exists, err := afero.Exists(t.fs, t.path)
	if err != nil {
		return nil, domain.NewStorageError("load", t.path, err)
	}

	if !exists {
		return []string{}, nil
	}

	data, err := afero.ReadFile(t.fs, t.path)
	if err != nil {
		return nil, domain.NewStorageError("load", t.path, err)
	}

	return t.pipeline(strings.Split(string(data), "\n")), nil
}

func (t *TextFile) saveAll(lines []string) error {
	cleaned := t.pipeline(lines)

	var b strings.Builder
	for _, line := range cleaned {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	tmp := t.path + ".tmp"
	if err := afero.WriteFile(t.fs, tmp, []byte(b.String()), 0o644); err != nil {
		return domain.NewStorageError("save", t.path, err)
	}

	if err := t.fs.Rename(tmp, t.path); err != nil {
		return domain.NewStorageError("save", t.path, err)
	}

	return nil
}

func (t *TextFile) pipeline(raw []string) []string {
	cleaned := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for _, line := range raw {
		line = strings.TrimSpace(line)

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if t.verify != nil && !t.verify(line) {
			continue
		}

		if _, dup := seen[line]; dup {
			continue
		}

		seen[line] = struct{}{}
		cleaned = append(cleaned, line)
	}

	return cleaned
}
