package hashstore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.trai.ch/watchdag/internal/core/domain"
	"go.trai.ch/zerr"
)

// File persists task digests as line-oriented text (`<task> <hex_digest>\n`)
// at <root>/.watchdag/hashes. Reads and writes replace the whole file to
// keep atomicity simple; the .watchdag directory is created on first save.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile returns a File-backed HashStore rooted at root.
func NewFile(root string) *File {
	return &File{path: filepath.Join(root, ".watchdag", "hashes")}
}

func (f *File) Load(task string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.readAll()
	if err != nil {
		return "", false, err
	}

	digest, ok := entries[task]
	return digest, ok, nil
}

func (f *File) Save(task string, digest string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.readAll()
	if err != nil {
		return err
	}

	entries[task] = digest
	return f.writeAll(entries)
}

func (f *File) Prune(activeTasks []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.readAll()
	if err != nil {
		return err
	}

	active := make(map[string]struct{}, len(activeTasks))
	for _, t := range activeTasks {
		active[t] = struct{}{}
	}

	for task := range entries {
		if _, ok := active[task]; !ok {
			delete(entries, task)
		}
	}

	return f.writeAll(entries)
}

func (f *File) readAll() (map[string]string, error) {
	entries := make(map[string]string)

	file, err := os.Open(f.path) //nolint:gosec // path is built from the configured root
	if err != nil {
		if os.IsNotExist(err) {
			return entries, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrHashStoreReadFailed.Error()), "path", f.path)
	}
	defer file.Close() //nolint:errcheck

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		task, digest, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		entries[task] = digest
	}
	if err := scanner.Err(); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrHashStoreReadFailed.Error()), "path", f.path)
	}

	return entries, nil
}

func (f *File) writeAll(entries map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrHashStoreWriteFailed.Error()), "path", f.path)
	}

	var b strings.Builder
	for task, digest := range entries {
		b.WriteString(task)
		b.WriteByte(' ')
		b.WriteString(digest)
		b.WriteByte('\n')
	}

	if err := os.WriteFile(f.path, []byte(b.String()), 0o644); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrHashStoreWriteFailed.Error()), "path", f.path)
	}

	return nil
}
