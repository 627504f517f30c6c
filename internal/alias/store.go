package alias

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/qwk-labs/qwk/internal/logging"
	"github.com/qwk-labs/qwk/internal/platform"
)

// File names inside the store directory.
const (
	FileName     = "aliases.yaml"
	BackupPrefix = "aliases_backup_"
	BackupExt    = ".yaml"

	// backupStamp sorts lexically in chronological order.
	backupStamp = "20060102_150405"

	dirPerm  os.FileMode = 0700
	filePerm os.FileMode = 0600

	maxBackupAttempts = 100
)

// Entry is one alias as shown by List.
type Entry struct {
	Name    string `json:"name"`
	Prompt  string `json:"prompt"`
	Preview string `json:"-"`
}

// Store is the alias store rooted at a directory. It holds no alias data in
// memory; every call reads the file.
type Store struct {
	dir          string
	path         string
	previewWidth int
	log          *logging.Logger
	now          func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for store diagnostics.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l.Sub("alias")
		}
	}
}

// WithPreviewWidth sets the List preview length. Values <= 0 keep
// DefaultPreviewWidth.
func WithPreviewWidth(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.previewWidth = n
		}
	}
}

// New returns a store for dir/aliases.yaml. Nothing is read or created until
// the first operation.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:          dir,
		path:         filepath.Join(dir, FileName),
		previewWidth: DefaultPreviewWidth,
		log:          logging.Nop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the store file path.
func (s *Store) Path() string { return s.path }

// Dir returns the directory holding the store and its backups.
func (s *Store) Dir() string { return s.dir }

// Load reads every alias. A missing file is an empty store.
func (s *Store) Load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Debug().Str("path", s.path).Msg("alias store not found, starting empty")
			return map[string]string{}, nil
		}
		return nil, &StoreError{Op: "read", Path: s.path, Err: err}
	}

	aliases, err := decode(data)
	if err != nil {
		op := "parse"
		var ve *ValidationError
		if errors.As(err, &ve) || errors.Is(err, ErrUnsupportedFormat) {
			op = "validate"
		}
		return nil, &StoreError{Op: op, Path: s.path, Err: err}
	}

	s.log.Debug().Str("path", s.path).Int("aliases", len(aliases)).Msg("loaded alias store")
	return aliases, nil
}

// Get returns the prompt stored for name.
func (s *Store) Get(name string) (string, error) {
	aliases, err := s.Load()
	if err != nil {
		return "", err
	}
	prompt, ok := aliases[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return prompt, nil
}

// Set stores prompt under name, replacing any previous prompt. The prompt is
// kept byte-for-byte; it only has to contain something besides whitespace.
func (s *Store) Set(name, prompt string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("%w: alias %q", ErrEmptyPrompt, name)
	}

	aliases, err := s.Load()
	if err != nil {
		return err
	}
	_, existed := aliases[name]
	aliases[name] = prompt

	if err := s.save(aliases); err != nil {
		return err
	}
	s.log.Debug().Str("name", name).Bool("overwritten", existed).Msg("alias saved")
	return nil
}

// Remove deletes name. The file is left untouched when name does not exist.
func (s *Store) Remove(name string) error {
	aliases, err := s.Load()
	if err != nil {
		return err
	}
	if _, ok := aliases[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(aliases, name)

	if err := s.save(aliases); err != nil {
		return err
	}
	s.log.Debug().Str("name", name).Msg("alias removed")
	return nil
}

// List returns every alias sorted by name, each with a one-line preview.
func (s *Store) List() ([]Entry, error) {
	aliases, err := s.Load()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(aliases))
	for _, name := range sortedNames(aliases) {
		prompt := aliases[name]
		entries = append(entries, Entry{
			Name:    name,
			Prompt:  prompt,
			Preview: Preview(prompt, s.previewWidth),
		})
	}
	return entries, nil
}

// Names returns the current alias names in sorted order.
func (s *Store) Names() ([]string, error) {
	aliases, err := s.Load()
	if err != nil {
		return nil, err
	}
	return sortedNames(aliases), nil
}

// Reset copies the store file to a timestamped backup, then clears the store.
// It returns the backup path, or "" when there was no store file to back up.
// The store is not cleared if the backup fails.
func (s *Store) Reset() (string, error) {
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			s.log.Debug().Str("path", s.path).Msg("nothing to reset")
			return "", nil
		}
		return "", &StoreError{Op: "read", Path: s.path, Err: err}
	}

	backupPath, err := s.backup()
	if err != nil {
		return "", err
	}
	s.log.Debug().Str("backup", backupPath).Msg("alias store backed up")

	if err := s.save(map[string]string{}); err != nil {
		return backupPath, err
	}
	return backupPath, nil
}

// Backups lists existing backup files, oldest first.
func (s *Store) Backups() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, BackupPrefix+"*"+BackupExt))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// backup copies the store file to aliases_backup_<UTC stamp>.yaml, adding a
// _N suffix when a backup from the same second already exists.
func (s *Store) backup() (string, error) {
	base := BackupPrefix + s.now().UTC().Format(backupStamp)
	for i := 0; i < maxBackupAttempts; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s_%d", base, i)
		}
		p := filepath.Join(s.dir, name+BackupExt)

		err := platform.CopyFileExclusive(s.path, p, filePerm)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", &StoreError{Op: "backup", Path: p, Err: err}
		}
	}
	return "", &StoreError{
		Op:   "backup",
		Path: filepath.Join(s.dir, base+BackupExt),
		Err:  fmt.Errorf("%d backups already exist for this second", maxBackupAttempts),
	}
}

// save writes aliases atomically, creating the directory if needed. encode
// reads the bytes back first, so a file the store cannot load is never
// renamed into place.
func (s *Store) save(aliases map[string]string) error {
	data, err := encode(aliases)
	if err != nil {
		return &StoreError{Op: "write", Path: s.path, Err: err}
	}
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return &StoreError{Op: "write", Path: s.dir, Err: err}
	}
	if err := platform.WriteFileAtomic(s.path, data, filePerm); err != nil {
		return &StoreError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

func sortedNames(aliases map[string]string) []string {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
