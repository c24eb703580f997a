// Package filesystem reads a repository from a local directory.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
	"github.com/avishayil/git-llm-analyzer/internal/logger"
)

// Ensure Source implements the interfaces.
var (
	_ driven.RepositorySource = (*Source)(nil)
	_ driven.WatchableSource  = (*Source)(nil)
)

// DefaultMaxFileSize is the default size above which files are skipped.
const DefaultMaxFileSize = 1 << 20

// DefaultDebounce is the default quiet period before watch events are flushed.
const DefaultDebounce = 300 * time.Millisecond

// DefaultSkipDirs are directory names never descended into.
var DefaultSkipDirs = []string{
	".git", "node_modules", "vendor", ".venv", "venv", "__pycache__",
	"dist", "build", "target", ".idea", ".vscode",
}

// Source walks a local directory tree.
type Source struct {
	root        string
	name        string
	url         string
	maxFileSize int64
	skipDirs    map[string]struct{}
	accept      func(rel string) bool
	debounce    time.Duration

	mu     sync.Mutex
	closed bool
}

// Option configures a Source.
type Option func(*Source)

// WithMaxFileSize skips files larger than n bytes. Zero or less keeps the default.
func WithMaxFileSize(n int64) Option {
	return func(s *Source) {
		if n > 0 {
			s.maxFileSize = n
		}
	}
}

// WithSkipDirs adds directory names to the skip list.
func WithSkipDirs(names ...string) Option {
	return func(s *Source) {
		for _, n := range names {
			s.skipDirs[n] = struct{}{}
		}
	}
}

// WithPathFilter reports files whose repository path accept rejects as
// unsupported without opening them.
func WithPathFilter(accept func(rel string) bool) Option {
	return func(s *Source) { s.accept = accept }
}

// WithName overrides the display name.
func WithName(name string) Option {
	return func(s *Source) { s.name = name }
}

// WithURL overrides the reported URL.
func WithURL(url string) Option {
	return func(s *Source) { s.url = url }
}

// WithDebounce sets the quiet period used by Watch.
func WithDebounce(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// New creates a source rooted at root.
func New(root string, opts ...Option) *Source {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	s := &Source{
		root:        root,
		name:        filepath.Base(root),
		url:         root,
		maxFileSize: DefaultMaxFileSize,
		skipDirs:    make(map[string]struct{}, len(DefaultSkipDirs)),
		debounce:    DefaultDebounce,
	}
	for _, d := range DefaultSkipDirs {
		s.skipDirs[d] = struct{}{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the display name, the directory's base name by default.
func (s *Source) Name() string { return s.name }

// URL returns the remote location or the local path.
func (s *Source) URL() string { return s.url }

// Root returns the absolute root directory.
func (s *Source) Root() string { return s.root }

// Validate checks that the root is an accessible directory.
func (s *Source) Validate() error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", s.root)
	}
	return nil
}

func (s *Source) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Walk streams files in lexical path order.
// Callers must drain both channels; they are closed when the walk ends.
func (s *Source) Walk(ctx context.Context) (<-chan domain.RawDocument, <-chan domain.IngestionWarning) {
	docs := make(chan domain.RawDocument, 16)
	warnings := make(chan domain.IngestionWarning, 16)

	go func() {
		defer close(docs)
		defer close(warnings)

		warn := func(w domain.IngestionWarning) bool {
			select {
			case warnings <- w:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if s.isClosed() {
			warn(domain.IngestionWarning{Path: s.root, Reason: domain.ReasonUnreadable, Err: domain.ErrSourceClosed})
			return
		}
		if err := s.Validate(); err != nil {
			warn(domain.IngestionWarning{Path: s.root, Reason: domain.ReasonUnreadable, Err: err})
			return
		}

		err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			rel := s.rel(path)
			if err != nil {
				if !warn(domain.IngestionWarning{Path: rel, Reason: domain.ReasonUnreadable, Err: err}) {
					return ctx.Err()
				}
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if path != s.root && s.skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type()&fs.ModeSymlink != 0 || !d.Type().IsRegular() {
				logger.Debug("skipping non-regular file %s", rel)
				return nil
			}
			if s.accept != nil && !s.accept(rel) {
				if !warn(domain.IngestionWarning{Path: rel, Reason: domain.ReasonUnsupported}) {
					return ctx.Err()
				}
				return nil
			}

			raw, w := s.read(path, rel)
			if w != nil {
				if !warn(*w) {
					return ctx.Err()
				}
				return nil
			}
			select {
			case docs <- *raw:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("walk %s: %v", s.root, err)
		}
	}()

	return docs, warnings
}

// read loads one file or explains why it was skipped.
func (s *Source) read(path, rel string) (*domain.RawDocument, *domain.IngestionWarning) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &domain.IngestionWarning{Path: rel, Reason: domain.ReasonUnreadable, Err: err}
	}
	if info.Size() > s.maxFileSize {
		return nil, &domain.IngestionWarning{
			Path:   rel,
			Reason: domain.ReasonTooLarge,
			Err:    fmt.Errorf("%d bytes exceeds limit of %d", info.Size(), s.maxFileSize),
		}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.IngestionWarning{Path: rel, Reason: domain.ReasonUnreadable, Err: err}
	}
	return &domain.RawDocument{Path: rel, Content: content, Size: info.Size()}, nil
}

func (s *Source) skipDir(name string) bool {
	_, ok := s.skipDirs[name]
	return ok
}

// rel converts an absolute path into a slash-separated repository path.
func (s *Source) rel(path string) string {
	r, err := filepath.Rel(s.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(r)
}

// Close marks the source closed. It is idempotent.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Watch emits debounced change events for files under the root until ctx is
// cancelled. Directories created after the call are watched as well.
func (s *Source) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	if s.isClosed() {
		return nil, fmt.Errorf("watch %s: %w", s.root, domain.ErrSourceClosed)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := s.addTree(watcher, s.root); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	changes := make(chan domain.RawDocumentChange, 16)
	go s.watchLoop(ctx, watcher, changes)
	return changes, nil
}

// addTree watches dir and every non-skipped directory below it.
func (s *Source) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != s.root && s.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (s *Source) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, out chan<- domain.RawDocumentChange) {
	defer close(out)
	defer watcher.Close()

	pending := make(map[string]domain.RawDocumentChange)
	timer := time.NewTimer(s.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if change := s.handleFsEvent(watcher, event); change != nil {
				pending[change.Path] = mergeChange(pending[change.Path], *change)
				timer.Reset(s.debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch %s: %v", s.root, err)

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			for _, p := range paths {
				select {
				case out <- pending[p]:
				case <-ctx.Done():
					return
				}
			}
			clear(pending)
		}
	}
}

// mergeChange folds a new event into a pending one for the same path.
// A create followed by writes stays a create.
func mergeChange(prev, next domain.RawDocumentChange) domain.RawDocumentChange {
	if prev.Path == "" {
		return next
	}
	if prev.Type == domain.ChangeCreated && next.Type == domain.ChangeUpdated {
		return prev
	}
	return next
}

// handleFsEvent converts an fsnotify event into a change, or nil when the
// event is irrelevant. New directories are added to the watcher.
func (s *Source) handleFsEvent(watcher *fsnotify.Watcher, event fsnotify.Event) *domain.RawDocumentChange {
	rel := s.rel(event.Name)

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &domain.RawDocumentChange{Type: domain.ChangeDeleted, Path: rel}

	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if event.Has(fsnotify.Create) && watcher != nil && !s.skipDir(info.Name()) {
				if err := s.addTree(watcher, event.Name); err != nil {
					logger.Warn("%v", err)
				}
			}
			return nil
		}
		if s.accept != nil && !s.accept(rel) {
			return nil
		}
		if event.Has(fsnotify.Create) {
			return &domain.RawDocumentChange{Type: domain.ChangeCreated, Path: rel}
		}
		return &domain.RawDocumentChange{Type: domain.ChangeUpdated, Path: rel}

	default:
		return nil
	}
}
