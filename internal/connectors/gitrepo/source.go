// Package gitrepo clones a git repository and reads it as a local directory.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/avishayil/git-llm-analyzer/internal/connectors/filesystem"
	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
	"github.com/avishayil/git-llm-analyzer/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.RepositorySource = (*Source)(nil)

// ErrCloneFailed wraps every clone failure.
var ErrCloneFailed = errors.New("git: clone failed")

// Source is a cloned working tree in a temporary directory.
type Source struct {
	url   string
	dir   string
	files *filesystem.Source
}

// Options configures a clone.
type Options struct {
	// Ref is a branch name or a full reference. Empty clones HEAD.
	Ref string

	// Depth limits history. Zero clones everything.
	Depth int

	// Token authenticates HTTPS clones.
	Token string

	// Files configures the walk over the working tree.
	Files []filesystem.Option
}

// IsCloneURL reports whether ref looks like something git can clone.
func IsCloneURL(ref string) bool {
	for _, p := range []string{"https://", "http://", "ssh://", "git://", "git@", "file://"} {
		if strings.HasPrefix(ref, p) {
			return true
		}
	}
	return false
}

// Clone clones url into a temporary directory. The directory is removed by Close.
func Clone(ctx context.Context, url string, opts Options) (*Source, error) {
	dir, err := os.MkdirTemp("", "git-llm-analyzer-clone-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	cloneOpts := &git.CloneOptions{
		URL:          url,
		Depth:        opts.Depth,
		SingleBranch: opts.Ref != "",
		Tags:         git.NoTags,
	}
	if opts.Ref != "" {
		cloneOpts.ReferenceName = referenceName(opts.Ref)
	}
	if opts.Token != "" && strings.HasPrefix(url, "https://") {
		cloneOpts.Auth = &githttp.BasicAuth{Username: "x-access-token", Password: opts.Token}
	}

	logger.Debug("cloning %s into %s", url, dir)
	if _, err := git.PlainCloneContext(ctx, dir, false, cloneOpts); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: %s: %v", ErrCloneFailed, url, err)
	}

	files := append([]filesystem.Option{}, opts.Files...)
	files = append(files, filesystem.WithName(RepoName(url)), filesystem.WithURL(url))
	return &Source{url: url, dir: dir, files: filesystem.New(dir, files...)}, nil
}

func referenceName(ref string) plumbing.ReferenceName {
	if strings.HasPrefix(ref, "refs/") {
		return plumbing.ReferenceName(ref)
	}
	return plumbing.NewBranchReferenceName(ref)
}

// RepoName returns the last path element of a clone URL without ".git".
func RepoName(url string) string {
	url = strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	if i := strings.LastIndexAny(url, "/:"); i >= 0 {
		url = url[i+1:]
	}
	return path.Base(url)
}

// Name returns the repository name.
func (s *Source) Name() string { return s.files.Name() }

// URL returns the clone URL.
func (s *Source) URL() string { return s.url }

// Root returns the working tree directory.
func (s *Source) Root() string { return s.dir }

// Walk streams the working tree files. The .git directory is skipped.
func (s *Source) Walk(ctx context.Context) (<-chan domain.RawDocument, <-chan domain.IngestionWarning) {
	return s.files.Walk(ctx)
}

// Close removes the clone.
func (s *Source) Close() error {
	_ = s.files.Close()
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("remove %s: %w", s.dir, err)
	}
	return nil
}

// Describe returns the origin remote URL and current branch of a local
// checkout. Both are empty when dir is not a git repository.
func Describe(dir string) (remoteURL, branch string) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", ""
	}

	if remote, err := repo.Remote("origin"); err == nil {
		if urls := remote.Config().URLs; len(urls) > 0 {
			remoteURL = urls[0]
		}
	}
	if head, err := repo.Head(); err == nil && head.Name().IsBranch() {
		branch = head.Name().Short()
	}
	return remoteURL, branch
}
