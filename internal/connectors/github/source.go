package github

import (
	"context"
	"fmt"
	"os"

	"github.com/avishayil/git-llm-analyzer/internal/connectors/filesystem"
	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
	"github.com/avishayil/git-llm-analyzer/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.RepositorySource = (*Source)(nil)

// Source is a downloaded repository snapshot.
type Source struct {
	spec    RepoSpec
	htmlURL string
	dir     string
	files   *filesystem.Source
}

// Open resolves spec, downloads its tarball and extracts it into a
// temporary directory. The directory is removed by Close.
func Open(ctx context.Context, client *Client, spec RepoSpec, opts ...filesystem.Option) (*Source, error) {
	repo, err := client.GetRepository(ctx, spec.Owner, spec.Repo)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrRepoNotFound, spec.FullName())
		}
		return nil, err
	}

	ref := spec.Ref
	if ref == "" {
		ref = repo.GetDefaultBranch()
	}
	htmlURL := repo.GetHTMLURL()
	if htmlURL == "" {
		htmlURL = spec.HTMLURL()
	}

	link, err := client.ArchiveLink(ctx, spec.Owner, spec.Repo, ref)
	if err != nil {
		return nil, err
	}

	dlCtx, cancel := context.WithTimeout(ctx, DownloadTimeout)
	defer cancel()
	body, err := client.Download(dlCtx, link)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	dir, err := os.MkdirTemp("", "git-llm-analyzer-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	logger.Debug("extracting %s@%s into %s", spec.FullName(), ref, dir)
	if err := ExtractTarball(body, dir); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("extract %s: %w", spec.FullName(), err)
	}

	spec.Ref = ref
	opts = append(opts, filesystem.WithName(spec.Repo), filesystem.WithURL(htmlURL))
	return &Source{
		spec:    spec,
		htmlURL: htmlURL,
		dir:     dir,
		files:   filesystem.New(dir, opts...),
	}, nil
}

// Spec returns the resolved reference, with Ref filled in.
func (s *Source) Spec() RepoSpec { return s.spec }

// Name returns the repository name.
func (s *Source) Name() string { return s.files.Name() }

// URL returns the repository page.
func (s *Source) URL() string { return s.htmlURL }

// Root returns the extraction directory.
func (s *Source) Root() string { return s.dir }

// Walk streams the extracted files.
func (s *Source) Walk(ctx context.Context) (<-chan domain.RawDocument, <-chan domain.IngestionWarning) {
	return s.files.Walk(ctx)
}

// Close removes the extracted snapshot.
func (s *Source) Close() error {
	_ = s.files.Close()
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("remove %s: %w", s.dir, err)
	}
	return nil
}
