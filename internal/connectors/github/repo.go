package github

import (
	"fmt"
	"net/url"
	"strings"
)

// SchemePrefix marks a GitHub reference on the command line.
const SchemePrefix = "github:"

// RepoSpec identifies a repository snapshot.
type RepoSpec struct {
	Owner string
	Repo  string
	// Ref is a branch, tag or commit. Empty means the default branch.
	Ref string
}

// FullName returns "owner/repo".
func (s RepoSpec) FullName() string {
	return s.Owner + "/" + s.Repo
}

// HTMLURL returns the github.com page of the repository.
func (s RepoSpec) HTMLURL() string {
	return "https://github.com/" + s.FullName()
}

// String returns the reference in github:owner/repo[@ref] form.
func (s RepoSpec) String() string {
	if s.Ref == "" {
		return SchemePrefix + s.FullName()
	}
	return SchemePrefix + s.FullName() + "@" + s.Ref
}

// IsRepoSpec reports whether ref should be handled by this package.
func IsRepoSpec(ref string) bool {
	return strings.HasPrefix(ref, SchemePrefix)
}

// ParseRepoSpec parses "github:owner/repo[@ref]".
// A github.com page URL is accepted after the prefix as well.
func ParseRepoSpec(ref string) (RepoSpec, error) {
	if !IsRepoSpec(ref) {
		return RepoSpec{}, fmt.Errorf("%w: %q must start with %q", ErrInvalidRepoSpec, ref, SchemePrefix)
	}
	rest := strings.TrimPrefix(ref, SchemePrefix)

	var spec RepoSpec
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		spec.Ref = rest[at+1:]
		rest = rest[:at]
		if spec.Ref == "" {
			return RepoSpec{}, fmt.Errorf("%w: empty ref in %q", ErrInvalidRepoSpec, ref)
		}
	}

	if u, err := url.Parse(rest); err == nil && u.Host != "" {
		rest = u.Path
	}
	rest = strings.TrimSuffix(strings.Trim(rest, "/"), ".git")

	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepoSpec{}, fmt.Errorf("%w: %q is not owner/repo", ErrInvalidRepoSpec, ref)
	}
	spec.Owner, spec.Repo = parts[0], parts[1]
	return spec, nil
}
