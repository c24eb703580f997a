// Package connectors holds the repository sources.
//
//   - filesystem: a local directory, optionally watched for changes
//   - gitrepo: a git URL cloned into a temporary directory
//   - github: a GitHub tarball snapshot fetched through the REST API
//
// Each source implements driven.RepositorySource and streams raw files to
// the document loader.
package connectors
