// Package github reads a repository snapshot from GitHub.
//
// The repository is resolved through the REST API, its tarball for the
// requested ref (or the default branch) is downloaded and extracted into a
// temporary directory, and the files are then walked like a local checkout.
//
// # Authentication
//
// A personal access token is optional. Without one the unauthenticated
// limit of 60 requests per hour applies, which is enough for the two calls a
// snapshot needs. Private repositories require a token with 'repo' scope.
//
// # Rate Limiting
//
// Requests go through a RateLimiter that combines proactive throttling with
// the X-RateLimit-* headers GitHub returns.
package github
