package normalisers

import (
	"bytes"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/h2non/filetype"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
)

// SniffLen is how many leading bytes are inspected for binary content.
const SniffLen = 8 << 10

// kindsByExt maps lower-cased extensions (with the dot) to kinds.
// Dotfiles such as .gitignore have the whole name as extension.
var kindsByExt = map[string]domain.DocumentKind{
	// prose and configuration
	".txt":          domain.KindText,
	".md":           domain.KindText,
	".markdown":     domain.KindText,
	".rst":          domain.KindText,
	".html":         domain.KindText,
	".htm":          domain.KindText,
	".xml":          domain.KindText,
	".json":         domain.KindText,
	".yaml":         domain.KindText,
	".yml":          domain.KindText,
	".ini":          domain.KindText,
	".toml":         domain.KindText,
	".cfg":          domain.KindText,
	".conf":         domain.KindText,
	".mod":          domain.KindText,
	".gitignore":    domain.KindText,
	".dockerignore": domain.KindText,
	".editorconfig": domain.KindText,

	// source code
	".py":    domain.KindCode,
	".js":    domain.KindCode,
	".jsx":   domain.KindCode,
	".ts":    domain.KindCode,
	".tsx":   domain.KindCode,
	".java":  domain.KindCode,
	".c":     domain.KindCode,
	".h":     domain.KindCode,
	".cpp":   domain.KindCode,
	".hpp":   domain.KindCode,
	".cs":    domain.KindCode,
	".go":    domain.KindCode,
	".rb":    domain.KindCode,
	".php":   domain.KindCode,
	".scala": domain.KindCode,
	".rs":    domain.KindCode,
	".kt":    domain.KindCode,
	".swift": domain.KindCode,
	".sh":    domain.KindCode,
	".bash":  domain.KindCode,
	".css":   domain.KindCode,
	".scss":  domain.KindCode,
	".sql":   domain.KindCode,
	".proto": domain.KindCode,
	".tf":    domain.KindCode,

	".ipynb": domain.KindNotebook,
}

// kindsByName covers well-known files without an extension.
var kindsByName = map[string]domain.DocumentKind{
	"Makefile":   domain.KindCode,
	"Dockerfile": domain.KindCode,
}

// KindForPath returns the kind implied by a slash-separated path.
func KindForPath(p string) (domain.DocumentKind, bool) {
	base := path.Base(p)
	if kind, ok := kindsByName[base]; ok {
		return kind, true
	}
	kind, ok := kindsByExt[strings.ToLower(path.Ext(base))]
	return kind, ok
}

// SupportedPath reports whether a path has an extension or name that some
// kind covers. Sources use it to skip files before reading them.
func SupportedPath(p string) bool {
	_, ok := KindForPath(p)
	return ok
}

// IsBinary reports whether the leading bytes of a file look binary.
// A known binary signature, a NUL byte or invalid UTF-8 all count.
func IsBinary(head []byte) bool {
	if len(head) > SniffLen {
		head = head[:SniffLen]
	}
	if len(head) == 0 {
		return false
	}
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		return true
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return true
	}
	return !validUTF8Prefix(head)
}

// validUTF8Prefix is utf8.Valid that tolerates a rune cut by the sniff window.
func validUTF8Prefix(b []byte) bool {
	if utf8.Valid(b) {
		return true
	}
	for i := 1; i < utf8.UTFMax && i < len(b); i++ {
		if utf8.Valid(b[:len(b)-i]) {
			return !utf8.FullRune(b[len(b)-i:])
		}
	}
	return false
}

// MIMEType returns the sniffed content type, or a text type for kind.
func MIMEType(kind domain.DocumentKind, head []byte) string {
	if t, err := filetype.Match(head); err == nil && t != filetype.Unknown {
		return t.MIME.Value
	}
	if kind == domain.KindNotebook {
		return "application/x-ipynb+json"
	}
	return "text/plain"
}

// Classify selects the kind of a file from its path and leading bytes.
// It returns false for unsupported extensions and binary content.
func Classify(p string, head []byte) (domain.DocumentKind, bool) {
	kind, ok := KindForPath(p)
	if !ok || IsBinary(head) {
		return "", false
	}
	return kind, true
}
