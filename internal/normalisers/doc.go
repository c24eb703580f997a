// Package normalisers turns raw repository files into documents.
//
// Classification decides whether a file is indexed at all and which
// DocumentKind it gets. Each kind is then handled by the highest-priority
// normaliser registered for it:
//
//   - plaintext: code and text files
//   - notebook: Jupyter notebooks
//
// Normalisers are registered with the Registry at startup.
package normalisers
