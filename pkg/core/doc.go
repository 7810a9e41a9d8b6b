// Package core defines the shared language of the rulecraft system.
//
// This package contains:
//   - The scanned project view (ProjectModel, File, Directory, ExtractedSymbols)
//   - Rule input types (Rule, Frontmatter, Activation)
//   - Platform output types (PlatformArtifact, ArtifactType, Scope)
//   - Diagnostics and the fatal MalformedInputError
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
