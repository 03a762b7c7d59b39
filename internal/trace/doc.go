// Package trace provides the canonical step-trace types for Calcora.
//
// This package contains the StepNode/StepGraph data model plus the
// serialization and validation primitives built on it. All other internal
// packages import trace; trace imports nothing internal. This keeps the
// reasoning record the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - A StepNode is immutable once appended to a Graph
//   - A Graph is append-only while open and frozen after Seal
//   - All ordering uses append sequence, never wall-clock timestamps
//   - Fingerprints use RFC 8785 canonical JSON and SHA-256 with
//     domain separation, so identical runs hash identically
package trace
