// Package content reads content documents from disk.
//
// A document is one YAML (.yaml, .yml) or JSON (.json) file holding a
// core.ContentDocument. A missing id defaults to the file name without its
// extension and a missing updatedAt to the file's modification time.
package content
