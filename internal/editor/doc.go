// Package editor implements the Safe File Editor (C5): the spec §4.5
// tool contracts for reading, listing, and mutating files under a
// workspace root, with protected create, timestamped backups, and
// atomic line-range edits.
//
// Grounded on the teacher's internal/tool read.go/write.go/edit.go/
// list.go, adapted from ad-hoc filesystem tools into one Editor type
// whose methods return the plain result strings spec §4.2 says the
// dispatcher passes back verbatim, plus original_source/code_agent.py
// for the write_file protected-create / 🚫 BLOCK: sentinel semantics
// that have no teacher analogue.
package editor
