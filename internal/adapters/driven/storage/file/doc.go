// Package file provides the line-oriented output files and input lists.
//
// Adapters:
//   - ResultSink: append-only writer shared by every producer
//   - ReadLines: trimmed, non-blank lines of a target or keyword list
package file
