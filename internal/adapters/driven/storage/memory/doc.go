// Package memory provides in-memory implementations of the storage ports.
//
// They hold nothing across runs and are safe for concurrent use.
package memory
