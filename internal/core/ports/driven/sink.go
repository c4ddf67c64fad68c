package driven

// ResultSink is the append-only, line-oriented output shared by all producers.
// Implementations create the parent directory, open the destination in append
// mode and terminate every line with a newline. Lines are never rewritten.
// Concurrent Append calls must not interleave partial lines.
type ResultSink interface {
	Append(path string, lines ...string) error
}
