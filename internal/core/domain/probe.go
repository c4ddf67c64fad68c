package domain

// ProbeOutcome classifies the write capability of a target.
type ProbeOutcome string

// Probe outcomes.
const (
	// NotWritable means the probe document could not be created.
	NotWritable ProbeOutcome = "not_writable"

	// Writable means the probe document was created, deleted and confirmed absent.
	Writable ProbeOutcome = "writable"

	// WritableButUndeletable means the probe document was created but is still
	// present (or its absence could not be confirmed) after the delete attempt.
	// The target now holds a residual artifact.
	WritableButUndeletable ProbeOutcome = "writable_undeletable"
)

// String returns the outcome identifier.
func (o ProbeOutcome) String() string {
	return string(o)
}

// CanWrite returns true for both writable outcomes.
func (o ProbeOutcome) CanWrite() bool {
	return o == Writable || o == WritableButUndeletable
}

// ProbeResult is the outcome of probing one target.
type ProbeResult struct {
	Target  Target
	Outcome ProbeOutcome

	// ProbeFile is the document the prober created, nil when creation failed.
	ProbeFile *RemoteFile

	// Reason explains a NotWritable or undeletable outcome. Informational.
	Reason string
}

// ResidualLine renders the residual-artifact line for this result.
func (r ProbeResult) ResidualLine() string {
	name := ""
	if r.ProbeFile != nil {
		name = r.ProbeFile.Name
	}
	return r.Target.String() + ": " + name
}
