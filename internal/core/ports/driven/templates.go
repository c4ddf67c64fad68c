package driven

// TemplateStore provides decoy template files.
type TemplateStore interface {
	// List returns the names of files carrying the template marker prefix.
	List() ([]string, error)

	// Read returns the raw bytes of a template.
	Read(name string) ([]byte, error)
}
