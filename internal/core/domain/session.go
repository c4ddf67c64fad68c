package domain

import (
	"encoding/json"
	"time"
)

// Library is a document library on a target.
type Library struct {
	// ID is the list GUID.
	ID string

	// Title is the display title, e.g. "Documents".
	Title string

	// RootFolder is the server-relative URL of the library root,
	// e.g. "/sites/finance/Shared Documents".
	RootFolder string
}

// FileURL returns the server-relative URL of a file in the library root.
func (l Library) FileURL(name string) string {
	return l.RootFolder + "/" + name
}

// Principal is a platform user identity.
type Principal struct {
	// LoginName is the claims login, e.g. "i:0#.f|membership|alice@contoso.com".
	LoginName string

	// Title is the display name.
	Title string

	// Email is the user's mail address, may be empty.
	Email string
}

// RemoteFile is a file that exists on a target.
type RemoteFile struct {
	// Name is the leaf file name.
	Name string

	// ServerRelativeURL addresses the file on the target.
	ServerRelativeURL string
}

// Metadata field names used for provenance spoofing.
const (
	FieldAuthor   = "Author"
	FieldEditor   = "Editor"
	FieldCreated  = "Created"
	FieldModified = "Modified"
)

// FieldTimeLayout is the UTC layout for date fields in a validated update.
const FieldTimeLayout = "2006-01-02T15:04:05Z"

// FieldTime formats t for a date field, truncated to whole seconds.
func FieldTime(t time.Time) string {
	return t.UTC().Format(FieldTimeLayout)
}

// FieldUser formats a person field value for the given login name.
func FieldUser(loginName string) string {
	b, _ := json.Marshal([]struct {
		Key string `json:"Key"`
	}{{Key: loginName}})
	return string(b)
}

// FieldValue assigns a value to a list item field.
type FieldValue struct {
	Name string

	// Value is already formatted for the platform.
	Value string
}

// FieldUpdateResult is the per-field outcome of a metadata update.
type FieldUpdateResult struct {
	Name         string
	HasException bool
	ErrorMessage string
}

// DecoyRecord describes one successfully planted decoy.
type DecoyRecord struct {
	Target     Target
	Filename   string
	CreatedAt  time.Time
	ModifiedAt time.Time
	Author     Principal
}

// Line renders the deployed-decoys output line.
func (d DecoyRecord) Line() string {
	return d.Target.Join(d.Filename)
}
