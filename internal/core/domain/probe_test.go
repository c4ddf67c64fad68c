package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbeOutcome_CanWrite(t *testing.T) {
	assert.True(t, Writable.CanWrite())
	assert.True(t, WritableButUndeletable.CanWrite())
	assert.False(t, NotWritable.CanWrite())
	assert.Equal(t, "writable_undeletable", WritableButUndeletable.String())
}

func TestProbeResult_ResidualLine(t *testing.T) {
	result := ProbeResult{
		Target:    "https://contoso/sites/a",
		Outcome:   WritableButUndeletable,
		ProbeFile: &RemoteFile{Name: "Document.docx"},
	}
	assert.Equal(t, "https://contoso/sites/a: Document.docx", result.ResidualLine())

	result.ProbeFile = nil
	assert.Equal(t, "https://contoso/sites/a: ", result.ResidualLine())
}
