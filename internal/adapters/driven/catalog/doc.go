// Package catalog loads the read-only inputs of a run from disk: query
// catalogs (markdown or YAML), the decoy wordlist index and decoy templates.
package catalog
