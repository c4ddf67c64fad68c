// Package sharepoint implements the platform session over the SharePoint
// REST API: search, document library access, validated list item updates
// and the probe document lifecycle.
//
// Sessions authenticate with bearer tokens from golang.org/x/oauth2, either
// through the resource owner password grant or a certificate-signed client
// assertion. Responses are requested as JSON light without metadata.
package sharepoint
