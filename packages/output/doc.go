// Package output renders responses and request errors for the CLI.
//
// Supported formats:
//   - console: status line coloured by class, optional headers, pretty JSON body
//   - json: one machine-readable document per request
package output
