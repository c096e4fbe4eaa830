// Package capture extracts values from HTTP responses.
//
// It supports capturing values from:
//   - Response body (gjson paths)
//   - Response headers
//   - Response status code
//   - Request duration
//
// Expressions look like "status", "header.Content-Type", "body" or
// "body.user.name".
package capture
