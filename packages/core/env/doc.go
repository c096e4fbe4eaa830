// Package env handles variable interpolation for command-line requests.
//
// It provides functionality for:
//   - Loading .env files
//   - {{name}} variables, {{$NAME}} OS environment lookups
//   - Built-in functions from package builtin, e.g. {{uuid()}} or {{base64("a:b")}}
package env
