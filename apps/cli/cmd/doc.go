// Package cmd implements the hitreq CLI commands using Cobra.
//
// Available commands:
//   - get, post, put, delete: Send one request and print the response
//   - curl: Send a request written as a curl command, or print its hitreq form
//   - bench: Repeat a request and report latency percentiles and error rates
//   - serve: Start a local echo server
//   - init: Create a .hitreq.yaml config file
//   - validate: Check JSON files against a JSON Schema
//   - version: Show hitreq version information
//   - completion: Generate shell completion scripts
//
// Errors map to exit codes: 1 for statuses outside 200-299, failed
// expectations, snapshot mismatches and failed bench thresholds, 2 for bodies
// that fail to parse or validate, 3 for configuration errors, 4 for network
// failures and timeouts, 64 for usage errors.
package cmd
