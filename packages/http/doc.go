// Package http provides a small convenience client on top of net/http.
//
// It wraps the standard library's http package with:
//   - One call per verb (Get, Post, Put, Delete) returning the decoded body
//   - Response variants (GetResponse, ...) returning the full envelope
//   - JSON and form-urlencoded request bodies
//   - Ordered query parameter injection
//   - Typed errors for non-2xx statuses, bad JSON, transport failures and timeouts
package http
