// Package builtin provides the functions available inside {{...}}
// placeholders of command-line requests.
//
// Available functions:
//   - uuid(): random UUID v4
//   - now(), date(layout): current UTC time
//   - timestamp(), timestampMs(): Unix time in seconds or milliseconds
//   - random(min, max), randomString(length), randomEmail()
//   - base64(value), base64Decode(value), basicAuth(user, pass)
//   - md5(value), sha256(value)
//   - urlEncode(value), urlDecode(value)
//
// Arguments may be quoted with single or double quotes to include commas.
package builtin
