// Package assertions checks a response against one-line expectations such as
// "status == 201" or "body.items length 3".
//
// An expectation is a subject, an operator and, for most operators, an
// expected value. Subjects are capture expressions: status, duration,
// header.<Name>, body or body.<path>.
//
// Operators:
//   - ==, !=, >, >=, <, <=
//   - contains, !contains, startsWith, endsWith, matches
//   - exists, !exists
//   - length, type
//   - includes, !includes (array subject), in, !in (array expected)
//   - schema (expected is a JSON Schema file)
//
// Expected values are JSON literals where they parse as one (numbers,
// true, false, null, arrays, quoted strings) and bare text otherwise.
package assertions
