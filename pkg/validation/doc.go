// Package validation provides ports.Validator implementations.
//
// A transport failure (the validator could not be asked) is always returned as an error,
// distinct from a failed verdict, which is a normal ValidationOutcome with Passed == false.
package validation
