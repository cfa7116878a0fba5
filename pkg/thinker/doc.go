// Package thinker implements the prompt-generate-extract unit of work and the registry
// that resolves configured thinker specs into runnable ports.Thinker values.
package thinker
