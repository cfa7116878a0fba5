// Package middleware wraps a ports.AuditSink to transform entries on their way to storage.
package middleware

import "github.com/tqwhite/unity-data-generator-sub000/pkg/ports"

// Middleware allows wrapping an AuditSink to add behavior.
type Middleware func(ports.AuditSink) ports.AuditSink

// Chain applies mws so that the first one is outermost.
func Chain(sink ports.AuditSink, mws ...Middleware) ports.AuditSink {
	for i := len(mws) - 1; i >= 0; i-- {
		sink = mws[i](sink)
	}
	return sink
}
