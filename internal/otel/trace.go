package otel

import (
	"os"
	"sync/atomic"
)

// tracing turns on per-message trace events. It is read on every UI update.
var tracing atomic.Bool

func init() {
	tracing.Store(os.Getenv("CATALOG_TRACE") != "")
}

// TraceEnabled reports whether CATALOG_TRACE was set at startup.
func TraceEnabled() bool { return tracing.Load() }

func setTraceEnabled(on bool) { tracing.Store(on) }
