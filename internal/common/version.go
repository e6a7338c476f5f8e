package common

// Build metadata, injected via ldflags at build time.
var (
	Version = "dev"
	Build   = "unknown"
)
