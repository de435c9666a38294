// Package build holds version information stamped at link time.
package build

// Version is overridden via -ldflags "-X .../internal/build.Version=v1.2.3"
var Version = "dev"
