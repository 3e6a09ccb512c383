package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	sessionCleanupInterval = time.Hour
	cacheGCInterval        = 10 * time.Minute
)

// Version is stamped at build time with -ldflags "-X .../providers.Version=...".
var Version = "dev"
