package config

import "time"

// Output defaults.
const (
	DefaultOutputFormat = "text"
	DefaultOutputColor  = true
)

// Reconstruction defaults.
const (
	DefaultSortMatches          = false
	DefaultCacheSize            = 64
	DefaultHibernationThreshold = 4096
	DefaultValidateSchema       = true
)

// Server defaults.
const (
	DefaultServerAddr         = "127.0.0.1:8080"
	DefaultServerReadTimeout  = 15 * time.Second
	DefaultServerWriteTimeout = 30 * time.Second
	DefaultServerMaxBodyBytes = 8 << 20 // 8 MiB.
)

// Observability defaults.
const (
	DefaultLogLevel     = "info"
	DefaultLogJSON      = false
	DefaultOTLPEndpoint = ""
	DefaultOTLPInsecure = false
	DefaultSampleRatio  = 1.0
)
