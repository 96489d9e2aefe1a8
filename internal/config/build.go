package config

// Linker-injected build metadata, for example:
//
//	go build -ldflags "-X rainwatch/internal/config.version=1.2.3 \
//	    -X rainwatch/internal/config.commit=$(git rev-parse --short HEAD)"
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// NewBuildInfo returns the build metadata compiled into the binary.
func NewBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	}
}
