// Package version exposes build information.
package version

// Version is overridden at build time with
//
//	go build -ldflags "-X github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/version.Version=1.2.3"
var Version = "dev"

// Info describes the running build.
type Info struct {
	Version   string `json:"version"`
	GoVersion string `json:"goVersion"`
}
