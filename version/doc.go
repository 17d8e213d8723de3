// Package version holds the build version of the running binary.
//
// Values are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/attachkit/version.Version=1.2.0" ./cmd/attachd
//
// Unset values are filled from the VCS stamp in debug.ReadBuildInfo.
package version
