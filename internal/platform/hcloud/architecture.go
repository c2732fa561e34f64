package hcloud

import (
	"strings"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// Architecture represents a CPU architecture supported by Hetzner Cloud.
type Architecture string

const (
	// ArchAMD64 represents x86_64 architecture (Intel/AMD processors).
	ArchAMD64 Architecture = "amd64"

	// ArchARM64 represents ARM64 architecture (CAX servers).
	ArchARM64 Architecture = "arm64"
)

// DetectArchitecture determines the CPU architecture from a Hetzner Cloud
// server type without an API round trip. CAX server types (cax11, cax21, ...)
// are ARM64; everything else is AMD64. Golden images are labeled with the
// architecture they were built for, and environments must pick an image
// matching their server type.
func DetectArchitecture(serverType string) Architecture {
	if strings.HasPrefix(serverType, "cax") {
		return ArchARM64
	}
	return ArchAMD64
}

// String returns the string representation of the architecture.
func (a Architecture) String() string {
	return string(a)
}

// HCloud converts to the API client's architecture type.
func (a Architecture) HCloud() hcloud.Architecture {
	if a == ArchARM64 {
		return hcloud.ArchitectureARM
	}
	return hcloud.ArchitectureX86
}
