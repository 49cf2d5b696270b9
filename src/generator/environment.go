package generator

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// environmentBlock describes the machine the project will be generated on,
// so setup commands match the platform the user actually runs.
func environmentBlock(workingDir string) string {
	var b strings.Builder
	b.WriteString("\n\nTarget environment:\n")
	fmt.Fprintf(&b, "- OS: %s\n", osVersion())
	fmt.Fprintf(&b, "- Architecture: %s\n", runtime.GOARCH)
	if workingDir != "" {
		fmt.Fprintf(&b, "- Project parent directory: %s\n", workingDir)
	}
	b.WriteString("Use setup commands appropriate for this platform.")
	return b.String()
}

func osVersion() string {
	info, err := host.Info()
	if err == nil {
		if info.PlatformVersion != "" {
			return fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion)
		}
		if info.Platform != "" {
			return info.Platform
		}
	}
	return runtime.GOOS
}
