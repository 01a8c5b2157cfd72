// Package buildinfo prints the linker-injected build metadata.
package buildinfo

import (
	"fmt"
	"io"
)

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// PrintBuildInfo writes the build version, date and commit, using "N/A" for empty values.
func PrintBuildInfo(w io.Writer, version, date, commit string) {
	fmt.Fprintf(w, "Build version: %s\n", orNA(version))
	fmt.Fprintf(w, "Build date: %s\n", orNA(date))
	fmt.Fprintf(w, "Build commit: %s\n", orNA(commit))
}
