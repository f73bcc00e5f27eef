package survey

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var rawVersion string

// Version is the release of this module, read from the VERSION file.
var Version = strings.TrimSpace(rawVersion)
