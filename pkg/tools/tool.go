package tools

import (
	"fmt"
	"strings"

	apperrors "osintrecon/pkg/errors"
)

// ScanTool identifies one of the supported OSINT engines.
type ScanTool string

const (
	TheHarvester ScanTool = "THEHARVESTER"
	Amass        ScanTool = "AMASS"
)

// AllTools lists the supported tools in display order.
func AllTools() []ScanTool {
	return []ScanTool{TheHarvester, Amass}
}

func (t ScanTool) Valid() bool {
	switch t {
	case TheHarvester, Amass:
		return true
	}
	return false
}

func (t ScanTool) String() string {
	return string(t)
}

// ParseScanTool accepts tool names case-insensitively.
func ParseScanTool(name string) (ScanTool, error) {
	tool := ScanTool(strings.ToUpper(strings.TrimSpace(name)))
	if !tool.Valid() {
		return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownTool, name)
	}
	return tool, nil
}
