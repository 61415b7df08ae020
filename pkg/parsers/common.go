package parsers

import (
	"fmt"
	"net/netip"
	"regexp"
	"sort"
	"strings"

	apperrors "osintrecon/pkg/errors"
	"osintrecon/pkg/logger"
	"osintrecon/pkg/tools"
)

var (
	emailPattern    = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	ipv4Pattern     = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	hostnamePattern = regexp.MustCompile(`(?i)\b(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,63}\b`)
	// hostname optionally followed by ":<ipv4>"
	hostIPPattern = regexp.MustCompile(`(?i)\b((?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,63})\b(?::((?:\d{1,3}\.){3}\d{1,3})\b)?`)
	targetPattern = regexp.MustCompile(`(?i)\bTarget:\s*(\S+)`)
	// "[source] rest of line"
	sourceTagPattern = regexp.MustCompile(`^\[[^\]]*\](.*)$`)
)

// OutputParser turns raw tool output into findings. Implementations never fail
// on malformed input; unmatched lines are ignored.
type OutputParser interface {
	Parse(output string) Findings
}

// ForTool returns the parser for a tool.
func ForTool(tool tools.ScanTool) (OutputParser, error) {
	switch tool {
	case tools.TheHarvester:
		return NewHarvesterParser(), nil
	case tools.Amass:
		return NewAmassParser(), nil
	}
	return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownTool, tool)
}

// Parse dispatches to the parser for tool.
func Parse(tool tools.ScanTool, output string) (Findings, error) {
	p, err := ForTool(tool)
	if err != nil {
		return Findings{}, err
	}
	return p.Parse(output), nil
}

type stringSet map[string]struct{}

func (s stringSet) add(v string) {
	if v == "" {
		return
	}
	s[v] = struct{}{}
}

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func splitLines(output string) []string {
	lines := strings.Split(output, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return lines
}

func isIPv4(candidate string) bool {
	addr, err := netip.ParseAddr(candidate)
	return err == nil && addr.Is4()
}

func extractIPv4(line string) []string {
	var ips []string
	for _, m := range ipv4Pattern.FindAllString(line, -1) {
		if isIPv4(m) {
			ips = append(ips, m)
		}
	}
	return ips
}

// domainOrSubdomain reports whether host is domain or below it.
func domainOrSubdomain(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func newParserLogger() *logger.Logger {
	return logger.Default()
}
