package parsers

import (
	"strings"

	"osintrecon/pkg/logger"
)

const harvesterToolName = "theharvester"

var (
	// theHarvester signs its banner with the author's address
	vendorDomains = []string{"edge-security.com"}

	searchEngineDomains = []string{
		"google.com",
		"bing.com",
		"yahoo.com",
		"duckduckgo.com",
		"baidu.com",
		"yandex.com",
	}
)

type HarvesterParser struct {
	logger *logger.Logger
}

func NewHarvesterParser() *HarvesterParser {
	return &HarvesterParser{logger: newParserLogger()}
}

func (p *HarvesterParser) Parse(output string) Findings {
	if p.logger == nil {
		p.logger = newParserLogger()
	}

	lines := splitLines(output)
	target := harvesterTarget(lines)

	emails := stringSet{}
	hosts := stringSet{}
	ips := stringSet{}
	linkedin := stringSet{}

	for _, line := range lines {
		if line == "" || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "-") {
			continue
		}

		for _, email := range emailPattern.FindAllString(line, -1) {
			if isNoiseEmail(email, target) {
				continue
			}
			emails.add(email)
		}

		for _, ip := range extractIPv4(line) {
			ips.add(ip)
		}

		hasAt := strings.Contains(line, "@")
		for _, m := range hostIPPattern.FindAllStringSubmatch(line, -1) {
			host, ip := m[1], m[2]
			if isNoiseHost(host, target) {
				continue
			}
			if ip != "" && isIPv4(ip) {
				hosts.add(host + ":" + ip)
				ips.add(ip)
				continue
			}
			if !hasAt {
				hosts.add(host)
			}
		}

		for _, field := range strings.Fields(line) {
			if strings.Contains(strings.ToLower(field), "linkedin.com") {
				linkedin.add(field)
			}
		}
	}

	findings := Findings{
		Emails:   emails.sorted(),
		Hosts:    hosts.sorted(),
		IPs:      ips.sorted(),
		LinkedIn: linkedin.sorted(),
		Raw:      output,
	}

	p.logger.WithFields(logger.Fields{
		"target":   target,
		"emails":   len(findings.Emails),
		"hosts":    len(findings.Hosts),
		"ips":      len(findings.IPs),
		"linkedin": len(findings.LinkedIn),
	}).Debug("Parsed theHarvester output")

	return findings
}

// harvesterTarget returns the lower-cased value of the first "Target:" line.
func harvesterTarget(lines []string) string {
	for _, line := range lines {
		if m := targetPattern.FindStringSubmatch(line); m != nil {
			return strings.TrimRight(strings.ToLower(m[1]), ".")
		}
	}
	return ""
}

func isNoiseEmail(email, target string) bool {
	lower := strings.ToLower(email)
	for _, vendor := range vendorDomains {
		if strings.Contains(lower, vendor) {
			return true
		}
	}
	return target != "" && strings.HasPrefix(lower, target)
}

func isNoiseHost(host, target string) bool {
	lower := strings.ToLower(host)
	if target != "" && lower == target {
		return true
	}
	if strings.Contains(lower, harvesterToolName) {
		return true
	}
	for _, vendor := range vendorDomains {
		if domainOrSubdomain(lower, vendor) {
			return true
		}
	}
	for _, engine := range searchEngineDomains {
		if domainOrSubdomain(lower, engine) {
			return true
		}
	}
	return false
}
