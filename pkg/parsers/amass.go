package parsers

import (
	"encoding/json"
	"strings"

	"osintrecon/pkg/logger"
)

const amassToolName = "amass"

// amassRecord is one line of `amass enum -json` output.
type amassRecord struct {
	Name      string `json:"name"`
	Domain    string `json:"domain"`
	Addresses []struct {
		IP   string `json:"ip"`
		CIDR string `json:"cidr"`
	} `json:"addresses"`
	Tag     string   `json:"tag"`
	Sources []string `json:"sources"`
}

type AmassParser struct {
	logger *logger.Logger
}

func NewAmassParser() *AmassParser {
	return &AmassParser{logger: newParserLogger()}
}

// Parse collects subdomains and IPs. A "[source] ..." line contributes its
// remainder verbatim and, separately, every hostname and IP found in it.
func (p *AmassParser) Parse(output string) Findings {
	if p.logger == nil {
		p.logger = newParserLogger()
	}

	subdomains := stringSet{}
	ips := stringSet{}
	skipped := 0

	for _, line := range splitLines(output) {
		if line == "" || strings.Contains(strings.ToLower(line), amassToolName) {
			continue
		}

		if strings.HasPrefix(line, "{") {
			var record amassRecord
			if err := json.Unmarshal([]byte(line), &record); err != nil {
				skipped++
				continue
			}
			subdomains.add(strings.TrimSpace(record.Name))
			for _, addr := range record.Addresses {
				if isIPv4(addr.IP) {
					ips.add(addr.IP)
				}
			}
			continue
		}

		if m := sourceTagPattern.FindStringSubmatch(line); m != nil {
			subdomains.add(strings.TrimSpace(m[1]))
		}

		for _, host := range hostnamePattern.FindAllString(line, -1) {
			subdomains.add(host)
		}
		for _, ip := range extractIPv4(line) {
			ips.add(ip)
		}
	}

	findings := Findings{
		Subdomains: subdomains.sorted(),
		IPs:        ips.sorted(),
		Raw:        output,
	}

	p.logger.WithFields(logger.Fields{
		"subdomains":    len(findings.Subdomains),
		"ips":           len(findings.IPs),
		"skipped_lines": skipped,
	}).Debug("Parsed Amass output")

	return findings
}
