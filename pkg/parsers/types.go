package parsers

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Findings is the structured extraction of one tool run. Every list is
// deduplicated and sorted; Raw always holds the unparsed output.
type Findings struct {
	Emails     []string `json:"emails"`
	Hosts      []string `json:"hosts"`
	Subdomains []string `json:"subdomains"`
	IPs        []string `json:"ips"`
	LinkedIn   []string `json:"linkedin"`
	Raw        string   `json:"raw"`
}

func (f Findings) normalized() Findings {
	orEmpty := func(s []string) []string {
		if s == nil {
			return []string{}
		}
		return s
	}
	f.Emails = orEmpty(f.Emails)
	f.Hosts = orEmpty(f.Hosts)
	f.Subdomains = orEmpty(f.Subdomains)
	f.IPs = orEmpty(f.IPs)
	f.LinkedIn = orEmpty(f.LinkedIn)
	return f
}

// JSON serializes findings into the payload stored on a completed scan.
func (f Findings) JSON() (string, error) {
	data, err := json.Marshal(f.normalized())
	if err != nil {
		return "", fmt.Errorf("serialize findings: %w", err)
	}
	return string(data), nil
}

// DecodeFindings reads a payload produced by Findings.JSON.
func DecodeFindings(payload string) (Findings, error) {
	var f Findings
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		return Findings{}, fmt.Errorf("decode findings: %w", err)
	}
	return f.normalized(), nil
}

// Equal compares finding lists; nil and empty lists are the same.
func (f Findings) Equal(other Findings) bool {
	return slices.Equal(f.Emails, other.Emails) &&
		slices.Equal(f.Hosts, other.Hosts) &&
		slices.Equal(f.Subdomains, other.Subdomains) &&
		slices.Equal(f.IPs, other.IPs) &&
		slices.Equal(f.LinkedIn, other.LinkedIn) &&
		f.Raw == other.Raw
}

// Total counts every extracted entry, excluding raw output.
func (f Findings) Total() int {
	return len(f.Emails) + len(f.Hosts) + len(f.Subdomains) + len(f.IPs) + len(f.LinkedIn)
}
