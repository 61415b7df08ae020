package parsers

import (
	"errors"
	"testing"

	apperrors "osintrecon/pkg/errors"
	"osintrecon/pkg/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindings_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		findings Findings
	}{
		{
			name:     "theHarvester findings",
			findings: NewHarvesterParser().Parse(harvesterSample),
		},
		{
			name:     "amass findings",
			findings: NewAmassParser().Parse("[google] sub1.example.com 1.2.3.4\n"),
		},
		{
			name:     "zero value",
			findings: Findings{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := tt.findings.JSON()
			require.NoError(t, err)

			decoded, err := DecodeFindings(payload)
			require.NoError(t, err)
			assert.True(t, tt.findings.Equal(decoded))
		})
	}
}

func TestFindings_JSONShape(t *testing.T) {
	payload, err := Findings{Emails: []string{"a@example.com"}, Raw: "raw"}.JSON()
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"emails": ["a@example.com"],
		"hosts": [],
		"subdomains": [],
		"ips": [],
		"linkedin": [],
		"raw": "raw"
	}`, payload)
}

func TestDecodeFindings_Invalid(t *testing.T) {
	_, err := DecodeFindings("not json")
	assert.Error(t, err)
}

func TestParse_Dispatch(t *testing.T) {
	f, err := Parse(tools.Amass, "[bing] a.example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example.com"}, f.Subdomains)

	f, err = Parse(tools.TheHarvester, "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"ops@example.com"}, f.Emails)

	_, err = Parse(tools.ScanTool("NMAP"), "")
	assert.True(t, errors.Is(err, apperrors.ErrUnknownTool))
}
