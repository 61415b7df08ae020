package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"osintrecon/internal/models"
	"osintrecon/internal/services"
	"osintrecon/pkg/testutil"
	"osintrecon/pkg/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, cfg *Config, r *testutil.FakeRunner) (*App, *bytes.Buffer) {
	t.Helper()
	catalog, err := tools.DefaultCatalog()
	require.NoError(t, err)

	var out bytes.Buffer
	return NewApp(cfg, catalog, r, &out), &out
}

func TestApp_RunCompletes(t *testing.T) {
	r := testutil.NewFakeRunner()
	r.SetResponse("caffix/amass:latest", testutil.RunResponse{Output: "[google] sub1.example.com 1.2.3.4\n"})

	app, out := newTestApp(t, &Config{Domain: "example.com", Tool: "amass", NoColor: true}, r)
	ctx, cancel := testutil.WithTimeout(t, 5*time.Second)
	defer cancel()

	scan, err := app.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, scan.Status)
	assert.Contains(t, out.String(), "AMASS example.com -> COMPLETED")
	assert.Contains(t, out.String(), "subdomain | sub1.example.com")
	assert.Contains(t, out.String(), "ip        | 1.2.3.4")

	requests := r.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, []string{"enum", "-passive", "-d", "example.com"}, requests[0].Args)
}

func TestApp_RunJSON(t *testing.T) {
	r := testutil.NewFakeRunner()
	r.SetDefault(testutil.RunResponse{Output: "[*] Target: example.com\nuser1@example.com\n"})

	app, out := newTestApp(t, &Config{Domain: "example.com", Tool: "THEHARVESTER", Limit: 50, JSON: true}, r)

	_, err := app.Run(context.Background())
	require.NoError(t, err)

	var report Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, models.StatusCompleted, report.Scan.Status)
	assert.Equal(t, []string{"user1@example.com"}, report.Findings.Emails)
	assert.Contains(t, r.Requests()[0].Args, "50")
}

func TestApp_RunFailure(t *testing.T) {
	r := testutil.NewFakeRunner()
	r.SetDefault(testutil.RunResponse{Error: errors.New("runtime down")})

	app, out := newTestApp(t, &Config{Domain: "example.com", Tool: "amass", NoColor: true}, r)

	scan, err := app.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runtime down")

	require.NotNil(t, scan)
	assert.Equal(t, models.StatusFailed, scan.Status)
	assert.Contains(t, out.String(), "Error: runtime down")
}

func TestApp_RunRejectsInput(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown tool", Config{Domain: "example.com", Tool: "nmap"}},
		{"blank domain", Config{Domain: "  ", Tool: "amass"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testutil.NewFakeRunner()
			app, _ := newTestApp(t, &tt.cfg, r)

			_, err := app.Run(context.Background())
			assert.Error(t, err)
			assert.Empty(t, r.Requests())
		})
	}
}

func TestParseCommand_File(t *testing.T) {
	path := testutil.CreateTestFile(t, t.TempDir(), "amass.txt", "[bing] sub2.example.com\n")

	var out bytes.Buffer
	cmd := NewParseCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"AMASS", path, "--json"})
	require.NoError(t, cmd.Execute())

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, []interface{}{"sub2.example.com"}, decoded["subdomains"])
}

func TestParseCommand_Stdin(t *testing.T) {
	var out bytes.Buffer
	cmd := NewParseCommand()
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("[*] Target: example.com\nsub1.example.com:1.2.3.4\n"))
	cmd.SetArgs([]string{"theharvester", "-"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "sub1.example.com:1.2.3.4")
}

func TestParseCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown tool", []string{"nmap", "-"}},
		{"missing file", []string{"amass", "/does/not/exist"}},
		{"wrong arity", []string{"amass"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewParseCommand()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetIn(strings.NewReader(""))
			cmd.SetArgs(tt.args)
			assert.Error(t, cmd.Execute())
		})
	}
}

func TestToolsCommand(t *testing.T) {
	stdout, _ := testutil.CaptureOutput(t, func() {
		cmd := NewToolsCommand()
		cmd.SetArgs([]string{"--json"})
		require.NoError(t, cmd.Execute())
	})

	var summaries []services.ToolSummary
	require.NoError(t, json.Unmarshal([]byte(stdout), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, tools.TheHarvester, summaries[0].Name)
	assert.True(t, summaries[0].SupportsLimit)
}
