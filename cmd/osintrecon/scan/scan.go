package scan

import (
	"context"
	"fmt"
	"io"
	"time"

	"osintrecon/internal/config"
	"osintrecon/internal/dao"
	"osintrecon/internal/database"
	"osintrecon/internal/models"
	"osintrecon/internal/services"
	"osintrecon/pkg/engine"
	"osintrecon/pkg/logger"
	"osintrecon/pkg/output"
	"osintrecon/pkg/parsers"
	"osintrecon/pkg/runner"
	"osintrecon/pkg/tools"

	"github.com/spf13/cobra"
)

// Config holds the flags of a one-off scan
type Config struct {
	Domain  string
	Tool    string
	Limit   int
	Sources string
	JSON    bool
	NoColor bool
}

// App runs a single scan to completion outside the API server
type App struct {
	config  *Config
	logger  *logger.Logger
	catalog *tools.Catalog
	runner  runner.ContainerRunner
	out     io.Writer
}

// Report is the JSON shape of a finished one-off scan
type Report struct {
	Scan     *models.Scan     `json:"scan"`
	Findings parsers.Findings `json:"findings"`
}

func NewApp(cfg *Config, catalog *tools.Catalog, r runner.ContainerRunner, out io.Writer) *App {
	return &App{
		config:  cfg,
		logger:  logger.Default(),
		catalog: catalog,
		runner:  r,
		out:     out,
	}
}

// Run executes the scan through the same lifecycle as the server, backed by a
// private in-memory store, and prints the outcome.
func (a *App) Run(ctx context.Context) (*models.Scan, error) {
	tool, err := tools.ParseScanTool(a.config.Tool)
	if err != nil {
		return nil, err
	}

	db, err := database.OpenInMemory()
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	scanDao := dao.NewScanDAO(db)
	queue := engine.NewQueue(1, a.logger)
	executor := services.NewScanExecutor(scanDao, a.runner, a.catalog, services.WithExecutorLogger(a.logger))
	service := services.NewScanService(scanDao, executor, queue)

	created, err := service.InitiateScan(services.ScanRequest{
		Domain:  a.config.Domain,
		Tool:    tool,
		Limit:   a.config.Limit,
		Sources: a.config.Sources,
	})
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		queue.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.logger.Warn("Interrupted, waiting for the container to be cleaned up")
		<-done
	}

	scan, err := service.GetScanByID(created.ID)
	if err != nil {
		return nil, err
	}
	if err := a.render(scan); err != nil {
		return scan, err
	}
	if scan.Status == models.StatusFailed {
		return scan, fmt.Errorf("scan %s failed: %s", scan.ID, deref(scan.ErrorMessage))
	}
	return scan, nil
}

func (a *App) render(scan *models.Scan) error {
	var findings parsers.Findings
	if scan.Results != nil {
		decoded, err := parsers.DecodeFindings(*scan.Results)
		if err != nil {
			return err
		}
		findings = decoded
	}

	if a.config.JSON {
		return output.WriteJSON(a.out, Report{Scan: scan, Findings: findings})
	}

	fmt.Fprintf(a.out, "Scan %s: %s %s -> %s", scan.ID, scan.Tool, scan.Domain, scan.Status)
	if scan.EndTime != nil {
		fmt.Fprintf(a.out, " in %s", scan.EndTime.Sub(scan.StartTime).Round(time.Millisecond))
	}
	fmt.Fprintln(a.out)

	if scan.Status == models.StatusFailed {
		fmt.Fprintf(a.out, "Error: %s\n", deref(scan.ErrorMessage))
		return nil
	}
	output.WriteFindingsTable(a.out, findings, a.config.NoColor)
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// NewScanCommand creates the scan command
func NewScanCommand() *cobra.Command {
	scanConfig := &Config{}

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan and print its findings",
		Long:  `Run theHarvester or Amass against a domain in a disposable container and print the extracted findings`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			catalog, err := tools.LoadCatalog(cfg.Tools.CatalogFile)
			if err != nil {
				return err
			}

			dockerClient, err := runner.NewDockerClient(cfg.Docker.Host)
			if err != nil {
				return err
			}
			defer dockerClient.Close()

			containerRunner := runner.NewDockerRunner(dockerClient, runner.WithTimeouts(runner.Timeouts{
				Pull: cfg.Runner.PullTimeout,
				Wait: cfg.Runner.WaitTimeout,
				Logs: cfg.Runner.LogTimeout,
			}))

			scanConfig.NoColor = noColor(cmd)
			_, err = NewApp(scanConfig, catalog, containerRunner, cmd.OutOrStdout()).Run(cmd.Context())
			return err
		},
	}

	scanCmd.Flags().StringVarP(&scanConfig.Domain, "domain", "d", "", "Target domain (required)")
	scanCmd.Flags().StringVarP(&scanConfig.Tool, "tool", "t", "", "Tool to run: theharvester or amass (required)")
	scanCmd.Flags().IntVarP(&scanConfig.Limit, "limit", "l", 0, "Result limit passed to theHarvester")
	scanCmd.Flags().StringVarP(&scanConfig.Sources, "sources", "b", "", "Comma separated theHarvester sources (default all)")
	scanCmd.Flags().BoolVar(&scanConfig.JSON, "json", false, "Print the scan record and findings as JSON")

	scanCmd.MarkFlagRequired("domain")
	scanCmd.MarkFlagRequired("tool")

	return scanCmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	return config.Load(configFile)
}

func noColor(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("no-color")
	return v
}
