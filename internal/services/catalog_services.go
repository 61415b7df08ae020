package services

import (
	"osintrecon/pkg/tools"
)

// ToolSummary describes a scan tool to API clients.
type ToolSummary struct {
	Name            tools.ScanTool `json:"name"`
	Description     string         `json:"description"`
	Image           string         `json:"image"`
	SupportsLimit   bool           `json:"supportsLimit"`
	SupportsSources bool           `json:"supportsSources"`
}

type CatalogServiceMethods interface {
	GetScanTools() []ToolSummary
}

type catalogService struct {
	catalog *tools.Catalog
}

func NewCatalogService(catalog *tools.Catalog) CatalogServiceMethods {
	return &catalogService{catalog: catalog}
}

func (c *catalogService) GetScanTools() []ToolSummary {
	configs := c.catalog.Tools()
	summaries := make([]ToolSummary, 0, len(configs))
	for _, tc := range configs {
		summaries = append(summaries, ToolSummary{
			Name:            tc.Name,
			Description:     tc.Description,
			Image:           tc.Image,
			SupportsLimit:   tc.SupportsOption("Limit"),
			SupportsSources: tc.SupportsOption("Sources"),
		})
	}
	return summaries
}
