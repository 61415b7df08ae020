package tools

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	apperrors "osintrecon/pkg/errors"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Invocation is everything the container runner needs for one tool run.
type Invocation struct {
	Image      string
	Entrypoint []string
	Args       []string
}

// Catalog maps each supported tool to its container definition.
type Catalog struct {
	configs map[ScanTool]*ToolConfig
	mutex   sync.RWMutex
}

func NewCatalog() *Catalog {
	return &Catalog{
		configs: make(map[ScanTool]*ToolConfig),
	}
}

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() (*Catalog, error) {
	c := NewCatalog()
	if err := c.loadYAML(defaultCatalogYAML); err != nil {
		return nil, fmt.Errorf("embedded tool catalog: %w", err)
	}
	return c, nil
}

// LoadCatalog starts from the embedded catalog and overlays entries from path,
// when path is set.
func LoadCatalog(path string) (*Catalog, error) {
	c, err := DefaultCatalog()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tool catalog %s: %w", path, err)
	}
	if err := c.loadYAML(data); err != nil {
		return nil, fmt.Errorf("tool catalog %s: %w", path, err)
	}
	return c, nil
}

func (c *Catalog) loadYAML(data []byte) error {
	var meta CatalogConfig
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return err
	}
	for _, cfg := range meta.Tools {
		if err := cfg.Validate(); err != nil {
			return err
		}
		c.RegisterTool(cfg)
	}
	return nil
}

func (c *Catalog) RegisterTool(config ToolConfig) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	configCopy := config
	c.configs[config.Name] = &configCopy
}

func (c *Catalog) GetToolConfig(tool ScanTool) (*ToolConfig, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	config, exists := c.configs[tool]
	if !exists {
		return nil, false
	}

	configCopy := *config
	return &configCopy, true
}

// Tools returns the registered definitions in AllTools order.
func (c *Catalog) Tools() []ToolConfig {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	result := make([]ToolConfig, 0, len(c.configs))
	for _, tool := range AllTools() {
		if config, ok := c.configs[tool]; ok {
			result = append(result, *config)
		}
	}
	return result
}

// Invocation builds the container image, entrypoint and arguments for a scan.
func (c *Catalog) Invocation(tool ScanTool, options Options) (Invocation, error) {
	config, ok := c.GetToolConfig(tool)
	if !ok {
		return Invocation{}, fmt.Errorf("%w: %s", apperrors.ErrUnknownTool, tool)
	}

	args, err := config.BuildArgs(&options)
	if err != nil {
		return Invocation{}, fmt.Errorf("failed to build arguments for %s: %w", tool, err)
	}

	return Invocation{
		Image:      config.Image,
		Entrypoint: append([]string(nil), config.Entrypoint...),
		Args:       args,
	}, nil
}
