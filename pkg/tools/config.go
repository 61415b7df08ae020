package tools

import (
	"fmt"
	"reflect"
	"strings"
)

// Options carries the per-scan values that flags are built from.
type Options struct {
	Domain  string
	Limit   int
	Sources string
}

type FlagConfig struct {
	Flag         string `yaml:"flag" mapstructure:"flag"`
	Option       string `yaml:"option" mapstructure:"option"`
	Required     bool   `yaml:"required" mapstructure:"required"`
	Default      string `yaml:"default" mapstructure:"default"`
	IsPositional bool   `yaml:"is_positional" mapstructure:"is_positional"`
}

type ToolConfig struct {
	Name        ScanTool     `yaml:"name"`
	Description string       `yaml:"description"`
	Image       string       `yaml:"image"`
	Entrypoint  []string     `yaml:"entrypoint"`
	Flags       []FlagConfig `yaml:"flags"`
}

type CatalogConfig struct {
	Tools []ToolConfig `yaml:"tools"`
}

// BuildArgs turns the flag layout into container arguments. Numeric options
// that are not positive are treated as unset.
func (tc *ToolConfig) BuildArgs(options interface{}) ([]string, error) {
	var args []string
	optionsValue := reflect.ValueOf(options)

	if optionsValue.Kind() == reflect.Ptr {
		optionsValue = optionsValue.Elem()
	}

	for _, flag := range tc.Flags {
		if flag.IsPositional {
			args = append(args, flag.Flag)
			continue
		}

		if flag.Option == "" {
			if flag.Flag != "" {
				args = append(args, flag.Flag)
				if flag.Default != "" {
					args = append(args, flag.Default)
				}
			}
			continue
		}

		fieldValue := optionsValue.FieldByName(flag.Option)
		if !fieldValue.IsValid() {
			if flag.Default != "" {
				args = append(args, flag.Flag, flag.Default)
				continue
			}
			return nil, fmt.Errorf("field '%s' not found in options", flag.Option)
		}

		value := optionValue(fieldValue)

		if flag.Required && value == "" {
			return nil, fmt.Errorf("required option '%s' missing", flag.Option)
		}

		if value == "" && flag.Default != "" {
			value = flag.Default
		}

		if value != "" {
			args = append(args, flag.Flag, value)
		}
	}
	return args, nil
}

func optionValue(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.Int() <= 0 {
			return ""
		}
		return fmt.Sprintf("%d", v.Int())
	case reflect.String:
		return strings.TrimSpace(v.String())
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

func (tc *ToolConfig) Validate() error {
	if !tc.Name.Valid() {
		return fmt.Errorf("tool %q is not supported", tc.Name)
	}
	if strings.TrimSpace(tc.Image) == "" {
		return fmt.Errorf("tool %s has no image", tc.Name)
	}
	return nil
}

// SupportsOption reports whether any flag is fed from the named Options field.
func (tc *ToolConfig) SupportsOption(option string) bool {
	for _, flag := range tc.Flags {
		if flag.Option == option {
			return true
		}
	}
	return false
}
