package errors

import (
	"errors"
	"fmt"
)

var (
	ErrScanNotFound         = errors.New("scan not found")
	ErrUnknownTool          = errors.New("unknown scan tool")
	ErrBlankDomain          = errors.New("domain must not be blank")
	ErrInvalidTransition    = errors.New("invalid scan state transition")
	ErrImagePull            = errors.New("image pull failed")
	ErrRuntimeUnavailable   = errors.New("container runtime unavailable")
	ErrDiscordNotConfigured = errors.New("discord client not configured")
)

// ContainerError records which runner step failed.
type ContainerError struct {
	Step string
	Err  error
}

func (e *ContainerError) Error() string {
	return fmt.Sprintf("container %s failed: %v", e.Step, e.Err)
}

func (e *ContainerError) Unwrap() error {
	return e.Err
}

func NewContainerError(step string, err error) *ContainerError {
	return &ContainerError{
		Step: step,
		Err:  err,
	}
}

type ConfigError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value: %v): %s", e.Field, e.Value, e.Message)
}

func NewConfigError(field string, value interface{}, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}
