package runner

import "context"

// Request describes one disposable container run.
type Request struct {
	Image string
	Args  []string
	// Entrypoint replaces the image entrypoint when set, for images whose
	// default entrypoint wraps the CLI.
	Entrypoint []string
	Labels     map[string]string
}

// ContainerRunner runs a tool in a disposable container and returns its
// combined stdout and stderr.
type ContainerRunner interface {
	Run(ctx context.Context, req Request) (string, error)
}
