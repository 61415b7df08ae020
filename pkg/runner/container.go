package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	apperrors "osintrecon/pkg/errors"
	"osintrecon/pkg/logger"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/sirupsen/logrus"
)

// DockerAPI is the subset of the docker client the runner uses.
type DockerAPI interface {
	ImageInspect(ctx context.Context, imageID string, inspectOpts ...client.ImageInspectOption) (image.InspectResponse, error)
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
}

type Timeouts struct {
	Pull time.Duration
	Wait time.Duration
	Logs time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Pull: 5 * time.Minute,
		Wait: 5 * time.Minute,
		Logs: 10 * time.Second,
	}
}

const removeTimeout = 30 * time.Second

type OptFunc func(*DockerRunner)

// DockerRunner runs every request in a fresh container that it always removes.
type DockerRunner struct {
	client   DockerAPI
	timeouts Timeouts
	logger   *logger.Logger
}

func WithTimeouts(t Timeouts) OptFunc {
	return func(r *DockerRunner) {
		r.timeouts = t
	}
}

func WithLogger(l *logger.Logger) OptFunc {
	return func(r *DockerRunner) {
		r.logger = l
	}
}

// NewDockerClient connects using the standard DOCKER_* environment, or host
// when it is set. No connection is made until the first call.
func NewDockerClient(host string) (*client.Client, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return cli, nil
}

func NewDockerRunner(api DockerAPI, opts ...OptFunc) *DockerRunner {
	r := &DockerRunner{
		client:   api,
		timeouts: DefaultTimeouts(),
		logger:   logger.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run returns an error only when the image cannot be made available. Failures
// after that point are reported as the returned output text.
func (r *DockerRunner) Run(ctx context.Context, req Request) (string, error) {
	entry := r.logger.WithFields(logger.Fields{"image": req.Image})

	if err := r.ensureImage(ctx, entry, req.Image); err != nil {
		return "", err
	}

	var containerID string
	defer func() {
		if containerID != "" {
			r.remove(ctx, entry, containerID)
		}
	}()

	output, err := r.execute(ctx, entry, req, &containerID)
	if err != nil {
		entry.WithError(err).Error("Container execution failed")
		return fmt.Sprintf("Error executing container: %v", err), nil
	}
	return output, nil
}

func (r *DockerRunner) ensureImage(ctx context.Context, entry *logrus.Entry, ref string) error {
	_, err := r.client.ImageInspect(ctx, ref)
	switch {
	case err == nil:
		return nil
	case client.IsErrConnectionFailed(err):
		return apperrors.NewContainerError("inspect", fmt.Errorf("%w: %v", apperrors.ErrRuntimeUnavailable, err))
	case !cerrdefs.IsNotFound(err):
		// the image may still be usable; create will tell
		entry.WithError(err).Warn("Image inspect failed, assuming image is present")
		return nil
	}

	return r.logger.LogStep(entry, "pull", func() error {
		pullCtx, cancel := context.WithTimeout(ctx, r.timeouts.Pull)
		defer cancel()

		progress, err := r.client.ImagePull(pullCtx, ref, image.PullOptions{})
		if err != nil {
			return fmt.Errorf("%w: %s: %v", apperrors.ErrImagePull, ref, err)
		}
		defer progress.Close()

		if err := jsonmessage.DisplayJSONMessagesStream(progress, io.Discard, 0, false, nil); err != nil {
			return fmt.Errorf("%w: %s: %v", apperrors.ErrImagePull, ref, err)
		}
		return nil
	})
}

func (r *DockerRunner) execute(ctx context.Context, entry *logrus.Entry, req Request, containerID *string) (string, error) {
	err := r.logger.LogStep(entry, "create", func() error {
		resp, err := r.client.ContainerCreate(ctx,
			&container.Config{
				Image:      req.Image,
				Cmd:        req.Args,
				Entrypoint: req.Entrypoint,
				Labels:     req.Labels,
			},
			// logs are read after exit, so the daemon must not remove it
			&container.HostConfig{AutoRemove: false},
			nil, nil, "")
		if err != nil {
			return apperrors.NewContainerError("create", err)
		}
		*containerID = resp.ID
		return nil
	})
	if err != nil {
		return "", err
	}

	entry = entry.WithField("container_id", *containerID)

	err = r.logger.LogStep(entry, "start", func() error {
		if err := r.client.ContainerStart(ctx, *containerID, container.StartOptions{}); err != nil {
			return apperrors.NewContainerError("start", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if err := r.logger.LogStep(entry, "wait", func() error {
		return r.wait(ctx, entry, *containerID)
	}); err != nil {
		return "", err
	}

	var output string
	err = r.logger.LogStep(entry, "logs", func() error {
		var logErr error
		output, logErr = r.collectLogs(ctx, entry, *containerID)
		return logErr
	})
	if err != nil {
		return "", err
	}
	return output, nil
}

// wait blocks until the container stops or the wait ceiling passes. Reaching
// the ceiling is not an error; the caller still collects whatever was logged.
func (r *DockerRunner) wait(ctx context.Context, entry *logrus.Entry, containerID string) error {
	waitCtx, cancel := context.WithTimeout(ctx, r.timeouts.Wait)
	defer cancel()

	statusCh, errCh := r.client.ContainerWait(waitCtx, containerID, container.WaitConditionNotRunning)
	select {
	case status := <-statusCh:
		fields := logrus.Fields{"exit_code": status.StatusCode}
		if status.Error != nil {
			fields["wait_error"] = status.Error.Message
		}
		entry.WithFields(fields).Info("Container exited")
		return nil
	case err := <-errCh:
		if waitCtx.Err() != nil {
			entry.WithField("ceiling", r.timeouts.Wait.String()).Warn("Container wait ceiling reached, collecting partial output")
			return nil
		}
		return apperrors.NewContainerError("wait", err)
	case <-waitCtx.Done():
		entry.WithField("ceiling", r.timeouts.Wait.String()).Warn("Container wait ceiling reached, collecting partial output")
		return nil
	}
}

// collectLogs demultiplexes stdout and stderr into one buffer in arrival order.
func (r *DockerRunner) collectLogs(ctx context.Context, entry *logrus.Entry, containerID string) (string, error) {
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeouts.Logs)
	defer cancel()

	stream, err := r.client.ContainerLogs(logCtx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return "", apperrors.NewContainerError("logs", err)
	}
	defer stream.Close()

	var buf bytes.Buffer
	if _, err := stdcopy.StdCopy(&buf, &buf, stream); err != nil {
		if logCtx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			entry.WithField("bytes", buf.Len()).Warn("Log capture timed out, keeping partial output")
			return buf.String(), nil
		}
		return "", apperrors.NewContainerError("logs", err)
	}
	return buf.String(), nil
}

// remove is best-effort: the container may already be gone, and a leftover
// container must not change the scan outcome.
func (r *DockerRunner) remove(ctx context.Context, entry *logrus.Entry, containerID string) {
	removeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), removeTimeout)
	defer cancel()

	err := r.client.ContainerRemove(removeCtx, containerID, container.RemoveOptions{
		Force:         true,
		RemoveVolumes: true,
	})
	if err != nil {
		entry.WithField("container_id", containerID).WithError(err).Debug("Container removal failed, ignoring")
	}
}
