package monitor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"sync"
	"time"

	"github.com/rileyhilliard/gpugraph/pkg/sshutil"
)

// Runner executes a source command and returns its stdout.
//
// An error means the command could not be started (or was cut off by ctx).
// A command that starts and exits non-zero is not an error: whatever it
// wrote to stdout is returned and scanned like any other output.
type Runner interface {
	Run(ctx context.Context, command string) ([]byte, error)
}

// LocalRunner runs commands through a local shell.
type LocalRunner struct {
	// Shell defaults to /bin/sh.
	Shell string
}

// Run implements Runner.
func (r *LocalRunner) Run(ctx context.Context, command string) ([]byte, error) {
	shell := r.Shell
	if shell == "" {
		shell = "/bin/sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	// Grandchildren of the shell can hold stdout open after a kill.
	cmd.WaitDelay = time.Second

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, err
		}
	}

	return stdout.Bytes(), nil
}

// remoteClient is the slice of sshutil.Client the remote runner needs.
type remoteClient interface {
	ExecContext(ctx context.Context, cmd string) (stdout []byte, exitCode int, err error)
	Close() error
}

// RemoteRunner runs commands on another machine over SSH.
// The connection is opened on first use and kept for later ticks. If a
// command can't be run on it, the connection is dropped and the next tick
// dials again.
type RemoteRunner struct {
	host        string
	dialTimeout time.Duration
	dial        func(host string, timeout time.Duration) (remoteClient, error)

	mu     sync.Mutex
	client remoteClient
}

// NewRemoteRunner creates a runner for host (an SSH alias, hostname or user@host).
func NewRemoteRunner(host string, dialTimeout time.Duration) *RemoteRunner {
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}
	return &RemoteRunner{
		host:        host,
		dialTimeout: dialTimeout,
		dial: func(host string, timeout time.Duration) (remoteClient, error) {
			client, err := sshutil.Dial(host, timeout)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
	}
}

// Host returns the host this runner connects to.
func (r *RemoteRunner) Host() string {
	return r.host
}

// Run implements Runner.
func (r *RemoteRunner) Run(ctx context.Context, command string) ([]byte, error) {
	client, err := r.get()
	if err != nil {
		return nil, err
	}

	stdout, _, err := client.ExecContext(ctx, command)
	if err != nil {
		r.drop(client)
		return nil, err
	}

	return stdout, nil
}

// Close closes the cached connection, if any.
func (r *RemoteRunner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	return err
}

func (r *RemoteRunner) get() (remoteClient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client != nil {
		return r.client, nil
	}

	client, err := r.dial(r.host, r.dialTimeout)
	if err != nil {
		return nil, err
	}
	r.client = client
	return client, nil
}

// drop forgets client if it's still the cached one.
func (r *RemoteRunner) drop(client remoteClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client == client {
		_ = r.client.Close()
		r.client = nil
	}
}
