package sshutil

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"

	"github.com/rileyhilliard/gpugraph/internal/errors"
	"golang.org/x/crypto/ssh"
)

// ExecContext runs cmd in a new session and returns its stdout and exit
// code. Stderr is discarded.
//
// A command that runs and exits non-zero is not an error. err is set only
// when the command couldn't be run at all (exit code -1), or when ctx ended
// first, in which case the remote process is sent SIGKILL.
func (c *Client) ExecContext(ctx context.Context, cmd string) ([]byte, int, error) {
	session, err := c.conn.NewSession()
	if err != nil {
		return nil, -1, errors.WrapWithCode(err, errors.ErrSSH,
			"Failed to create SSH session",
			"Connection may have been closed. Try reconnecting.")
	}
	defer session.Close()

	var stdout bytes.Buffer
	session.Stdout = &stdout

	if err := session.Start(cmd); err != nil {
		return nil, -1, errors.WrapWithCode(err, errors.ErrExec,
			fmt.Sprintf("Failed to start command: %s", cmd),
			"Check the command exists on the remote host.")
	}

	done := make(chan error, 1)
	go func() { done <- session.Wait() }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		<-done
		return nil, -1, ctx.Err()

	case err := <-done:
		if err == nil {
			return stdout.Bytes(), 0, nil
		}
		var exitErr *ssh.ExitError
		if stderrors.As(err, &exitErr) {
			return stdout.Bytes(), exitErr.ExitStatus(), nil
		}
		var missing *ssh.ExitMissingError
		if stderrors.As(err, &missing) {
			return stdout.Bytes(), -1, nil
		}
		return nil, -1, errors.WrapWithCode(err, errors.ErrExec,
			fmt.Sprintf("Command failed: %s", cmd),
			"Connection may have dropped. It will be retried on the next sample.")
	}
}
