package pdfcanon

import (
	"context"
	"os/exec"
)

// CommandRunner abstracts external tool invocation so tests can script the
// tool's behavior without a qpdf binary on PATH.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner invokes real processes. The context bounds the run: on timeout
// or cancellation the process is killed and an error returned.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// lookPath reports whether the named tool resolves from PATH.
func lookPath(name string) error {
	_, err := exec.LookPath(name)
	return err
}
