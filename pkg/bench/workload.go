package bench

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// Workload is the unit under measurement, typically one training run.
// Run must honor ctx cancellation; Measure relies on it to stop the
// workload when the run is interrupted.
type Workload interface {
	Name() string
	Run(ctx context.Context) error
}

// Command runs an external training command as the workload. Stdout and
// stderr pass through to the parent by default so framework progress bars
// stay visible.
type Command struct {
	Path   string
	Args   []string
	Dir    string
	Env    []string // appended to the parent environment
	Stdout io.Writer
	Stderr io.Writer
}

func NewCommand(path string, args ...string) *Command {
	return &Command{Path: path, Args: args}
}

func (c *Command) Name() string { return filepath.Base(c.Path) }

func (c *Command) Run(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdout = c.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = c.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}

// Func adapts an in-process function, mostly for tests and embedding.
type Func struct {
	Label string
	Fn    func(ctx context.Context) error
}

func (f Func) Name() string {
	if f.Label != "" {
		return f.Label
	}
	return "func"
}

func (f Func) Run(ctx context.Context) error {
	if f.Fn == nil {
		return nil
	}
	return f.Fn(ctx)
}
