package executor

import "context"

// Executor defines the interface for executing external commands
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (string, error)
	ExecuteInDir(ctx context.Context, dir string, name string, args ...string) (string, error)
	// Start launches a long-running command (a player, a speech engine) and
	// returns without waiting for it.
	Start(ctx context.Context, name string, args ...string) (Process, error)
	LookPath(name string) (string, error)
}

// Process is a started command.
type Process interface {
	Wait() error
	Kill() error
}
