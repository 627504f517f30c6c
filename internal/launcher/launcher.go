package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"

	"github.com/qwk-labs/qwk/internal/logging"
)

// Launcher starts a process and waits for it to finish.
type Launcher interface {
	Launch(ctx context.Context, argv []string) (int, error)
}

// SpawnError reports that the agent process could not be started at all.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ExecLauncher launches argv as a child process.
type ExecLauncher struct {
	// Stdin, Stdout and Stderr can be set for testing; defaults to the
	// process's own standard streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Env is the child's environment. Nil inherits the current environment.
	Env []string

	Log *logging.Logger
}

// Launch runs argv[0] with the remaining elements as arguments and blocks
// until it exits. A nonzero exit status is returned as the code with a nil
// error; only failures to start the process are errors.
func (l *ExecLauncher) Launch(ctx context.Context, argv []string) (int, error) {
	if len(argv) == 0 {
		return 1, &SpawnError{Err: errors.New("empty command line")}
	}
	log := l.Log
	if log == nil {
		log = logging.Nop()
	}
	log = log.Sub("launcher")

	bin, err := exec.LookPath(argv[0])
	if err != nil {
		return 127, &SpawnError{Command: argv[0], Err: err}
	}

	cmd := exec.CommandContext(ctx, bin, argv[1:]...)
	cmd.Args[0] = argv[0]
	cmd.Env = l.Env
	cmd.Stdin = l.Stdin
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	cmd.Stdout = l.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = l.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	// Registered before Start so no signal slips through between spawn and
	// the forwarder taking over.
	sigs := make(chan os.Signal, 4)
	signal.Notify(sigs, handledSignals...)
	defer signal.Stop(sigs)

	if err := cmd.Start(); err != nil {
		return 127, &SpawnError{Command: argv[0], Err: err}
	}
	log.Debug().Str("path", bin).Int("pid", cmd.Process.Pid).Int("args", len(argv)-1).Msg("agent started")

	done := make(chan struct{})
	go forward(cmd.Process, sigs, done, log)

	err = cmd.Wait()
	close(done)

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return 1, fmt.Errorf("waiting for %s: %w", argv[0], err)
		}
	}

	code := exitCode(cmd.ProcessState)
	log.Debug().Int("exit_code", code).Msg("agent exited")
	return code, nil
}

// forward relays signals to the child until done is closed. Interrupts are
// dropped: the terminal already sent them to the whole foreground group.
func forward(p *os.Process, sigs <-chan os.Signal, done <-chan struct{}, log *logging.Logger) {
	for {
		select {
		case <-done:
			return
		case s := <-sigs:
			if s == os.Interrupt {
				log.Trace().Msg("interrupt left to the agent")
				continue
			}
			log.Debug().Str("signal", s.String()).Msg("forwarding signal")
			_ = p.Signal(s)
		}
	}
}
