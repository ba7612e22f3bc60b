package flasher

import (
	"bufio"
	"errors"
	"io"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// Process is a handle on a running flash tool.
type Process interface {
	// Output streams combined stdout and stderr lines in arrival order. The
	// channel closes when the process closes its output.
	Output() <-chan string
	// Wait blocks until the process exits and returns its exit code. A
	// negative code means the process was killed by a signal.
	Wait() (int, error)
	// Terminate sends SIGTERM to the process group.
	Terminate() error
	// Kill sends SIGKILL to the process group.
	Kill() error
}

// Launcher starts flash tool processes. Injectable for tests.
type Launcher interface {
	Launch(dir, name string, args ...string) (Process, error)
}

// NewExecLauncher returns the production launcher backed by os/exec.
func NewExecLauncher() Launcher {
	return execLauncher{}
}

type execLauncher struct{}

func (execLauncher) Launch(dir, name string, args ...string) (Process, error) {
	cmd := exec.Command(name, args...) //nolint:gosec
	cmd.Dir = dir
	// Own process group so cancellation signals reach sudo children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	// A single pipe shared by both streams preserves the combined arrival
	// order of stdout and stderr lines.
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return nil, &SpawnError{Binary: name, Err: err}
	}

	p := &execProcess{
		cmd:      cmd,
		lines:    make(chan string, 256),
		waitDone: make(chan struct{}),
	}

	go func() {
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			p.lines <- scanner.Text()
		}
		close(p.lines)
	}()

	go func() {
		p.waitErr = cmd.Wait()
		pw.Close()
		close(p.waitDone)
	}()

	return p, nil
}

type execProcess struct {
	cmd      *exec.Cmd
	lines    chan string
	waitErr  error
	waitDone chan struct{}
}

func (p *execProcess) Output() <-chan string {
	return p.lines
}

func (p *execProcess) Wait() (int, error) {
	<-p.waitDone
	if p.waitErr == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(p.waitErr, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, p.waitErr
}

func (p *execProcess) Terminate() error {
	return p.signal(unix.SIGTERM)
}

func (p *execProcess) Kill() error {
	return p.signal(unix.SIGKILL)
}

// signal targets the process group. ESRCH means the group is already gone,
// which is not an error for our purposes.
func (p *execProcess) signal(sig unix.Signal) error {
	if p.cmd.Process == nil {
		return nil
	}
	err := unix.Kill(-p.cmd.Process.Pid, sig)
	if err == unix.ESRCH {
		return nil
	}
	return err
}
