package core

import (
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/fallwind/s-node/util/common"
)

// Core supervises the proxy engine binary as a child process. One child
// at a time; the caller decides what to do when the child exits.
type Core struct {
	mu      sync.Mutex
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
}

func NewCore() *Core {
	return &Core{}
}

// Start launches `bin run -c config` with both output streams going to
// logPath and returns without waiting for the child.
func (c *Core) Start(binPath string, configPath string, logPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd != nil && !c.exited() {
		return common.NewError("engine is already running")
	}

	if err := CheckExecutable(binPath); err != nil {
		return err
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	cmd := exec.Command(binPath, "run", "-c", configPath)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	if err := cmd.Start(); err != nil {
		logFile.Close()
		return err
	}

	done := make(chan struct{})
	c.cmd = cmd
	c.done = done

	go func() {
		err := cmd.Wait()
		c.mu.Lock()
		c.waitErr = err
		c.mu.Unlock()
		logFile.Close()
		close(done)
	}()

	return nil
}

func (c *Core) exited() bool {
	if c.done == nil {
		return true
	}
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Core) Exited() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exited()
}

func (c *Core) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cmd != nil && !c.exited()
}

func (c *Core) PID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cmd == nil || c.cmd.Process == nil {
		return 0
	}
	return c.cmd.Process.Pid
}

// Wait blocks until the child exits and returns its exit code. The
// parent mirrors this code on shutdown.
func (c *Core) Wait() int {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return 0
	}
	<-done

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cmd != nil && c.cmd.ProcessState != nil {
		return c.cmd.ProcessState.ExitCode()
	}
	return 0
}

func (c *Core) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cmd == nil || c.exited() {
		return nil
	}
	return c.cmd.Process.Kill()
}

// RunForeground re-runs the engine attached to the parent's stdio so
// its complaint reaches the operator, and returns the exit code.
func (c *Core) RunForeground(binPath string, configPath string) int {
	cmd := exec.Command(binPath, "run", "-c", configPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		return 1
	}
	return 0
}

// TailLog returns up to n trailing lines of the given log file.
func TailLog(logPath string, n int) []string {
	data, err := os.ReadFile(logPath)
	if err != nil {
		return nil
	}
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

func CheckExecutable(binPath string) error {
	info, err := os.Stat(binPath)
	if err != nil {
		return err
	}
	if info.Mode()&0111 == 0 {
		return common.NewErrorf("%s is not executable", binPath)
	}
	return nil
}
