package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/b0ase/cashboard/infra"
)

const stopTimeout = 5 * time.Second

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the API server as a background daemon",
	RunE:  func(cmd *cobra.Command, args []string) error { return startDaemon(cfg.Home) },
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background daemon",
	RunE:  func(cmd *cobra.Command, args []string) error { return stopDaemon(cfg.Home) },
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE:  func(cmd *cobra.Command, args []string) error { return statusDaemon(cfg.Home) },
}

func pidFilePath(home string) string { return filepath.Join(home, "cashboard.pid") }

func logFilePath(home string) string { return filepath.Join(home, "cashboard.log") }

func readPID(home string) (int, error) {
	b, err := os.ReadFile(pidFilePath(home))
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(b)))
}

func writePID(home string, pid int) error {
	return os.WriteFile(pidFilePath(home), []byte(strconv.Itoa(pid)), 0o644)
}

func removePIDFile(home string) { _ = os.Remove(pidFilePath(home)) }

func isRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	// EPERM: exists, owned by someone else
	return err == syscall.EPERM
}

// daemonArgs forwards the global flags the daemon must agree on.
func daemonArgs() []string {
	args := []string{"server"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	if backend != "" {
		args = append(args, "--store", backend)
	}
	if dataDir != "" {
		args = append(args, "--data-dir", dataDir)
	}
	return args
}

func startDaemon(home string) error {
	if err := infra.EnsureDir(home); err != nil {
		return err
	}
	if pid, err := readPID(home); err == nil && isRunning(pid) {
		return fmt.Errorf("cashboard already running (pid %d)", pid)
	}

	logPath := logFilePath(home)
	lf, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer lf.Close()
	_, _ = io.WriteString(lf, time.Now().Format(time.RFC3339)+" starting cashboard daemon\n")

	bin, err := os.Executable()
	if err != nil {
		return err
	}
	cmd := exec.Command(bin, daemonArgs()...)
	cmd.Stdout = lf
	cmd.Stderr = lf
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	if err := writePID(home, cmd.Process.Pid); err != nil {
		return err
	}
	logger.Info("daemon started", zap.Int("pid", cmd.Process.Pid), zap.String("log", logPath))
	fmt.Printf("Cashboard started in background (pid %d). Logs: %s\n", cmd.Process.Pid, logPath)
	return nil
}

func stopDaemon(home string) error {
	pid, err := readPID(home)
	if err != nil {
		return fmt.Errorf("cannot read pid file: %w", err)
	}
	if !isRunning(pid) {
		removePIDFile(home)
		fmt.Println("Cashboard is not running")
		return nil
	}
	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return err
	}
	deadline := time.Now().Add(stopTimeout)
	for time.Now().Before(deadline) {
		if !isRunning(pid) {
			removePIDFile(home)
			fmt.Println("Cashboard stopped")
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}
	_ = syscall.Kill(pid, syscall.SIGKILL)
	removePIDFile(home)
	logger.Warn("daemon did not stop in time, killed", zap.Int("pid", pid))
	fmt.Println("Cashboard force-stopped")
	return nil
}

func statusDaemon(home string) error {
	pid, err := readPID(home)
	if err != nil {
		fmt.Println("Cashboard not running (no pid file)")
		return nil
	}
	if isRunning(pid) {
		fmt.Printf("Cashboard running (pid %d). Logs: %s\n", pid, logFilePath(home))
	} else {
		fmt.Printf("Cashboard not running (stale pid %d)\n", pid)
		removePIDFile(home)
	}
	return nil
}
