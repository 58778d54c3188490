package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/fentz26/daylog/internal/client"
	"github.com/fentz26/daylog/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive TUI, starting the daemon if needed",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	addr, err := resolveAPIAddr()
	if err != nil {
		return err
	}
	cl := client.New(addr)

	if !isDaemonRunning(cmd.Context(), cl) {
		fmt.Println("daylog daemon not running. Starting background service...")
		if err := startDaemon(cmd.Context(), cl); err != nil {
			return fmt.Errorf("failed to start daemon: %w", err)
		}
	}

	app := tui.New(addr)
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func isDaemonRunning(ctx context.Context, cl *client.Client) bool {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	_, err := cl.Health(ctx)
	return err == nil
}

func startDaemon(ctx context.Context, cl *client.Client) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}

	daemonArgs := []string{"daemon"}
	if dataDir != "" {
		daemonArgs = append(daemonArgs, "--data-dir", dataDir)
	}
	cmd := exec.Command(exe, daemonArgs...)
	// Detach so the daemon survives the TUI exiting.
	configureDaemonProc(cmd)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return err
	}

	fmt.Print("   Waiting for daemon...")
	for i := 0; i < 20; i++ {
		if isDaemonRunning(ctx, cl) {
			fmt.Println(" Done.")
			return nil
		}
		time.Sleep(250 * time.Millisecond)
		fmt.Print(".")
	}
	fmt.Println(" Timeout!")
	return fmt.Errorf("daemon started but API not reachable at %s", cl.BaseURL())
}
