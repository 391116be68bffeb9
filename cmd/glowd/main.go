package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"glowd/internal/app"
	"glowd/pkg/systemd"
)

func main() {
	var (
		cfgPath string
		pidPath string
		signOut bool
	)
	flag.StringVar(&cfgPath, "config", "./config.json", "path to config file (json or yaml)")
	flag.StringVar(&pidPath, "pidfile", filepath.Join(os.TempDir(), "glowd.pid"), "path to the daemon pid file")
	flag.BoolVar(&signOut, "signout", false, "ask the running daemon to cancel every scheduled alert")
	flag.Parse()

	if signOut {
		if err := signalSignOut(pidPath); err != nil {
			fmt.Println("fatal:", err)
			os.Exit(1)
		}
		fmt.Println("sign-out delivered")
		return
	}

	a, err := app.NewApp(cfgPath)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Start(ctx); err != nil {
		fmt.Println("fatal start:", err)
		os.Exit(1)
	}
	if err := app.WritePIDFile(pidPath); err != nil {
		fmt.Fprintln(os.Stderr, "warning: pid file:", err)
	}
	defer app.RemovePIDFile(pidPath)
	systemd.NotifyReady()
	systemd.NotifyStatus("reconciling alerts")

	term := make(chan os.Signal, 2)
	signal.Notify(term, os.Interrupt, syscall.SIGTERM)
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	usr1 := make(chan os.Signal, 1)
	signal.Notify(usr1, syscall.SIGUSR1)

	reason := app.StopUnknown
loop:
	for {
		select {
		case s := <-term:
			if s == os.Interrupt {
				reason = app.StopSIGINT
			} else {
				reason = app.StopSIGTERM
			}
			break loop
		case <-hup:
			// External data changed (sync, migration); rebuild everything.
			a.RequestReconcileAll()
		case <-usr1:
			// Account sign-out: drop every scheduled alert, keep the replica.
			soCtx, soCancel := context.WithTimeout(context.Background(), 5*time.Second)
			a.SignOut(soCtx)
			soCancel()
		case <-a.Done():
			reason = app.StopFatalError
			break loop
		}
	}

	systemd.NotifyStopping()
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	_ = a.Stop(stopCtx, reason)

	if err := a.Err(); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}

// signalSignOut asks the daemon named by the pid file to run its global
// cancel-all. The alert table lives in the daemon process, so a fresh
// process cannot clear it directly.
func signalSignOut(pidPath string) error {
	pid, err := app.ReadPIDFile(pidPath)
	if err != nil {
		return fmt.Errorf("no running daemon found: %w", err)
	}
	if err := syscall.Kill(pid, syscall.SIGUSR1); err != nil {
		return fmt.Errorf("signalling pid %d: %w", pid, err)
	}
	return nil
}
