package systemd

// Readiness notifications for running under a systemd user service. Outside
// systemd (NOTIFY_SOCKET unset) every call is a no-op.

import "github.com/coreos/go-systemd/v22/daemon"

func NotifyReady() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
}

func NotifyStopping() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
}

func NotifyStatus(status string) {
	_, _ = daemon.SdNotify(false, "STATUS="+status)
}
