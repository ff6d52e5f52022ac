//go:build linux

package platform

import (
	"context"

	"github.com/godbus/dbus/v5"
)

// Notify sends a desktop notification using the freedesktop.org
// notification interface.
func Notify(ctx context.Context, title, body string, opts Options) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return err
	}
	defer conn.Close()

	hints := map[string]dbus.Variant{}
	if opts.IconPath != "" {
		hints["image-path"] = dbus.MakeVariant(opts.IconPath)
	}
	obj := conn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")
	call := obj.CallWithContext(ctx, "org.freedesktop.Notifications.Notify", 0,
		AppName, uint32(0), opts.IconPath, title, body, []string{}, hints, opts.expireMillis())
	return call.Err
}
