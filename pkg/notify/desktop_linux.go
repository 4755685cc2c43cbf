package notify

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsDest = "org.freedesktop.Notifications"
	notificationsPath = "/org/freedesktop/Notifications"
	notifyMethod      = notificationsDest + ".Notify"

	// expireTimeout is in milliseconds.
	expireTimeout = int32(5000)
	icon          = "input-gaming"
)

type dbusDeliverer struct {
	conn    *dbus.Conn
	appName string
}

func newDesktop(appName string) (Deliverer, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &dbusDeliverer{conn: conn, appName: appName}, nil
}

func (d *dbusDeliverer) Deliver(t Toast) error {
	obj := d.conn.Object(notificationsDest, dbus.ObjectPath(notificationsPath))
	call := obj.Call(notifyMethod, 0,
		d.appName,
		uint32(0), // replaces_id
		icon,
		t.Title,
		t.Body,
		[]string{},
		map[string]dbus.Variant{},
		expireTimeout,
	)
	if call.Err != nil {
		return fmt.Errorf("failed to call %s: %w", notifyMethod, call.Err)
	}
	return nil
}
