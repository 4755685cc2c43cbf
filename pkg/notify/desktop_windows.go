package notify

import (
	"github.com/go-toast/toast"
)

type toastDeliverer struct {
	appID string
}

func newDesktop(appName string) (Deliverer, error) {
	return &toastDeliverer{appID: appName}, nil
}

func (d *toastDeliverer) Deliver(t Toast) error {
	n := toast.Notification{
		AppID:   d.appID,
		Title:   t.Title,
		Message: t.Body,
	}
	return n.Push()
}
