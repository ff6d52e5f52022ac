// Package platform sends desktop notifications through the host's
// notification service.
package platform

import "time"

// AppName is reported to notification services as the sender.
const AppName = "snapmark"

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath points to an image shown with the notification where
	// supported.
	IconPath string
	// Timeout is how long the notification stays up. Zero uses the
	// server default.
	Timeout time.Duration
}

func (o Options) expireMillis() int32 {
	if o.Timeout <= 0 {
		return -1
	}
	return int32(o.Timeout / time.Millisecond)
}
