package session

import "github.com/mindwell/messaging/sdk"

// Notifier receives messages arriving in conversations that are not
// currently open. Implementations raise toasts, badges, or OS
// notifications.
type Notifier interface {
	Notify(counterpartKey string, msg *sdk.MessageInfo)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(counterpartKey string, msg *sdk.MessageInfo)

// Notify calls the function
func (f NotifierFunc) Notify(counterpartKey string, msg *sdk.MessageInfo) {
	f(counterpartKey, msg)
}
