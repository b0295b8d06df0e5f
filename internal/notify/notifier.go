// Package notify delivers account notifications (registration, password reset,
// login codes) to the outside world.
package notify

import "context"

type Kind string

const (
	KindRegistration  Kind = "registration"
	KindPasswordReset Kind = "password_reset"
	KindLoginCode     Kind = "login_code"
)

type Message struct {
	Kind    Kind
	To      string
	Subject string
	Body    string
}

// Notifier sends a message. Implementations must be safe for concurrent use.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, msg Message) error

func (f NotifierFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }
