// Package notify sends the e-mails triggered by registration and booking
// changes.  Delivery is always best effort: a failed send is logged and
// reported as false, never as an error the caller has to handle.
package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
)

// Kind selects the message template.
type Kind string

const (
	KindRegister            Kind = "register"
	KindBookingConfirmation Kind = "booking_confirmation"
	KindBookingCancellation Kind = "booking_cancellation"
)

// Subjects used for outgoing mail.
const (
	SubjectRegister = "Registration Successful!"
	SubjectDefault  = "Notification from Our Service"
)

// Notifier delivers one message of the given kind to an address.  It
// reports whether the message was handed off; an empty address is skipped
// and reported as false.
type Notifier interface {
	Send(ctx context.Context, to string, kind Kind, fields map[string]string) bool
}

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Option("missingkey=zero").ParseFS(templateFS, "templates/*.html"))

// Subject returns the mail subject for kind.
func Subject(kind Kind) string {
	if kind == KindRegister {
		return SubjectRegister
	}
	return SubjectDefault
}

// Render fills the HTML template for kind with fields.
func Render(kind Kind, fields map[string]string) (subject, body string, err error) {
	t := templates.Lookup(string(kind) + ".html")
	if t == nil {
		return "", "", fmt.Errorf("unknown notification kind %q", kind)
	}
	if fields == nil {
		fields = map[string]string{}
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, fields); err != nil {
		return "", "", fmt.Errorf("render %s: %w", kind, err)
	}
	return Subject(kind), buf.String(), nil
}

// Nop discards every message.
type Nop struct{}

func (Nop) Send(context.Context, string, Kind, map[string]string) bool { return false }
