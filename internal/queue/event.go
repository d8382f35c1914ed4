// Package queue defines message payloads exchanged over the message broker.
package queue

// NotificationQueue is the durable queue carrying NotificationEvent
// messages from the web process to the mail consumer.
const NotificationQueue = "notifications"

// NotificationEvent asks the consumer to send one e-mail.  Kind is one of
// the notify kinds ("register", "booking_confirmation",
// "booking_cancellation"); Fields fills the template placeholders.
type NotificationEvent struct {
    To        string            `json:"to"`
    Kind      string            `json:"kind"`
    Fields    map[string]string `json:"fields,omitempty"`
    CreatedAt string            `json:"created_at"`
}
