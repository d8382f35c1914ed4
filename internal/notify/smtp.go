package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/queue"
)

// smtpTimeout bounds a send when the caller's context has no deadline.
const smtpTimeout = 15 * time.Second

// sendMailFunc is smtp.SendMail plus a context; tests swap it out.
type sendMailFunc func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends HTML mail through an SMTP relay, upgrading to STARTTLS
// whenever the server offers it.  With no host configured the mailer only
// logs what it would have sent.
type SMTPMailer struct {
	cfg  config.SMTPConfig
	log  *zerolog.Logger
	send sendMailFunc
}

// NewSMTPMailer returns a mailer for cfg.
func NewSMTPMailer(cfg config.SMTPConfig, log *zerolog.Logger) *SMTPMailer {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPMailer{cfg: cfg, log: log, send: sendMail}
}

// Send renders and delivers one message.  Failures are logged at warn level.
func (m *SMTPMailer) Send(ctx context.Context, to string, kind Kind, fields map[string]string) bool {
	if strings.TrimSpace(to) == "" {
		return false
	}
	if err := m.deliver(ctx, to, kind, fields); err != nil {
		m.log.Warn().Err(err).Str("to", to).Str("kind", string(kind)).Msg("email not sent")
		return false
	}
	return true
}

// Deliver sends a queued event.  It is the handler the notification
// consumer runs for each message, so errors are returned instead of logged.
func (m *SMTPMailer) Deliver(ctx context.Context, ev queue.NotificationEvent) error {
	return m.deliver(ctx, ev.To, Kind(ev.Kind), ev.Fields)
}

func (m *SMTPMailer) deliver(ctx context.Context, to string, kind Kind, fields map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subject, body, err := Render(kind, fields)
	if err != nil {
		return err
	}
	if m.cfg.Host == "" {
		m.log.Info().Str("to", to).Str("subject", subject).Msg("smtp not configured; mock send")
		return nil
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)
	if err := m.send(ctx, addr, auth, m.cfg.From, []string{to}, buildMessage(m.cfg.From, to, subject, body)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	m.log.Info().Str("to", to).Str("kind", string(kind)).Msg("email sent")
	return nil
}

// sendMail is smtp.SendMail with the whole conversation bound to ctx: the
// connection deadline follows ctx (or smtpTimeout) and cancelling ctx
// aborts a relay that stopped answering.
func sendMail(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(smtpTimeout)
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := conn.SetDeadline(deadline); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Unix(1, 0)) })
	defer stop()

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer c.Close()
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}); err != nil {
			return err
		}
	}
	if a != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("smtp: server does not support AUTH")
		}
		if err := c.Auth(a); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
