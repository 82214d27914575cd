// Package email notifies the listing owner of new leads over SMTP.
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/evcraddock/piso/internal/lead"
)

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// IsConfigured returns true if SMTP settings are present.
func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.From != ""
}

// FormatLead builds the plain-text body announcing l, dated in loc.
func FormatLead(l lead.Lead, loc *time.Location) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Hola,\n\nHas recibido un nuevo contacto para el piso:\n\n")
	fmt.Fprintf(&buf, "  Nombre:   %s\n", l.Name)
	fmt.Fprintf(&buf, "  Email:    %s\n", l.Email)
	fmt.Fprintf(&buf, "  Teléfono: %s\n", l.Phone)
	fmt.Fprintf(&buf, "  Fecha:    %s\n", lead.FormatDate(l.CreatedAt, loc))

	if msg := strings.TrimSpace(l.Message); msg != "" {
		fmt.Fprintf(&buf, "\nMensaje:\n")
		for _, line := range strings.Split(msg, "\n") {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}

	return buf.String()
}

// Subject returns the notification subject for l.
func Subject(l lead.Lead) string {
	return "Nuevo contacto: " + l.Name
}

// Send sends an email via SMTP.
// Supports both port 465 (implicit TLS) and port 587 (STARTTLS).
func Send(cfg SMTPConfig, to []string, subject, body string) error {
	if !cfg.IsConfigured() {
		return fmt.Errorf("SMTP not configured")
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		cfg.From,
		strings.Join(to, ", "),
		subject,
		body,
	)

	addr := cfg.Host + ":" + cfg.Port

	if cfg.Port == "465" {
		return sendImplicitTLS(cfg, addr, to, msg)
	}
	return sendSTARTTLS(cfg, addr, to, msg)
}

// sendImplicitTLS connects over TLS directly (port 465/SMTPS).
func sendImplicitTLS(cfg SMTPConfig, addr string, to []string, msg string) (err error) {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: cfg.Host})
	if err != nil {
		return fmt.Errorf("TLS dial: %w", err)
	}

	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer func() {
		if quitErr := c.Quit(); quitErr != nil && err == nil {
			err = fmt.Errorf("quit: %w", quitErr)
		}
	}()

	if cfg.User != "" {
		if err := c.Auth(smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return nil
}

// sendSTARTTLS connects plain then upgrades to TLS (port 587).
func sendSTARTTLS(cfg SMTPConfig, addr string, to []string, msg string) error {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, cfg.From, to, []byte(msg)); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

// SendFunc delivers one message. Send is the production implementation.
type SendFunc func(cfg SMTPConfig, to []string, subject, body string) error

// NotifyingStore is a lead.Store that mails the owner after every insert.
// A failed mail is logged; the stored lead is still returned.
type NotifyingStore struct {
	lead.Store

	cfg  SMTPConfig
	to   []string
	loc  *time.Location
	send SendFunc
}

// NewNotifyingStore wraps inner. A nil send uses Send.
func NewNotifyingStore(inner lead.Store, cfg SMTPConfig, to []string, loc *time.Location, send SendFunc) *NotifyingStore {
	if send == nil {
		send = Send
	}
	if loc == nil {
		loc = time.UTC
	}
	return &NotifyingStore{Store: inner, cfg: cfg, to: to, loc: loc, send: send}
}

// Insert stores the lead and then sends the notification.
func (s *NotifyingStore) Insert(ctx context.Context, f lead.Form) (*lead.Lead, error) {
	created, err := s.Store.Insert(ctx, f)
	if err != nil {
		return nil, err
	}

	if err := s.send(s.cfg, s.to, Subject(*created), FormatLead(*created, s.loc)); err != nil {
		slog.Warn("lead notification not sent", "lead", created.ID, "error", err)
	} else {
		slog.Info("lead notification sent", "lead", created.ID, "to", strings.Join(s.to, ", "))
	}
	return created, nil
}

var _ lead.Store = (*NotifyingStore)(nil)
