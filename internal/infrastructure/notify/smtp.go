package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
)

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier mails a plain-text summary of each finished import.
type SMTPNotifier struct {
	cfg      SMTPConfig
	sendMail sendMailFunc
}

func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host not set")
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.From == "" {
		return nil, errors.New("smtp sender address not set")
	}
	return &SMTPNotifier{cfg: cfg, sendMail: smtp.SendMail}, nil
}

func (n *SMTPNotifier) NotifySuccess(ctx context.Context, to string, p domain.SuccessNotification) error {
	return n.send(ctx, to, successSubject(p), successBody(p))
}

func (n *SMTPNotifier) NotifyFailure(ctx context.Context, to string, p domain.FailureNotification) error {
	return n.send(ctx, to, failureSubject(p), failureBody(p))
}

func (n *SMTPNotifier) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(to, "\r\n") {
		return fmt.Errorf("invalid recipient %q", to)
	}
	if strings.ContainsAny(subject, "\r\n") {
		return fmt.Errorf("invalid subject %q", subject)
	}

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	msg := []byte(
		"From: " + n.cfg.From + "\r\n" +
			"To: " + to + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/plain; charset=UTF-8\r\n" +
			"\r\n" +
			strings.ReplaceAll(body, "\n", "\r\n"),
	)

	addr := net.JoinHostPort(n.cfg.Host, n.cfg.Port)
	if err := n.sendMail(addr, auth, n.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}
