// Package whatsapp builds click-to-chat links for a registration. The link
// is handed to a Launcher; opening it is left to the agent's device.
package whatsapp

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"ehopa/internal/notify"
	"ehopa/internal/registration/models"
)

const baseURL = "https://wa.me/"

// Launcher receives the composed link.
type Launcher interface {
	Launch(ctx context.Context, link string) error
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context, link string) error

func (f LauncherFunc) Launch(ctx context.Context, link string) error {
	return f(ctx, link)
}

// Notifier composes a wa.me link for each submission.
type Notifier struct {
	number   string
	launcher Launcher
	logger   *slog.Logger
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) {
		n.logger = logger
	}
}

// New sends links addressed to number. An empty number lets the agent pick
// the contact.
func New(number string, launcher Launcher, opts ...Option) *Notifier {
	n := &Notifier{
		number:   digits(number),
		launcher: launcher,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify launches the link. Launch failures are logged only.
func (n *Notifier) Notify(ctx context.Context, summary models.Summary) {
	link := Link(n.number, notify.Message(summary))
	if err := n.launcher.Launch(ctx, link); err != nil {
		n.logger.WarnContext(ctx, "whatsapp handoff failed",
			"id", summary.Record.GeneratedID,
			"error", err,
		)
	}
}

// Link returns https://wa.me/{number}?text={message}. Spaces are encoded as
// %20, which every WhatsApp client decodes.
func Link(number, message string) string {
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return baseURL + digits(number) + "?text=" + text
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
