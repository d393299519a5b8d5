package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-otp-auth/internal/domain"
)

const defaultTimeout = 10 * time.Second

// Sender dispatches a passcode to a contact address.
type Sender interface {
	Send(ctx context.Context, method domain.Method, address, code string)
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

// Dispatcher routes codes to SMS or e-mail. A nil sender for a channel turns
// that channel into a log-only stub.
type Dispatcher struct {
	sms     smsSender
	mail    mailer
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(sms smsSender, mail mailer, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Dispatcher{sms: sms, mail: mail, timeout: timeout}
}

// Send returns immediately; delivery runs in the background, detached from
// the request's cancellation, and failures are only logged.
func (d *Dispatcher) Send(ctx context.Context, method domain.Method, address, code string) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()
		if err := d.deliver(ctx, method, address, code); err != nil {
			slog.Error("otp delivery failed", "method", method, "err", err)
		}
	}()
}

// Wait blocks until all in-flight deliveries have finished. Used on shutdown.
func (d *Dispatcher) Wait() { d.wg.Wait() }

func (d *Dispatcher) deliver(ctx context.Context, method domain.Method, address, code string) error {
	msg := fmt.Sprintf("Your verification code is %s", code)
	switch method {
	case domain.MethodPhone:
		if d.sms == nil {
			slog.Info("otp delivery stubbed", "channel", "sms", "to", address)
			slog.Debug("otp stub payload", "to", address, "code", code)
			return nil
		}
		return d.sms.SendSMS(ctx, address, msg)
	case domain.MethodEmail:
		if d.mail == nil {
			slog.Info("otp delivery stubbed", "channel", "email", "to", address)
			slog.Debug("otp stub payload", "to", address, "code", code)
			return nil
		}
		return d.mail.SendEmail(address, "Your verification code", msg)
	}
	return fmt.Errorf("no delivery channel for method %q", method)
}
