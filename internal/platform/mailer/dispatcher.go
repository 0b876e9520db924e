// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

package mailer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/annetade/contacts/internal/platform/constants"
	"github.com/annetade/contacts/internal/platform/ctxutil"
)

// Dispatcher hands messages to a [Notifier] on background goroutines.
//
// Each send runs on a context detached from the request, bounded by its own
// timeout. Send methods always return nil; failures are logged.
type Dispatcher struct {
	next    Notifier
	timeout time.Duration

	wg sync.WaitGroup
}

// NewDispatcher wraps next with asynchronous delivery.
func NewDispatcher(next Notifier) *Dispatcher {
	return &Dispatcher{
		next:    next,
		timeout: constants.NotificationTimeout,
	}
}

func (dispatcher *Dispatcher) SendVerification(ctx context.Context, email, token string) error {
	dispatcher.dispatch(ctx, KindVerification, email, func(ctx context.Context) error {
		return dispatcher.next.SendVerification(ctx, email, token)
	})
	return nil
}

func (dispatcher *Dispatcher) SendPasswordReset(ctx context.Context, email, token string) error {
	dispatcher.dispatch(ctx, KindPasswordReset, email, func(ctx context.Context) error {
		return dispatcher.next.SendPasswordReset(ctx, email, token)
	})
	return nil
}

func (dispatcher *Dispatcher) dispatch(ctx context.Context, kind Kind, email string, send func(context.Context) error) {
	logger := ctxutil.GetLogger(ctx)
	detached := context.WithoutCancel(ctx)

	dispatcher.wg.Add(1)
	go func() {
		defer dispatcher.wg.Done()

		sendCtx, cancel := context.WithTimeout(detached, dispatcher.timeout)
		defer cancel()

		if err := send(sendCtx); err != nil {
			logger.ErrorContext(sendCtx, "notifier_dispatch_failed",
				slog.String("kind", string(kind)),
				slog.String("email", email),
				slog.Any("error", err),
			)
			return
		}
		logger.DebugContext(sendCtx, "notifier_dispatched", slog.String("kind", string(kind)))
	}()
}

// Wait blocks until in-flight sends finish or ctx is done.
func (dispatcher *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		dispatcher.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
