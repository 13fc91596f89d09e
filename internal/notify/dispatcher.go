package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sourcegraph/conc"

	"storefront/internal/models"
)

var errNoRecipients = errors.New("no admin recipients registered")

// Relay pushes an order to the external messaging relay.
type Relay interface {
	Send(ctx context.Context, order models.Order) error
}

// Inbox is the admin message table.
type Inbox interface {
	Recipients(ctx context.Context) ([]models.Admin, error)
	Deliver(ctx context.Context, msg models.Message) error
}

// Outcome reports each channel separately. Errors carry one entry per failed
// channel, prefixed with the channel name.
type Outcome struct {
	WebhookOK    bool     `json:"telegram"`
	AdminInboxOK bool     `json:"admin"`
	Errors       []string `json:"errors"`
}

// Success is true when at least one channel got through.
func (o Outcome) Success() bool {
	return o.WebhookOK || o.AdminInboxOK
}

type Dispatcher struct {
	relay       Relay
	inbox       Inbox
	senderEmail string
	timeout     time.Duration
	now         func() time.Time
}

// NewDispatcher builds a dispatcher. A timeout of zero waits for both
// channels however long they take.
func NewDispatcher(relay Relay, inbox Inbox, senderEmail string, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		relay:       relay,
		inbox:       inbox,
		senderEmail: senderEmail,
		timeout:     timeout,
		now:         time.Now,
	}
}

// Notify runs the webhook and the admin inbox write concurrently and never
// returns an error. Channels still running when the timeout fires are
// reported as failed and left to finish in the background.
func (d *Dispatcher) Notify(ctx context.Context, order models.Order) Outcome {
	log.Printf("[NOTIFY] [INFO] processing order notification for: %s", order.OrderNumber)

	// the channels must outlive a cancelled request
	bg := context.WithoutCancel(ctx)

	webhookCh := make(chan error, 1)
	inboxCh := make(chan error, 1)

	go func() { webhookCh <- settle(func() error { return d.relay.Send(bg, order) }) }()
	go func() { inboxCh <- settle(func() error { return d.notifyAdmins(bg, order) }) }()

	var timeout <-chan time.Time
	if d.timeout > 0 {
		timer := time.NewTimer(d.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	var webhookErr, inboxErr error
	webhookPending, inboxPending := true, true

wait:
	for webhookPending || inboxPending {
		select {
		case err := <-webhookCh:
			webhookErr, webhookPending = err, false
		case err := <-inboxCh:
			inboxErr, inboxPending = err, false
		case <-timeout:
			if webhookPending {
				webhookErr = fmt.Errorf("no answer after %s", d.timeout)
			}
			if inboxPending {
				inboxErr = fmt.Errorf("no answer after %s", d.timeout)
			}
			break wait
		}
	}

	outcome := Outcome{Errors: []string{}}
	if webhookErr != nil {
		log.Printf("[NOTIFY] [ERROR] telegram notification failed for %s: %v", order.OrderNumber, webhookErr)
		outcome.Errors = append(outcome.Errors, "Telegram: "+webhookErr.Error())
	} else {
		log.Printf("[NOTIFY] [INFO] telegram notification sent for %s", order.OrderNumber)
		outcome.WebhookOK = true
	}
	if inboxErr != nil {
		log.Printf("[NOTIFY] [ERROR] admin notification failed for %s: %v", order.OrderNumber, inboxErr)
		outcome.Errors = append(outcome.Errors, "Admin: "+inboxErr.Error())
	} else {
		log.Printf("[NOTIFY] [INFO] admin notifications written for %s", order.OrderNumber)
		outcome.AdminInboxOK = true
	}
	return outcome
}

// notifyAdmins writes one notice per admin. It fails only when no notice
// could be written at all.
func (d *Dispatcher) notifyAdmins(ctx context.Context, order models.Order) error {
	admins, err := d.inbox.Recipients(ctx)
	if err != nil {
		return fmt.Errorf("fetch admins: %w", err)
	}
	if len(admins) == 0 {
		return errNoRecipients
	}

	log.Printf("[NOTIFY] [INFO] notifying %d admin(s) about new order: %s", len(admins), order.OrderNumber)

	var failures []error
	written := 0
	for _, admin := range admins {
		msg := AdminNotice(order, admin.Email, d.senderEmail, d.now())
		if err := d.inbox.Deliver(ctx, msg); err != nil {
			log.Printf("[NOTIFY] [WARN] admin notice for %s failed: %v", admin.Email, err)
			failures = append(failures, fmt.Errorf("%s: %w", admin.Email, err))
			continue
		}
		written++
	}
	if written == 0 {
		return errors.Join(failures...)
	}
	return nil
}

// settle runs fn and turns a panic into an error.
func settle(fn func() error) error {
	var err error
	var wg conc.WaitGroup
	wg.Go(func() { err = fn() })
	if r := wg.WaitAndRecover(); r != nil {
		return r.AsError()
	}
	return err
}
