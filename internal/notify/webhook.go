package notify

import (
	"context"
	"time"

	"github.com/mlevkov/go-note-sync/internal/config"
	"github.com/mlevkov/go-note-sync/internal/crypto"
	"github.com/mlevkov/go-note-sync/internal/logger"
	"github.com/mlevkov/go-note-sync/internal/utils"
)

// deliveryTimeout bounds one webhook POST, independent of the caller's
// context. Keeps a dead consumer from pinning goroutines past shutdown.
const deliveryTimeout = 10 * time.Second

// WebhookNotifier signs events with the server key and POSTs them to every
// configured webhook URL. Delivery runs in the calling goroutine per target
// but Publish itself is invoked fire-and-forget by the services.
type WebhookNotifier struct {
	client *utils.HTTPClient
	signer crypto.Signer
	urls   []string

	uuid *utils.UUIDGenerator

	logger *logger.Logger
}

// NewWebhookNotifier constructs a notifier from the notify configuration.
// When no webhook URLs are configured a [NopNotifier] is returned instead,
// so callers never branch on configuration themselves.
func NewWebhookNotifier(cfg config.Notify, log *logger.Logger) (Notifier, error) {
	if len(cfg.WebhookURLs) == 0 {
		log.Info().Msg("no webhook targets configured, mutation events disabled")
		return NopNotifier{}, nil
	}

	signer, err := crypto.NewSigner(crypto.AlgorithmEd25519, cfg.PublicKey, cfg.SigningKey)
	if err != nil {
		return nil, err
	}

	client := utils.NewHTTPClient()
	client.SetTimeout(deliveryTimeout)

	return &WebhookNotifier{
		client: client,
		signer: signer,
		urls:   cfg.WebhookURLs,
		uuid:   utils.NewUUIDGenerator(),
		logger: log,
	}, nil
}

// Publish implements [Notifier]. The event is stamped, signed under the
// "server" role, and POSTed to every target. Failures are logged and
// swallowed; the mutation that produced the event has already committed.
func (n *WebhookNotifier) Publish(ctx context.Context, event Event) {
	if event.EventID == "" {
		event.EventID = n.uuid.Generate()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := n.signer.Sign(crypto.RoleServer, &event); err != nil {
		n.logger.Err(err).Str("event_id", event.EventID).Msg("error signing mutation event")
		return
	}

	for _, url := range n.urls {
		resp, err := n.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(event).
			Post(url)
		if err != nil {
			n.logger.Warn().Err(err).
				Str("event_id", event.EventID).
				Str("url", url).
				Msg("webhook delivery failed")
			continue
		}
		if resp.IsError() {
			n.logger.Warn().
				Str("event_id", event.EventID).
				Str("url", url).
				Int("status", resp.StatusCode()).
				Msg("webhook target returned an error status")
		}
	}
}
