package services

import (
	"context"
	"strings"

	"storekit-relay/internal/models"
	"storekit-relay/pkg/logging"
)

// Result is the terminal outcome of one pipeline invocation. These are the
// only outcomes; no partial states are exposed to the transport layer.
type Result string

const (
	ResultInvalidPayload     Result = "INVALID_PAYLOAD"
	ResultInvalidSignature   Result = "INVALID_SIGNATURE"
	ResultIgnored            Result = "IGNORED"
	ResultDeduped            Result = "DEDUPED"
	ResultPushed             Result = "PUSHED"
	ResultInfraError         Result = "INFRA_ERROR"
	ResultConfigurationError Result = "CONFIGURATION_ERROR"
)

// Outcome carries the terminal result plus the decoded notification, when
// one exists, for logging and response shaping.
type Outcome struct {
	Result       Result
	Notification *models.VerifiedNotification
	Hint         LifecycleHint
	Err          error
}

// Pipeline sequences decode, classify, dedup, lifecycle inference and push
// for one inbound envelope. Each invocation is an independent unit of
// work; the only shared state lives behind the resolver's verifier cache
// and the store clients.
type Pipeline struct {
	resolver  *Resolver
	dedup     *DedupLedger
	lifecycle *LifecycleStore
	notifier  Notifier
	emailer   *EmailAlerter // optional secondary channel, may be nil
}

// NewPipeline wires the processing stages together
func NewPipeline(resolver *Resolver, dedup *DedupLedger, lifecycle *LifecycleStore, notifier Notifier, emailer *EmailAlerter) *Pipeline {
	return &Pipeline{
		resolver:  resolver,
		dedup:     dedup,
		lifecycle: lifecycle,
		notifier:  notifier,
		emailer:   emailer,
	}
}

// Process runs one envelope through the pipeline and returns its terminal
// outcome.
func (p *Pipeline) Process(ctx context.Context, signedPayload string) Outcome {
	if strings.TrimSpace(signedPayload) == "" {
		return Outcome{Result: ResultInvalidPayload, Err: inputErrorf("signedPayload is empty")}
	}

	resolution, err := p.resolver.Resolve(signedPayload)
	if err != nil {
		if IsKind(err, KindConfiguration) {
			return Outcome{Result: ResultConfigurationError, Err: err}
		}
		return Outcome{Result: ResultInvalidSignature, Err: err}
	}

	notification, err := DecodeNotification(resolution)
	if err != nil {
		return Outcome{Result: ResultInvalidPayload, Err: err}
	}

	if Classify(notification.NotificationType) == ActionIgnore {
		return Outcome{Result: ResultIgnored, Notification: notification}
	}

	fresh, err := p.dedup.MarkIfNew(ctx, notification.NotificationUUID)
	if err != nil {
		return Outcome{Result: ResultInfraError, Notification: notification, Err: err}
	}
	if !fresh {
		return Outcome{Result: ResultDeduped, Notification: notification}
	}

	// A lifecycle store failure never changes the terminal status; the
	// alert just goes out without a hint.
	hint, err := p.lifecycle.Observe(ctx, notification)
	if err != nil {
		logging.Errorf("Lifecycle inference failed - uuid: %s, type: %s, error: %v",
			notification.NotificationUUID, notification.NotificationType, err)
		hint = HintNone
	}

	title, body := BuildAlert(notification, hint)
	if err := p.notifier.Send(ctx, title, body, notification.Routing); err != nil {
		if IsKind(err, KindConfiguration) {
			return Outcome{Result: ResultConfigurationError, Notification: notification, Hint: hint, Err: err}
		}
		return Outcome{Result: ResultInfraError, Notification: notification, Hint: hint, Err: err}
	}

	if p.emailer != nil {
		if err := p.emailer.SendAlert(ctx, title, body, notification.Routing.Email); err != nil {
			logging.Errorf("Alert email failed - uuid: %s, error: %v", notification.NotificationUUID, err)
		}
	}

	return Outcome{Result: ResultPushed, Notification: notification, Hint: hint}
}
