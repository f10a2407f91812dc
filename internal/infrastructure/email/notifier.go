package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/subtrack-inc/subtrack/internal/application/billing/handlers"
	"github.com/subtrack-inc/subtrack/internal/shared/config"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

// SMTPNotifier delivers lifecycle notices over SMTP. Recipient resolution is
// a stub keyed on tenant SID until a tenant directory exists.
type SMTPNotifier struct {
	cfg    *config.EmailConfig
	dialer *gomail.Dialer
	logger logger.Interface
}

func NewSMTPNotifier(cfg *config.EmailConfig, logger logger.Interface) *SMTPNotifier {
	return &SMTPNotifier{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
		logger: logger,
	}
}

var _ handlers.Notifier = (*SMTPNotifier)(nil)

func (n *SMTPNotifier) NotifySubscriptionExpired(ctx context.Context, tenantSID, subscriptionSID string) error {
	subject := "Your subscription has expired"
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Subscription expired</h2>
			<p>Your subscription %s reached the end of its period and is now expired.</p>
			<p>Start a new subscription anytime to restore access.</p>
		</body>
		</html>
	`, subscriptionSID)

	return n.send(ctx, tenantSID, subject, body)
}

func (n *SMTPNotifier) NotifySubscriptionCanceledForNonPayment(ctx context.Context, tenantSID, subscriptionSID string) error {
	subject := "Your subscription was canceled"
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Subscription canceled</h2>
			<p>Your subscription %s was canceled because payment could not be collected.</p>
			<p>Update your payment method and start a new subscription to restore access.</p>
		</body>
		</html>
	`, subscriptionSID)

	return n.send(ctx, tenantSID, subject, body)
}

func (n *SMTPNotifier) send(ctx context.Context, tenantSID, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", n.cfg.FromAddress, n.cfg.FromName)
	msg.SetHeader("To", n.recipientFor(tenantSID))
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := n.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.Infow("lifecycle notice sent", "tenant_sid", tenantSID, "subject", subject)
	return nil
}

// recipientFor maps a tenant to its billing contact.
// TODO: replace with a lookup once tenant profiles carry contact emails.
func (n *SMTPNotifier) recipientFor(tenantSID string) string {
	return fmt.Sprintf("billing+%s@example.com", tenantSID)
}

// NoopNotifier logs instead of sending. Used when email is disabled.
type NoopNotifier struct {
	logger logger.Interface
}

func NewNoopNotifier(logger logger.Interface) *NoopNotifier {
	return &NoopNotifier{logger: logger}
}

var _ handlers.Notifier = (*NoopNotifier)(nil)

func (n *NoopNotifier) NotifySubscriptionExpired(ctx context.Context, tenantSID, subscriptionSID string) error {
	n.logger.Infow("email disabled, skipping expiry notice",
		"tenant_sid", tenantSID, "subscription_sid", subscriptionSID)
	return nil
}

func (n *NoopNotifier) NotifySubscriptionCanceledForNonPayment(ctx context.Context, tenantSID, subscriptionSID string) error {
	n.logger.Infow("email disabled, skipping cancellation notice",
		"tenant_sid", tenantSID, "subscription_sid", subscriptionSID)
	return nil
}
