package sns

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/promo-claim/internal/config"
	"github.com/promo-claim/internal/domain"
	"github.com/promo-claim/internal/infrastructure/awsutil"
	"github.com/promo-claim/internal/pkg/redact"
)

// PublishAPI is the subset of the SNS client the notifier needs.
type PublishAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Notifier texts participants the prize they won.
type Notifier struct {
	client      PublishAPI
	countryCode string
}

// NewClient creates an SNS client in cfg.SNSRegion.
func NewClient(ctx context.Context, cfg *config.Config) (*sns.Client, error) {
	awsCfg, err := awsutil.Load(ctx, cfg, cfg.SNSRegion)
	if err != nil {
		return nil, err
	}
	clientOpts := []func(*sns.Options){}
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}
	return sns.NewFromConfig(awsCfg, clientOpts...), nil
}

// NewNotifier creates a Notifier. Local nine-digit numbers are prefixed with
// countryCode (e.g. "+51").
func NewNotifier(client PublishAPI, countryCode string) *Notifier {
	return &Notifier{client: client, countryCode: countryCode}
}

// PrizeAwarded sends the prize SMS. The sentinel "thanks for participating"
// result sends nothing.
func (n *Notifier) PrizeAwarded(ctx context.Context, phone string, result domain.ClaimResult) error {
	if result.PrizeName == "" || result.PrizeName == domain.ThanksForParticipating {
		return nil
	}
	to := n.e164(phone)
	msg := fmt.Sprintf("¡Felicidades! Ganaste: %s. Muestra este mensaje en tienda para reclamarlo.", result.PrizeName)
	if _, err := n.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(msg),
	}); err != nil {
		return fmt.Errorf("publish prize sms: %w", err)
	}
	slog.Info("prize sms sent", "phone", redact.Fingerprint(phone))
	return nil
}

func (n *Notifier) e164(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return n.countryCode + phone
}
