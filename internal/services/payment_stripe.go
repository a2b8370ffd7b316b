package services

import (
	"context"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeProcessor authorizes payments with manual capture, so funds stay
// on hold until the platform captures them into escrow.
type StripeProcessor struct {
	api *client.API
}

// NewPaymentProcessor returns a Stripe processor, or one that fails every
// call when no secret key is configured.
func NewPaymentProcessor(secretKey string) PaymentProcessor {
	if secretKey == "" {
		return unconfiguredProcessor{}
	}
	return &StripeProcessor{api: client.New(secretKey, nil)}
}

func (p *StripeProcessor) CreateIntent(ctx context.Context, req *IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.AmountMinor),
		Currency:      stripe.String(strings.ToLower(req.Currency)),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, err
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

func (p *StripeProcessor) Capture(ctx context.Context, intentID string) error {
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	_, err := p.api.PaymentIntents.Capture(intentID, params)
	return err
}

func (p *StripeProcessor) Refund(ctx context.Context, intentID string) error {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(intentID)}
	params.Context = ctx
	_, err := p.api.Refunds.New(params)
	return err
}

func (p *StripeProcessor) Cancel(ctx context.Context, intentID string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	_, err := p.api.PaymentIntents.Cancel(intentID, params)
	return err
}

type unconfiguredProcessor struct{}

func (unconfiguredProcessor) CreateIntent(context.Context, *IntentRequest) (*Intent, error) {
	return nil, ErrNotConfigured
}

func (unconfiguredProcessor) Capture(context.Context, string) error { return ErrNotConfigured }

func (unconfiguredProcessor) Refund(context.Context, string) error { return ErrNotConfigured }

func (unconfiguredProcessor) Cancel(context.Context, string) error { return ErrNotConfigured }
