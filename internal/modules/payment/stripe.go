package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
)

type StripeConfig struct {
	SecretKey string
}

// Stripe charges through confirmed PaymentIntents. The card must be
// tokenized by the client; raw card numbers never reach Stripe from here.
type Stripe struct{}

func NewStripe(cfg StripeConfig) (*Stripe, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}
	stripe.Key = cfg.SecretKey
	return &Stripe{}, nil
}

func (g *Stripe) Name() string { return ProviderStripe }

func (g *Stripe) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	if req.Details.Token == "" {
		return nil, &ChargeError{Code: CodeMissingMethod, Reason: "a tokenized payment method is required"}
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(toMinorUnits(req.Amount)),
		Currency:           stripe.String(req.Currency),
		PaymentMethod:      stripe.String(req.Details.Token),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.CustomerEmail != "" {
		params.ReceiptEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, stripeChargeError(err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, &ChargeError{Code: CodeRequiresAction, Reason: fmt.Sprintf("payment intent is %s", pi.Status)}
	}

	return &Charge{
		ID:       pi.ID,
		Provider: ProviderStripe,
		Amount:   req.Amount,
		Currency: req.Currency,
	}, nil
}

func (g *Stripe) Refund(ctx context.Context, chargeID string, amount float64) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(chargeID),
		Amount:        stripe.Int64(toMinorUnits(amount)),
	}
	params.Context = ctx
	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("%w: %v", ErrRefundFailed, err)
	}
	return nil
}

func stripeChargeError(err error) *ChargeError {
	var se *stripe.Error
	if !errors.As(err, &se) {
		// transport failures never reached Stripe's API; safe to retry with the same key
		return &ChargeError{Code: CodeProcessingError, Reason: err.Error(), Retryable: true, Err: err}
	}

	ce := &ChargeError{Code: string(se.Code), Reason: se.Msg, Err: err}
	switch {
	case se.Type == stripe.ErrorTypeCard:
		if ce.Code == "" {
			ce.Code = CodeCardDeclined
		}
	case se.HTTPStatusCode == http.StatusTooManyRequests || se.HTTPStatusCode >= http.StatusInternalServerError:
		ce.Retryable = true
		if ce.Code == "" {
			ce.Code = CodeProcessingError
		}
	default:
		if ce.Code == "" {
			ce.Code = CodeInvalidRequest
		}
	}
	return ce
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
