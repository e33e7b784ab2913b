package paystack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jengacalc/jengacalc/internal/common"
	"github.com/jengacalc/jengacalc/internal/cryptox"
)

// SignatureHeader carries the HMAC-SHA512 of the raw webhook body.
const SignatureHeader = "X-Paystack-Signature"

// EventChargeSuccess is the only event type that changes entitlements.
const EventChargeSuccess = "charge.success"

// Metadata values that mark a monthly subscription charge.
const (
	PaymentTypeMonthly      = "monthly_subscription"
	SubscriptionTypeMonthly = "monthly_unlimited"
)

// Event is a webhook delivery.
type Event struct {
	Event string    `json:"event"`
	Data  EventData `json:"data"`
}

type EventData struct {
	Reference string   `json:"reference"`
	Amount    int64    `json:"amount"`
	Currency  string   `json:"currency"`
	Status    string   `json:"status"`
	Customer  Customer `json:"customer"`
	Metadata  Metadata `json:"metadata"`
}

type Customer struct {
	Email string `json:"email"`
}

type CustomField struct {
	DisplayName  string `json:"display_name"`
	VariableName string `json:"variable_name"`
	Value        any    `json:"value"`
}

// Metadata is the free-form metadata echoed back from initialization.
// Paystack sends it as an object, as a JSON-encoded string, or as "". Any
// other shape (numbers, booleans, arrays, plain strings) decodes as empty
// metadata, leaving classification to the amount.
type Metadata struct {
	PaymentType  string        `json:"payment_type"`
	CustomFields []CustomField `json:"custom_fields"`
}

func (m *Metadata) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		b = []byte(s)
	}
	if b[0] != '{' {
		return nil
	}

	type plain Metadata
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*m = Metadata(p)
	return nil
}

// IsMonthlySubscription reports whether the charge buys a subscription:
// tagged by payment_type or the subscription_type custom field, or paid at
// exactly the subscription price.
func (d *EventData) IsMonthlySubscription(price int64) bool {
	if d.Metadata.PaymentType == PaymentTypeMonthly || d.Amount == price {
		return true
	}
	for _, f := range d.Metadata.CustomFields {
		if f.VariableName == "subscription_type" && fmt.Sprint(f.Value) == SubscriptionTypeMonthly {
			return true
		}
	}
	return false
}

// DecodeEvent parses a raw webhook body. Undecodable input, or a
// charge.success without reference, customer email or positive amount, is
// common.ErrBadEvent.
func DecodeEvent(raw []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrBadEvent, err)
	}
	if e.Event == "" {
		return nil, fmt.Errorf("%w: missing event type", common.ErrBadEvent)
	}
	if e.Event == EventChargeSuccess {
		if err := e.Data.validate(); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

func (d *EventData) validate() error {
	switch {
	case strings.TrimSpace(d.Reference) == "":
		return fmt.Errorf("%w: missing reference", common.ErrBadEvent)
	case strings.TrimSpace(d.Customer.Email) == "":
		return fmt.Errorf("%w: missing customer email", common.ErrBadEvent)
	case d.Amount <= 0:
		return fmt.Errorf("%w: non-positive amount", common.ErrBadEvent)
	}
	return nil
}

// VerifySignature checks the X-Paystack-Signature header against the raw body.
func VerifySignature(body []byte, signature, secretKey string) bool {
	if secretKey == "" || signature == "" {
		return false
	}
	return cryptox.VerifyHMACSHA512(body, []byte(secretKey), signature)
}
