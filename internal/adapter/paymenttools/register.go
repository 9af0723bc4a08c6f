// Package paymenttools registers the builtin capabilities for the payments
// reference agents. Import it for side effects:
//
//	import _ "github.com/Strob0t/Warden/internal/adapter/paymenttools"
package paymenttools

import (
	"context"
	"fmt"

	"github.com/Strob0t/Warden/internal/domain/capability"
	"github.com/Strob0t/Warden/internal/port/toolcatalog"
)

func init() {
	toolcatalog.Register("get_payment_exception", func() capability.Func { return getPaymentException })
	toolcatalog.Register("suggest_payment_resolution", func() capability.Func { return suggestPaymentResolution })
	toolcatalog.Register("execute_payment_retry", func() capability.Func { return executePaymentRetry })
}

// getPaymentException returns the stored exception record for a payment.
// Demo implementation backed by static data.
func getPaymentException(_ context.Context, args map[string]any) (any, error) {
	paymentID, ok := args["payment_id"].(string)
	if !ok || paymentID == "" {
		return nil, fmt.Errorf("payment_id is required")
	}
	return map[string]any{
		"payment_id":       paymentID,
		"status":           "failed",
		"failure_code":     "insufficient_funds",
		"amount":           420.50,
		"previous_retries": 1,
	}, nil
}

// suggestPaymentResolution proposes a resolution for a failure code.
func suggestPaymentResolution(_ context.Context, args map[string]any) (any, error) {
	code, _ := args["failure_code"].(string)
	switch code {
	case "insufficient_funds":
		return map[string]any{"action": "retry", "wait_hours": 24}, nil
	case "beneficiary_blocked":
		return map[string]any{"action": "escalate", "reason": "compliance review required"}, nil
	default:
		return map[string]any{"action": "escalate", "reason": "unrecognized failure code"}, nil
	}
}

// executePaymentRetry schedules a retry for a failed payment.
func executePaymentRetry(_ context.Context, args map[string]any) (any, error) {
	paymentID, ok := args["payment_id"].(string)
	if !ok || paymentID == "" {
		return nil, fmt.Errorf("payment_id is required")
	}
	return map[string]any{
		"payment_id": paymentID,
		"status":     "retry_scheduled",
	}, nil
}
