package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/attirely/storefront-backend/pkg/errors"
)

// Receipt acknowledges an accepted order.
type Receipt struct {
	Reference   string    `json:"reference"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Submitter hands a finished order to the fulfilment backend. Implementations
// must honor ctx cancellation.
type Submitter interface {
	Submit(ctx context.Context, o Order) (Receipt, error)
}

// SubmitterFunc adapts a function to the Submitter interface.
type SubmitterFunc func(ctx context.Context, o Order) (Receipt, error)

func (f SubmitterFunc) Submit(ctx context.Context, o Order) (Receipt, error) {
	return f(ctx, o)
}

// Simulated is the stand-in fulfilment backend: it waits out a fixed latency
// and issues a receipt referenced by the order ID.
type Simulated struct {
	Latency time.Duration
}

func (s Simulated) Submit(ctx context.Context, o Order) (Receipt, error) {
	if s.Latency > 0 {
		timer := time.NewTimer(s.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Receipt{}, pkgerrors.Wrap(pkgerrors.CodeUnavailable, ctx.Err(), "order submission interrupted")
		case <-timer.C:
		}
	}
	return Receipt{
		Reference:   fmt.Sprintf("ORD-%s", strings.ToUpper(o.ID.String()[:8])),
		SubmittedAt: time.Now().UTC(),
	}, nil
}
