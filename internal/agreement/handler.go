package agreement

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"BidSentinel/internal/marketplace"
	"BidSentinel/internal/model"
)

// Error marks an agreement check or signing failure. The listing is skipped
// for this cycle; this is recorded distinctly from a normal bid failure.
type Error struct {
	ListingID int64
	Kind      model.AgreementKind
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("agreement %s for listing %d: %v", e.Kind, e.ListingID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Handler ensures required legal agreements are signed before a bid goes out.
type Handler struct {
	client marketplace.Client
	log    zerolog.Logger
}

func NewHandler(client marketplace.Client, log zerolog.Logger) *Handler {
	return &Handler{client: client, log: log.With().Str("component", "agreement").Logger()}
}

// EnsureSigned checks signature status for every agreement the listing
// requires and signs any that are unsigned. Only full success allows the
// engine to proceed to submission.
func (h *Handler) EnsureSigned(ctx context.Context, l *model.Listing) error {
	for _, kind := range l.RequiredAgreements() {
		signed, err := h.client.AgreementStatus(ctx, l.ID, kind)
		if err != nil {
			return &Error{ListingID: l.ID, Kind: kind, Err: fmt.Errorf("status check: %w", err)}
		}
		if signed {
			continue
		}
		if err := h.client.SignAgreement(ctx, l.ID, kind); err != nil {
			return &Error{ListingID: l.ID, Kind: kind, Err: fmt.Errorf("sign: %w", err)}
		}
		h.log.Info().Int64("listing_id", l.ID).Str("kind", string(kind)).Msg("agreement signed")
	}
	return nil
}
