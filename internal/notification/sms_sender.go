package notification

import (
	"context"
	"log/slog"
)

// dummySMSSender logs instead of sending. Phone-verification delivery is not
// wired to a gateway yet; the channel contract is in place for when it is.
type dummySMSSender struct {
	log *slog.Logger
}

// NewDummySMSSender creates a new dummy SMS sender.
func NewDummySMSSender(log *slog.Logger) smsSender {
	return &dummySMSSender{log: log}
}

func (s *dummySMSSender) Send(ctx context.Context, to, message string) error {
	s.log.Info("DUMMY SEND: SMS would be sent", "to", to)
	return nil
}
