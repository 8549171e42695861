package notification

import (
	"context"
	"fmt"
	"sync"

	"github.com/expertdesk/api/internal/notification/templates"
)

var (
	engineOnce sync.Once
	engine     *templates.Engine
)

func defaultEngine() *templates.Engine {
	engineOnce.Do(func() {
		engine = templates.NewEngine()
	})
	return engine
}

// SendTemplate renders a scenario template and dispatches it through the
// service on the given channels. The handle's type parameter keeps template
// data honest at compile time.
func SendTemplate[T any](ctx context.Context, svc Service, h templates.Handle[T], recipient string, channels []Channel, priority Priority, data T) error {
	rendered, err := templates.Render(ctx, defaultEngine(), h, data)
	if err != nil {
		return fmt.Errorf("render template %s: %w", h.ID(), err)
	}

	return svc.Send(ctx, Notification{
		Recipient: recipient,
		Channels:  channels,
		Priority:  priority,
		Content: Content{
			EmailSubject:  rendered.Subject,
			EmailHTMLBody: rendered.EmailHTML,
			SMSText:       rendered.SMSText,
		},
	})
}
