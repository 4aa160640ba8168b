package notify

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
)

// Shoutrrr отправляет сообщения через сервисы shoutrrr (telegram, slack, smtp и т.д.)
type Shoutrrr struct {
	sender *router.ServiceRouter
}

// NewShoutrrr собирает один отправитель для всех URL
func NewShoutrrr(urls []string, timeout time.Duration) (*Shoutrrr, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("notify: at least one URL is required")
	}
	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, fmt.Errorf("notify: could not create shoutrrr sender: %w", err)
	}
	if timeout > 0 {
		sender.Timeout = timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))
	return &Shoutrrr{sender: sender}, nil
}

func (s *Shoutrrr) Name() string { return "shoutrrr" }

func (s *Shoutrrr) Notify(_ context.Context, msg Message) error {
	params := stypes.Params{}
	if msg.Notification.Title != "" {
		params.SetTitle(msg.Notification.Title)
	}
	for _, err := range s.sender.Send(msg.Body(), &params) {
		if err != nil {
			return fmt.Errorf("notify: could not send via shoutrrr: %w", err)
		}
	}
	return nil
}
