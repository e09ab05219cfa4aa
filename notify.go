package main

import (
	"fmt"
	"log"

	"github.com/slack-go/slack"
)

// Notifier posts run-status messages to a Slack channel so unattended
// runs surface their outcome somewhere a human looks. A nil *Notifier is
// valid and silently does nothing.
type Notifier struct {
	api     *slack.Client
	channel string
}

func newNotifier(cfg Config) *Notifier {
	if cfg.SlackBotToken == "" || cfg.SlackChannelID == "" {
		return nil
	}
	return &Notifier{api: slack.New(cfg.SlackBotToken), channel: cfg.SlackChannelID}
}

func (n *Notifier) Post(format string, args ...any) {
	if n == nil {
		return
	}
	text := fmt.Sprintf(format, args...)
	if _, _, err := n.api.PostMessage(n.channel, slack.MsgOptionText(text, false)); err != nil {
		log.Printf("notify error: %v", err)
	}
}
