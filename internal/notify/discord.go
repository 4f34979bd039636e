package notify

import (
	"context"
	"net/http"
)

// DiscordSender delivers notifications via a Discord webhook, one embed per
// message so titles render as headers instead of inline bold.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordSender creates a sender for the given webhook URL.
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: senderTimeout},
	}
}

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type discordMessage struct {
	Embeds []discordEmbed `json:"embeds"`
}

// Send posts the message to the webhook. Discord answers 204 No Content on
// success.
func (d *DiscordSender) Send(ctx context.Context, title, message string) error {
	return postJSON(ctx, d.client, d.webhookURL, discordMessage{
		Embeds: []discordEmbed{{Title: title, Description: message}},
	}, "discord")
}

func (d *DiscordSender) Name() string {
	return "discord"
}
