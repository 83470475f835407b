// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GuildGate Contributors

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/samber/oops"
)

// channelPost is the payload the platform bridge expects: the target
// channel and the message to render there.
type channelPost struct {
	ChannelID uint64  `json:"channel_id"`
	Message   Message `json:"message"`
}

// WebhookSender delivers channel messages by POSTing them to the
// platform bridge endpoint.
type WebhookSender struct {
	url    string
	client *http.Client
}

var _ MessageSender = (*WebhookSender)(nil)

// NewWebhookSender creates a WebhookSender targeting the bridge URL.
func NewWebhookSender(url string) (*WebhookSender, error) {
	if url == "" {
		return nil, oops.Code("GATEWAY_INVALID").Errorf("bridge URL is required")
	}
	return &WebhookSender{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Send posts the message to the bridge for delivery into channelID.
func (s *WebhookSender) Send(ctx context.Context, channelID uint64, msg Message) error {
	payload, err := json.Marshal(channelPost{ChannelID: channelID, Message: msg})
	if err != nil {
		return oops.Code("BRIDGE_SEND_FAILED").With("channel_id", channelID).Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return oops.Code("BRIDGE_SEND_FAILED").With("channel_id", channelID).Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return oops.Code("BRIDGE_SEND_FAILED").With("channel_id", channelID).Wrap(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return oops.Code("BRIDGE_SEND_FAILED").
			With("channel_id", channelID).
			With("status", resp.StatusCode).
			Wrap(fmt.Errorf("bridge returned status %d", resp.StatusCode))
	}
	return nil
}
