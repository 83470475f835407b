// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GuildGate Contributors

package gateway

import (
	"context"
	"fmt"

	"github.com/samber/oops"

	"github.com/guildgate/guildgate/internal/audit"
	"github.com/guildgate/guildgate/internal/registry"
)

// MessageSender delivers a message to a platform channel.
type MessageSender interface {
	Send(ctx context.Context, channelID uint64, msg Message) error
}

// ChannelNotifier renders audit events as embeds and posts them to the
// configured staff channels. Credential previews are spoiler-wrapped so
// they stay hidden until a moderator deliberately reveals them.
type ChannelNotifier struct {
	sender              MessageSender
	registrationChannel uint64
	passwordChannel     uint64
}

var _ audit.Notifier = (*ChannelNotifier)(nil)

// NewChannelNotifier creates a ChannelNotifier.
func NewChannelNotifier(sender MessageSender, registrationChannel, passwordChannel uint64) (*ChannelNotifier, error) {
	if sender == nil {
		return nil, oops.Code("GATEWAY_INVALID").Errorf("message sender is required")
	}
	return &ChannelNotifier{
		sender:              sender,
		registrationChannel: registrationChannel,
		passwordChannel:     passwordChannel,
	}, nil
}

// Notify posts the event to the channel matching its kind.
func (n *ChannelNotifier) Notify(ctx context.Context, ev registry.Event) error {
	switch ev.Kind {
	case registry.EventRegistration:
		return n.sender.Send(ctx, n.registrationChannel, registrationEmbed(ev))
	case registry.EventPasswordChange:
		return n.sender.Send(ctx, n.passwordChannel, passwordEmbed(ev))
	default:
		return oops.Code("AUDIT_UNKNOWN_KIND").
			With("kind", string(ev.Kind)).
			Errorf("no channel for event kind %q", ev.Kind)
	}
}

func registrationEmbed(ev registry.Event) Message {
	ts := ev.Timestamp
	return Message{
		Embeds: []Embed{{
			Title: "✅ New registration",
			Color: colorGreen,
			Fields: []EmbedField{
				{Name: "Member", Value: fmt.Sprintf("%s (%d)", ev.DisplayName, ev.ExternalID), Inline: true},
				{Name: "Nickname", Value: ev.Nickname, Inline: true},
				{Name: "Password (hash)", Value: spoiler(ev.DigestPreview), Inline: false},
				{Name: "Rules accepted", Value: ev.Consent, Inline: true},
			},
			Footer:    "Event " + ev.ID.String(),
			Timestamp: &ts,
		}},
	}
}

func passwordEmbed(ev registry.Event) Message {
	ts := ev.Timestamp
	return Message{
		Embeds: []Embed{{
			Title: "\U0001f510 Password changed",
			Color: colorOrange,
			Fields: []EmbedField{
				{Name: "Member", Value: fmt.Sprintf("%s (%d)", ev.DisplayName, ev.ExternalID), Inline: true},
				{Name: "Old hash", Value: spoiler(ev.OldPreview), Inline: false},
				{Name: "New hash", Value: spoiler(ev.NewPreview), Inline: false},
			},
			Footer:    "Event " + ev.ID.String(),
			Timestamp: &ts,
		}},
	}
}

func spoiler(s string) string {
	if s == "" {
		return "||unknown||"
	}
	return "||" + s + "||"
}
