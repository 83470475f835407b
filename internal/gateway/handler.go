// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GuildGate Contributors

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/guildgate/guildgate/internal/observability"
	"github.com/guildgate/guildgate/internal/registry"
	"github.com/guildgate/guildgate/pkg/errutil"
)

// friendlyReasons maps workflow error codes onto the messages members
// see. Every code gets a distinct reason; anything unmapped falls back
// to a retry suggestion without leaking internals.
var friendlyReasons = map[string]string{
	"REG_INVALID_NICKNAME":    "Nickname must be 3-16 characters.",
	"REG_INVALID_PASSWORD":    "Password must be 6-32 characters.",
	"REG_PASSWORD_MISMATCH":   "Passwords do not match.",
	"REG_CONSENT_REQUIRED":    "You must agree to the rules to register.",
	"REG_FORBIDDEN":           "You need a subscriber role to register.",
	"REG_NICKNAME_TAKEN":      "That nickname is already taken.",
	"REG_ALREADY_REGISTERED":  "You are already registered.",
	"REG_STORAGE_UNAVAILABLE": "Registration is temporarily unavailable, please try again later.",
	"PWD_NOT_REGISTERED":      "You are not registered yet.",
	"PWD_INCORRECT":           "Incorrect current password.",
	"PWD_INVALID_PASSWORD":    "New password must be 6-32 characters.",
	"PWD_MISMATCH":            "New passwords do not match.",
	"PWD_STORAGE_UNAVAILABLE": "Password change is temporarily unavailable, please try again later.",
}

const fallbackReason = "Something went wrong, please try again later."

// Handler translates interactions into workflow calls and results back
// into messages.
type Handler struct {
	registration *registry.RegistrationService
	passwords    *registry.PasswordService
	store        registry.UserStore
	metrics      *observability.Metrics
	logger       *slog.Logger

	launcherURL string
	rules       string
}

// HandlerConfig bundles Handler construction parameters.
type HandlerConfig struct {
	Registration *registry.RegistrationService
	Passwords    *registry.PasswordService
	Store        registry.UserStore
	Metrics      *observability.Metrics
	Logger       *slog.Logger
	LauncherURL  string
	Rules        string
}

// NewHandler creates a Handler.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.Registration == nil {
		return nil, oops.Code("GATEWAY_INVALID").Errorf("registration service is required")
	}
	if cfg.Passwords == nil {
		return nil, oops.Code("GATEWAY_INVALID").Errorf("password service is required")
	}
	if cfg.Store == nil {
		return nil, oops.Code("GATEWAY_INVALID").Errorf("user store is required")
	}
	if cfg.Metrics == nil {
		return nil, oops.Code("GATEWAY_INVALID").Errorf("metrics are required")
	}
	if cfg.Logger == nil {
		return nil, oops.Code("GATEWAY_INVALID").Errorf("logger is required")
	}
	return &Handler{
		registration: cfg.Registration,
		passwords:    cfg.Passwords,
		store:        cfg.Store,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		launcherURL:  cfg.LauncherURL,
		rules:        cfg.Rules,
	}, nil
}

// Handle dispatches one interaction. It always produces a renderable
// Message; workflow failures become friendly ephemeral replies, never
// errors to the platform.
func (h *Handler) Handle(ctx context.Context, in Interaction) Message {
	h.metrics.InteractionsTotal.WithLabelValues(string(in.Kind)).Inc()

	switch in.Kind {
	case KindRegister:
		return h.handleRegister(ctx, in)
	case KindChangePassword:
		return h.handleChangePassword(ctx, in)
	case KindProfile:
		return h.handleProfile(ctx, in)
	case KindDownload:
		return h.handleDownload(ctx, in)
	case KindRules:
		return h.handleRules()
	case KindPanel:
		return h.Panel()
	default:
		return Message{Content: fallbackReason, Ephemeral: true}
	}
}

func (h *Handler) handleRegister(ctx context.Context, in Interaction) Message {
	if in.Register == nil {
		return Message{Content: fallbackReason, Ephemeral: true}
	}

	identity, err := h.registration.Register(ctx, registry.RegisterInput{
		ExternalID:      in.Caller.ExternalID,
		DisplayName:     in.Caller.DisplayName,
		Nickname:        in.Register.Nickname,
		Password:        in.Register.Password,
		PasswordConfirm: in.Register.PasswordConfirm,
		Consent:         in.Register.Consent,
		Roles:           in.Caller.Roles,
	})
	if err != nil {
		code := errutil.Code(err)
		h.metrics.RegistrationsTotal.WithLabelValues(code).Inc()
		errutil.LogError(h.logger, "registration rejected", err)
		return Message{Content: "❌ " + h.reason(code), Ephemeral: true}
	}

	h.metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	return Message{
		Content:   fmt.Sprintf("✅ Registration successful, %s! You can now download the launcher.", identity.Nickname),
		Ephemeral: true,
	}
}

func (h *Handler) handleChangePassword(ctx context.Context, in Interaction) Message {
	if in.ChangePassword == nil {
		return Message{Content: fallbackReason, Ephemeral: true}
	}

	err := h.passwords.ChangePassword(ctx, registry.ChangeInput{
		ExternalID:      in.Caller.ExternalID,
		OldPassword:     in.ChangePassword.OldPassword,
		NewPassword:     in.ChangePassword.NewPassword,
		PasswordConfirm: in.ChangePassword.PasswordConfirm,
	})
	if err != nil {
		code := errutil.Code(err)
		h.metrics.PasswordChangesTotal.WithLabelValues(code).Inc()
		errutil.LogError(h.logger, "password change rejected", err)
		return Message{Content: "❌ " + h.reason(code), Ephemeral: true}
	}

	h.metrics.PasswordChangesTotal.WithLabelValues("success").Inc()
	return Message{Content: "✅ Password changed successfully.", Ephemeral: true}
}

func (h *Handler) handleProfile(ctx context.Context, in Interaction) Message {
	identity, err := h.store.Find(ctx, in.Caller.ExternalID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return Message{Content: "❌ You are not registered yet.", Ephemeral: true}
		}
		errutil.LogError(h.logger, "profile lookup failed", err)
		return Message{Content: fallbackReason, Ephemeral: true}
	}

	fields := []EmbedField{
		{Name: "Nickname", Value: identity.Nickname, Inline: true},
		{Name: "Member", Value: identity.DisplayName, Inline: true},
		{Name: "Registered", Value: identity.RegisteredAt.Format("02.01.2006 15:04:05"), Inline: false},
	}
	if identity.PasswordChangedAt != nil {
		fields = append(fields, EmbedField{
			Name:  "Password changed",
			Value: identity.PasswordChangedAt.Format("02.01.2006 15:04:05"),
		})
	}

	return Message{
		Ephemeral: true,
		Embeds: []Embed{{
			Title:  "\U0001f464 Your profile",
			Color:  colorBlue,
			Fields: fields,
		}},
	}
}

func (h *Handler) handleDownload(ctx context.Context, in Interaction) Message {
	exists, err := h.store.Exists(ctx, in.Caller.ExternalID)
	if err != nil {
		errutil.LogError(h.logger, "download gate check failed", err)
		return Message{Content: fallbackReason, Ephemeral: true}
	}
	if !exists {
		return Message{Content: "❌ You need to register first.", Ephemeral: true}
	}
	return Message{
		Content:   "\U0001f4e5 Download link: " + h.launcherURL,
		Ephemeral: true,
	}
}

func (h *Handler) handleRules() Message {
	return Message{
		Ephemeral: true,
		Embeds: []Embed{{
			Title:       "\U0001f4dc Community rules",
			Description: h.rules,
			Color:       colorRed,
		}},
	}
}

// Panel returns the public registration panel an admin posts into the
// registration channel.
func (h *Handler) Panel() Message {
	now := time.Now().UTC()
	return Message{
		Embeds: []Embed{{
			Title:       "Welcome",
			Description: "Register here and manage your account: registration, profile, launcher download, and password changes.",
			Color:       colorBlue,
			Footer:      "GuildGate Registration",
			Timestamp:   &now,
		}},
	}
}

func (h *Handler) reason(code string) string {
	if msg, ok := friendlyReasons[code]; ok {
		return msg
	}
	return fallbackReason
}
