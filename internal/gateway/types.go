// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GuildGate Contributors

// Package gateway adapts chat-platform interaction events to the
// registration workflows. The platform client itself is an external
// collaborator: it dispatches interaction events here as JSON and
// renders the structured messages we return. Nothing in the core knows
// platform vocabulary.
package gateway

import "time"

// InteractionKind identifies which button or form the member used.
type InteractionKind string

// Supported interactions.
const (
	KindRegister       InteractionKind = "register"
	KindChangePassword InteractionKind = "change_password"
	KindProfile        InteractionKind = "profile"
	KindDownload       InteractionKind = "download"
	KindRules          InteractionKind = "rules"
	KindPanel          InteractionKind = "panel"
)

// Caller is the authenticated identity attached to every interaction
// by the platform before it reaches us.
type Caller struct {
	ExternalID  uint64   `json:"external_id"`
	DisplayName string   `json:"display_name"`
	Roles       []uint64 `json:"roles"`
}

// RegisterForm carries a registration modal submission.
type RegisterForm struct {
	Nickname        string `json:"nickname"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	Consent         string `json:"consent"`
}

// ChangePasswordForm carries a password-change modal submission.
type ChangePasswordForm struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	PasswordConfirm string `json:"password_confirm"`
}

// Interaction is one inbound event. Exactly one form field is set,
// matching Kind; button-only interactions carry none.
type Interaction struct {
	Kind           InteractionKind     `json:"kind"`
	Caller         Caller              `json:"caller"`
	Register       *RegisterForm       `json:"register,omitempty"`
	ChangePassword *ChangePasswordForm `json:"change_password,omitempty"`
}

// Message is the structured response the platform renders back to the
// member. Ephemeral messages are visible only to the caller.
type Message struct {
	Content   string  `json:"content,omitempty"`
	Ephemeral bool    `json:"ephemeral"`
	Embeds    []Embed `json:"embeds,omitempty"`
}

// Embed is a rich message block.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      string       `json:"footer,omitempty"`
	Timestamp   *time.Time   `json:"timestamp,omitempty"`
}

// EmbedField is one name/value pair inside an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Embed colors.
const (
	colorGreen  = 0x57F287
	colorBlue   = 0x5865F2
	colorRed    = 0xED4245
	colorOrange = 0xE67E22
)
