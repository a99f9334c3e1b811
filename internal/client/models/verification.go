package models

import (
	"encoding/json"
	"maps"
)

// Flags holds the verified_flags object of a verification. Values are
// usually booleans but the service stores whatever JSON value it was given.
type Flags map[string]any

// UnmarshalJSON accepts either a JSON object or a string containing one,
// since older service builds return the raw column text.
func (f *Flags) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			*f = Flags{}
			return nil
		}
		data = []byte(s)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if m == nil {
		m = map[string]any{}
	}
	*f = m
	return nil
}

// Clone returns a shallow copy that never aliases f.
func (f Flags) Clone() Flags {
	out := make(Flags, len(f))
	maps.Copy(out, f)
	return out
}

// Verification links a Discord account to a BYOND ckey.
type Verification struct {
	ID                 int64      `json:"id,omitempty"`
	DiscordID          string     `json:"discord_id"`
	Ckey               string     `json:"ckey"`
	VerifiedFlags      Flags      `json:"verified_flags"`
	VerificationMethod string     `json:"verification_method"`
	VerifiedBy         string     `json:"verified_by"`
	CreatedAt          Timestamp  `json:"created_at"`
	UpdatedAt          *Timestamp `json:"updated_at"`
}

// CreateVerificationRequest is the body of POST /api/v1/verify.
type CreateVerificationRequest struct {
	DiscordID          string `json:"discord_id"`
	Ckey               string `json:"ckey"`
	VerifiedFlags      Flags  `json:"verified_flags,omitempty"`
	VerificationMethod string `json:"verification_method,omitempty"`
}

// VerificationPatch is a partial update. Nil fields are not sent; the service
// merges VerifiedFlags into the existing set instead of replacing it.
type VerificationPatch struct {
	DiscordID          *string `json:"discord_id,omitempty"`
	Ckey               *string `json:"ckey,omitempty"`
	VerifiedFlags      Flags   `json:"verified_flags,omitempty"`
	VerificationMethod *string `json:"verification_method,omitempty"`
	VerifiedBy         *string `json:"verified_by,omitempty"`
}

type BulkByDiscordRequest struct {
	DiscordIDs []string `json:"discord_ids"`
}

type BulkByCkeyRequest struct {
	Ckeys []string `json:"ckeys"`
}

type VerificationList struct {
	Verifications []Verification `json:"verifications"`
	Page          int            `json:"page"`
	Limit         int            `json:"limit"`
}
