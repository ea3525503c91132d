package address_test

import (
	"testing"

	"github.com/dukerupert/usps/internal/address"
	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func TestEvaluate(t *testing.T) {
	moreInfo := "Default address: The address you entered was found but more information is needed (such as an apartment, suite, or box number) to match to a specific address."

	tests := []struct {
		name       string
		info       address.Info
		returnText string
		valid      *bool
		message    string
	}{
		{
			name:    "dpv confirmed",
			info:    address.Info{address.InfoDPVConfirmation: "Y"},
			valid:   boolPtr(true),
			message: address.MsgDPVConfirmed,
		},
		{
			name:    "dpv not confirmed",
			info:    address.Info{address.InfoDPVConfirmation: "N"},
			valid:   boolPtr(false),
			message: address.MsgDPVNotConfirmed,
		},
		{
			name:    "secondary missing",
			info:    address.Info{address.InfoDPVConfirmation: "D"},
			valid:   boolPtr(false),
			message: address.MsgDPVSecondaryMiss,
		},
		{
			name:    "secondary not confirmed",
			info:    address.Info{address.InfoDPVConfirmation: "S"},
			valid:   boolPtr(false),
			message: address.MsgDPVSecondaryBad,
		},
		{
			name:    "unknown dpv code falls through to dump",
			info:    address.Info{address.InfoDPVConfirmation: "X"},
			message: "map[dpv_confirmation:X]",
		},
		{
			name:    "footnote overwrites dpv",
			info:    address.Info{address.InfoDPVConfirmation: "N", address.InfoFootnotes: "H"},
			valid:   boolPtr(false),
			message: address.MsgMissingSecondary,
		},
		{
			name:    "footnote overwrites dpv confirmation",
			info:    address.Info{address.InfoDPVConfirmation: "Y", address.InfoFootnotes: "S"},
			valid:   boolPtr(false),
			message: address.MsgInvalidSecondary,
		},
		{
			name:    "last footnote wins",
			info:    address.Info{address.InfoFootnotes: "FWH"},
			valid:   boolPtr(false),
			message: address.MsgNotFound,
		},
		{
			name:    "no street delivery",
			info:    address.Info{address.InfoFootnotes: "AW"},
			valid:   boolPtr(false),
			message: address.MsgNoStreetDelivery,
		},
		{
			name:    "unrelated footnotes",
			info:    address.Info{address.InfoDPVConfirmation: "Y", address.InfoFootnotes: "AN"},
			valid:   boolPtr(true),
			message: address.MsgDPVConfirmed,
		},
		{
			name:       "more information needed uses return text",
			info:       address.Info{},
			returnText: moreInfo,
			valid:      boolPtr(false),
			message:    moreInfo,
		},
		{
			name:       "more information needed keeps earlier message",
			info:       address.Info{address.InfoDPVConfirmation: "Y"},
			returnText: moreInfo,
			valid:      boolPtr(false),
			message:    address.MsgDPVConfirmed,
		},
		{
			name:       "unrelated return text",
			info:       address.Info{},
			returnText: "Default address: something else",
			message:    "map[]",
		},
		{
			name:    "empty info dumps",
			info:    address.Info{},
			message: "map[]",
		},
		{
			name:    "nil info dumps",
			message: "map[]",
		},
		{
			name:    "empty codes dump the full info",
			info:    address.Info{address.InfoDPVConfirmation: "", address.InfoVacant: "N"},
			message: "map[dpv_confirmation: vacant:N]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := address.Evaluate(tt.info, tt.returnText)

			assert.Equal(t, tt.valid, v.Valid)
			assert.Equal(t, tt.message, v.Message)
		})
	}
}

func TestEvaluate_ScenarioFromSpecialCaseText(t *testing.T) {
	text := "the address you entered was found but more information is needed, please call"

	v := address.Evaluate(address.Info{}, text)

	assert.Equal(t, boolPtr(false), v.Valid)
	assert.Equal(t, text, v.Message)
}

func TestVerdict_String(t *testing.T) {
	assert.Equal(t, "valid: ok", address.Verdict{Valid: boolPtr(true), Message: "ok"}.String())
	assert.Equal(t, "invalid: no", address.Verdict{Valid: boolPtr(false), Message: "no"}.String())
	assert.Equal(t, "unknown: map[]", address.Verdict{Message: "map[]"}.String())
}

func TestNewInfo_HasAllKeys(t *testing.T) {
	info := address.NewInfo()

	assert.Len(t, info, 9)
	for _, k := range address.InfoKeys {
		v, ok := info[k]
		assert.True(t, ok, k)
		assert.Empty(t, v)
	}
}
