package address

import (
	"fmt"
	"maps"
	"strings"
)

// Keys of the USPS metadata kept in Info.
const (
	InfoDeliveryPoint        = "delivery_point"
	InfoCarrierRoute         = "carrier_route"
	InfoFootnotes            = "footnotes"
	InfoDPVConfirmation      = "dpv_confirmation"
	InfoDPVCMRA              = "dpv_cmra"
	InfoDPVFootnotes         = "dpv_footnotes"
	InfoBusiness             = "business"
	InfoCentralDeliveryPoint = "central_delivery_point"
	InfoVacant               = "vacant"
)

// InfoKeys lists every key a standardized address carries.
var InfoKeys = []string{
	InfoDeliveryPoint,
	InfoCarrierRoute,
	InfoFootnotes,
	InfoDPVConfirmation,
	InfoDPVCMRA,
	InfoDPVFootnotes,
	InfoBusiness,
	InfoCentralDeliveryPoint,
	InfoVacant,
}

// Info holds the verification metadata of a standardized address.
// An empty value and a missing key mean the same thing.
type Info map[string]string

// NewInfo returns an Info with every key present and empty.
func NewInfo() Info {
	info := make(Info, len(InfoKeys))
	for _, k := range InfoKeys {
		info[k] = ""
	}
	return info
}

// Clone returns a copy of the mapping. A nil Info stays nil.
func (i Info) Clone() Info {
	if i == nil {
		return nil
	}
	return maps.Clone(i)
}

// String dumps the mapping with keys in sorted order.
func (i Info) String() string {
	return fmt.Sprint(map[string]string(i))
}

// Messages attached to verdicts.
const (
	MsgDPVConfirmed      = "Address was DPV confirmed for both primary and (if present) secondary numbers"
	MsgDPVNotConfirmed   = "Both primary and (if present) secondary number information failed to DPV confirm."
	MsgDPVSecondaryMiss  = "Address was DPV confirmed for the primary number only, and the secondary number information was missing."
	MsgDPVSecondaryBad   = "Address was DPV confirmed for the primary number only, and the secondary number information was present by not confirmed."
	MsgMissingSecondary  = "The address as submitted does not contain an apartment/suite number."
	MsgInvalidSecondary  = "This address's apartment/suite number was not valid."
	MsgNoStreetDelivery  = "The United States Postal Service does not provide street delivery for this Zip Code."
	MsgNotFound          = "Address Could Not Be Found in The National Directory File Database"
	moreInfoNeededMarker = "address you entered was found but more information is needed"
)

// Verdict is the interpretation of a standardization response.
// Valid is nil when the response gives no basis for a decision.
type Verdict struct {
	Valid   *bool  `json:"valid" yaml:"valid"`
	Message string `json:"message" yaml:"message"`
}

// Known reports whether the verdict decided either way.
func (v Verdict) Known() bool {
	return v.Valid != nil
}

// IsValid reports whether the address was positively confirmed.
func (v Verdict) IsValid() bool {
	return v.Valid != nil && *v.Valid
}

func (v Verdict) String() string {
	switch {
	case v.Valid == nil:
		return "unknown: " + v.Message
	case *v.Valid:
		return "valid: " + v.Message
	default:
		return "invalid: " + v.Message
	}
}

// Evaluate interprets USPS metadata and return text.
//
// Rules run in order and a later match overwrites an earlier one: the DPV
// confirmation code, then each footnote in the order H, S, W, F, then the
// "more information is needed" return text, which only supplies a message if
// none was set. When nothing matched the message is a dump of info.
func Evaluate(info Info, returnText string) Verdict {
	var (
		valid   *bool
		message *string
	)
	set := func(ok bool, msg string) {
		valid, message = &ok, &msg
	}

	switch info[InfoDPVConfirmation] {
	case "Y":
		set(true, MsgDPVConfirmed)
	case "N":
		set(false, MsgDPVNotConfirmed)
	case "D":
		set(false, MsgDPVSecondaryMiss)
	case "S":
		set(false, MsgDPVSecondaryBad)
	}

	if footnotes := info[InfoFootnotes]; footnotes != "" {
		if strings.Contains(footnotes, "H") {
			set(false, MsgMissingSecondary)
		}
		if strings.Contains(footnotes, "S") {
			set(false, MsgInvalidSecondary)
		}
		if strings.Contains(footnotes, "W") {
			set(false, MsgNoStreetDelivery)
		}
		if strings.Contains(footnotes, "F") {
			set(false, MsgNotFound)
		}
	}

	if strings.Contains(returnText, moreInfoNeededMarker) {
		invalid := false
		valid = &invalid
		if message == nil || *message == "" {
			message = &returnText
		}
	}

	if valid == nil && message == nil {
		dump := info.String()
		message = &dump
	}

	return Verdict{Valid: valid, Message: deref(message)}
}
