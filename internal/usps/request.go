package usps

import (
	"encoding/xml"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dukerupert/usps/internal/address"
)

// MaxAddresses is the number of addresses one Verify request can carry.
const MaxAddresses = 5

// verifyRequest is the AddressValidateRequest document.
// Revision 1 asks for the DPV and footnote fields.
type verifyRequest struct {
	XMLName   xml.Name         `xml:"AddressValidateRequest"`
	UserID    string           `xml:"USERID,attr"`
	Revision  int              `xml:"Revision"`
	Addresses []requestAddress `xml:"Address"`
}

// requestAddress uses USPS naming: Address1 is the apartment or suite and
// Address2 is the street line.
type requestAddress struct {
	ID       string `xml:"ID,attr"`
	FirmName string `xml:"FirmName"`
	Address1 string `xml:"Address1"`
	Address2 string `xml:"Address2"`
	City     string `xml:"City"`
	State    string `xml:"State"`
	Zip5     string `xml:"Zip5"`
	Zip4     string `xml:"Zip4"`
}

func buildRequest(userID string, addrs []*address.Address) ([]byte, error) {
	req := verifyRequest{
		UserID:    userID,
		Revision:  1,
		Addresses: make([]requestAddress, 0, len(addrs)),
	}

	// A Caser is stateful and must not be shared between goroutines.
	upper := cases.Upper(language.AmericanEnglish)
	for i, a := range addrs {
		req.Addresses = append(req.Addresses, requestAddress{
			ID:       strconv.Itoa(i),
			FirmName: text(a.Company),
			Address1: text(a.Address2),
			Address2: text(a.Address1),
			City:     text(a.City),
			State:    upper.String(text(a.State)),
			Zip5:     text(a.Zip5),
			Zip4:     text(a.Zip4),
		})
	}

	return xml.Marshal(req)
}

func text(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
