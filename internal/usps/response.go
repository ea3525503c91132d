package usps

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/dukerupert/usps/internal/address"
)

// verifyResponse decodes either an AddressValidateResponse or a document-level
// Error, told apart by the root element name.
type verifyResponse struct {
	XMLName   xml.Name
	Addresses []responseAddress `xml:"Address"`
	apiError
}

type apiError struct {
	Number      string `xml:"Number"`
	Source      string `xml:"Source"`
	Description string `xml:"Description"`
}

// responseAddress uses USPS naming; see requestAddress.
type responseAddress struct {
	ID                   string    `xml:"ID,attr"`
	FirmName             string    `xml:"FirmName"`
	Address1             string    `xml:"Address1"`
	Address2             string    `xml:"Address2"`
	City                 string    `xml:"City"`
	State                string    `xml:"State"`
	Zip5                 string    `xml:"Zip5"`
	Zip4                 string    `xml:"Zip4"`
	DeliveryPoint        string    `xml:"DeliveryPoint"`
	CarrierRoute         string    `xml:"CarrierRoute"`
	Footnotes            string    `xml:"Footnotes"`
	DPVConfirmation      string    `xml:"DPVConfirmation"`
	DPVCMRA              string    `xml:"DPVCMRA"`
	DPVFootnotes         string    `xml:"DPVFootnotes"`
	Business             string    `xml:"Business"`
	CentralDeliveryPoint string    `xml:"CentralDeliveryPoint"`
	Vacant               string    `xml:"Vacant"`
	ReturnText           string    `xml:"ReturnText"`
	Error                *apiError `xml:"Error"`
}

// parseResponse matches each <Address ID="i"> to the i-th submitted address.
// Every submitted address gets a slot: an <Error> inside an address becomes an
// AddressError for that slot, and an address missing from the response a
// ServiceError.
func parseResponse(body []byte, addrs []*address.Address) (*address.Result, error) {
	var resp verifyResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, &ServiceError{Err: fmt.Errorf("decode response: %w", err)}
	}

	if resp.XMLName.Local == "Error" {
		return nil, &ServiceError{
			Number:      strings.TrimSpace(resp.Number),
			Source:      strings.TrimSpace(resp.Source),
			Description: strings.TrimSpace(resp.Description),
		}
	}

	byID := make(map[int]responseAddress, len(resp.Addresses))
	for _, ra := range resp.Addresses {
		id, err := strconv.Atoi(strings.TrimSpace(ra.ID))
		if err != nil {
			continue
		}
		byID[id] = ra
	}

	slots := make([]address.Slot, 0, len(addrs))
	for i, in := range addrs {
		ra, ok := byID[i]

		out := ra.toAddress()
		// Name is neither sent nor received; copy it so the standardized
		// version is roughly equivalent.
		if in.Name != nil {
			out.Name = address.Ptr(*in.Name)
		}

		slot := address.Slot{Input: in, Output: out}
		switch {
		case !ok:
			slot.Err = &ServiceError{Description: fmt.Sprintf("No response for address %d", i)}
		case ra.Error != nil:
			desc := strings.TrimSpace(ra.Error.Description)
			slot.Err = &AddressError{
				ID:          i,
				Number:      strings.TrimSpace(ra.Error.Number),
				Source:      strings.TrimSpace(ra.Error.Source),
				Description: desc,
			}
			if desc != "" {
				out.ReturnText = address.Ptr(desc)
			}
		}
		slots = append(slots, slot)
	}

	return address.NewResult(slots...)
}

func (ra responseAddress) toAddress() *address.Address {
	info := address.NewInfo()
	info[address.InfoDeliveryPoint] = strings.TrimSpace(ra.DeliveryPoint)
	info[address.InfoCarrierRoute] = strings.TrimSpace(ra.CarrierRoute)
	info[address.InfoFootnotes] = strings.TrimSpace(ra.Footnotes)
	info[address.InfoDPVConfirmation] = strings.TrimSpace(ra.DPVConfirmation)
	info[address.InfoDPVCMRA] = strings.TrimSpace(ra.DPVCMRA)
	info[address.InfoDPVFootnotes] = strings.TrimSpace(ra.DPVFootnotes)
	info[address.InfoBusiness] = strings.TrimSpace(ra.Business)
	info[address.InfoCentralDeliveryPoint] = strings.TrimSpace(ra.CentralDeliveryPoint)
	info[address.InfoVacant] = strings.TrimSpace(ra.Vacant)

	return &address.Address{
		Company:        address.Ptr(strings.TrimSpace(ra.FirmName)),
		Address1:       address.Ptr(strings.TrimSpace(ra.Address2)),
		Address2:       address.Ptr(strings.TrimSpace(ra.Address1)),
		City:           address.Ptr(strings.TrimSpace(ra.City)),
		State:          address.Ptr(strings.TrimSpace(ra.State)),
		Zip5:           address.Ptr(strings.TrimSpace(ra.Zip5)),
		Zip4:           address.Ptr(strings.TrimSpace(ra.Zip4)),
		ReturnText:     address.Ptr(strings.TrimSpace(ra.ReturnText)),
		AdditionalInfo: info,
	}
}
