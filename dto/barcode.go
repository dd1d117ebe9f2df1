package dto

import (
	"encoding/xml"
	"strings"
)

// IDCardQRData represents the XML printed in national ID card QR codes
// (UIDAI PrintLetterBarcodeData layout).
type IDCardQRData struct {
	XMLName     xml.Name `xml:"PrintLetterBarcodeData"`
	UID         string   `xml:"uid,attr"`
	Name        string   `xml:"name,attr"`
	YearOfBirth string   `xml:"yob,attr"`
	DateOfBirth string   `xml:"dob,attr"`
	CO          string   `xml:"co,attr"` // Care of
	House       string   `xml:"house,attr"`
	Street      string   `xml:"street,attr"`
	Landmark    string   `xml:"lm,attr"`
	Locality    string   `xml:"loc,attr"`
	VTC         string   `xml:"vtc,attr"` // Village/Town/City
	PO          string   `xml:"po,attr"`  // Post Office
	District    string   `xml:"dist,attr"`
	SubDistrict string   `xml:"subdist,attr"`
	State       string   `xml:"state,attr"`
	PC          string   `xml:"pc,attr"` // Pin Code
}

// GetFullAddress constructs the full address from QR data
func (q *IDCardQRData) GetFullAddress() string {
	parts := []string{}

	if q.CO != "" {
		parts = append(parts, "C/O "+q.CO)
	}
	for _, p := range []string{q.House, q.Street, q.Landmark, q.Locality, q.VTC} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if q.PO != "" {
		parts = append(parts, "PO "+q.PO)
	}
	for _, p := range []string{q.SubDistrict, q.District, q.State, q.PC} {
		if p != "" {
			parts = append(parts, p)
		}
	}

	return strings.Join(parts, ", ")
}

// AAMVAData holds the driver-license data elements read from a barcode.
type AAMVAData struct {
	IDNumber   string // DAQ
	FamilyName string // DCS
	FirstName  string // DAC
	MiddleName string // DAD
	FullName   string // DAA (pre-2009 layout)
	BirthDate  string // DBB
	Street     string // DAG
	City       string // DAI
	State      string // DAJ
	PostalCode string // DAK
}

// Name assembles "first middle family", falling back to DAA.
func (a *AAMVAData) Name() string {
	parts := []string{}
	for _, p := range []string{a.FirstName, a.MiddleName, a.FamilyName} {
		if p = strings.TrimSpace(p); p != "" && p != "NONE" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	// DAA is "FAMILY,FIRST,MIDDLE"
	fields := strings.Split(a.FullName, ",")
	if len(fields) > 1 {
		return strings.TrimSpace(strings.Join(append(fields[1:], fields[0]), " "))
	}
	return strings.TrimSpace(a.FullName)
}

// Address assembles "street, city, STATE ZIP".
func (a *AAMVAData) Address() string {
	parts := []string{}
	if a.Street != "" {
		parts = append(parts, a.Street)
	}
	if a.City != "" {
		parts = append(parts, a.City)
	}
	tail := strings.TrimSpace(a.State + " " + a.PostalCode)
	if tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ", ")
}
