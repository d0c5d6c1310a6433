package handler

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"turia/internal/clients/models"
	dErrors "turia/pkg/domain-errors"
	"turia/pkg/gstin"
)

var (
	contactNumberPattern = regexp.MustCompile(`^[0-9]{10}$`)
	pincodePattern       = regexp.MustCompile(`^[0-9]{6}$`)
)

const (
	maxBusinessNameLen = 200
	maxContactNameLen  = 100
	minNameLen         = 2
	maxAddressLen      = 500
)

// ClientRequest is the body of POST /api/clients and PUT /api/clients/{id}.
// Dates are YYYY-MM-DD.
type ClientRequest struct {
	BusinessEntity      string `json:"business_entity"`
	BusinessName        string `json:"business_name"`
	ContactName         string `json:"contact_name"`
	ContactNumber       string `json:"contact_number"`
	Email               string `json:"email"`
	ClientCode          string `json:"client_code"`
	Currency            string `json:"currency"`
	ClientCreationDate  string `json:"client_creation_date"`
	GSTIN               string `json:"gstin"`
	State               string `json:"state"`
	GSTRegistrationType string `json:"gst_registration_type"`
	Pincode             string `json:"pincode"`
	Address             string `json:"address"`
	AddressLine2        string `json:"address_line2"`
	GSTRegistrationDate string `json:"gst_registration_date"`
	Verified            bool   `json:"is_verified"`
}

func (r *ClientRequest) Normalize() {
	if r == nil {
		return
	}
	r.BusinessEntity = strings.ToLower(strings.TrimSpace(r.BusinessEntity))
	r.BusinessName = strings.TrimSpace(r.BusinessName)
	r.ContactName = strings.TrimSpace(r.ContactName)
	r.ContactNumber = strings.TrimSpace(r.ContactNumber)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.ClientCode = strings.TrimSpace(r.ClientCode)
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	r.ClientCreationDate = strings.TrimSpace(r.ClientCreationDate)
	r.GSTIN = strings.TrimSpace(r.GSTIN)
	r.State = strings.TrimSpace(r.State)
	r.GSTRegistrationType = strings.TrimSpace(r.GSTRegistrationType)
	r.Pincode = strings.TrimSpace(r.Pincode)
	r.Address = strings.TrimSpace(r.Address)
	r.AddressLine2 = strings.TrimSpace(r.AddressLine2)
	r.GSTRegistrationDate = strings.TrimSpace(r.GSTRegistrationDate)
}

// Follows validation order: Size -> Required -> Syntax -> Semantic.
func (r *ClientRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	if utf8.RuneCountInString(r.BusinessName) > maxBusinessNameLen {
		return dErrors.New(dErrors.CodeValidation, "Business Name cannot exceed 200 characters")
	}
	if utf8.RuneCountInString(r.ContactName) > maxContactNameLen {
		return dErrors.New(dErrors.CodeValidation, "Contact Name cannot exceed 100 characters")
	}
	if utf8.RuneCountInString(r.Address) > maxAddressLen {
		return dErrors.New(dErrors.CodeValidation, "Address cannot exceed 500 characters")
	}
	if utf8.RuneCountInString(r.AddressLine2) > maxAddressLen {
		return dErrors.New(dErrors.CodeValidation, "Address Line 2 cannot exceed 500 characters")
	}

	if r.BusinessEntity == "" {
		return dErrors.New(dErrors.CodeValidation, "Business Entity is required")
	}
	if r.BusinessName == "" {
		return dErrors.New(dErrors.CodeValidation, "Business Name is required")
	}
	if r.ContactName == "" {
		return dErrors.New(dErrors.CodeValidation, "Contact Name is required")
	}
	if r.State == "" {
		return dErrors.New(dErrors.CodeValidation, "State is required")
	}

	if !models.BusinessEntity(r.BusinessEntity).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "Invalid Business Entity type")
	}
	if utf8.RuneCountInString(r.BusinessName) < minNameLen {
		return dErrors.New(dErrors.CodeValidation, "Business Name must be at least 2 characters")
	}
	if utf8.RuneCountInString(r.ContactName) < minNameLen {
		return dErrors.New(dErrors.CodeValidation, "Contact Name must be at least 2 characters")
	}
	if r.ContactNumber != "" && !contactNumberPattern.MatchString(r.ContactNumber) {
		return dErrors.New(dErrors.CodeValidation, "Contact number must be exactly 10 digits")
	}
	if r.Email != "" && !validEmail(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "Invalid email format")
	}
	if r.GSTIN != "" && !gstin.Valid(r.GSTIN) {
		return dErrors.New(dErrors.CodeValidation, "Invalid GSTIN format")
	}
	if r.Pincode != "" && !pincodePattern.MatchString(r.Pincode) {
		return dErrors.New(dErrors.CodeValidation, "Pincode must be 6 digits")
	}
	if _, err := parseDate(r.ClientCreationDate); err != nil {
		return dErrors.New(dErrors.CodeValidation, "Client Creation Date must be a valid date")
	}
	if _, err := parseDate(r.GSTRegistrationDate); err != nil {
		return dErrors.New(dErrors.CodeValidation, "GST Registration Date must be a valid date")
	}
	return nil
}

// ToModel converts a validated request. Call only after Validate succeeded.
func (r *ClientRequest) ToModel() models.Client {
	created, _ := parseDate(r.ClientCreationDate)
	registered, _ := parseDate(r.GSTRegistrationDate)

	c := models.Client{
		BusinessEntity:      models.BusinessEntity(r.BusinessEntity),
		BusinessName:        r.BusinessName,
		ContactName:         r.ContactName,
		ContactNumber:       r.ContactNumber,
		Email:               r.Email,
		ClientCode:          r.ClientCode,
		Currency:            r.Currency,
		GSTIN:               r.GSTIN,
		State:               r.State,
		GSTRegistrationType: r.GSTRegistrationType,
		Pincode:             r.Pincode,
		Address:             r.Address,
		AddressLine2:        r.AddressLine2,
		Verified:            r.Verified,
	}
	if created != nil {
		c.CreatedOn = *created
	}
	c.GSTRegistrationDate = registered
	return c
}

// parseDate accepts an empty string as "not set".
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// validEmail accepts a bare RFC 5322 address. Display names are rejected.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
