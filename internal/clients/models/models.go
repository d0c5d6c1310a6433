package models

import (
	"time"

	"github.com/google/uuid"
)

// BusinessEntity is the legal form of a client business.
type BusinessEntity string

const (
	EntityProprietorship BusinessEntity = "proprietorship"
	EntityPartnership    BusinessEntity = "partnership"
	EntityLLP            BusinessEntity = "llp"
	EntityPrivateLimited BusinessEntity = "private-limited"
	EntityPublicLimited  BusinessEntity = "public-limited"
)

var businessEntities = map[BusinessEntity]struct{}{
	EntityProprietorship: {},
	EntityPartnership:    {},
	EntityLLP:            {},
	EntityPrivateLimited: {},
	EntityPublicLimited:  {},
}

func (e BusinessEntity) IsValid() bool {
	_, ok := businessEntities[e]
	return ok
}

const (
	DefaultCurrency            = "INR"
	DefaultGSTRegistrationType = "Regular"
)

// Client is a business registered for billing.
type Client struct {
	ID                  uuid.UUID      `json:"id"`
	BusinessEntity      BusinessEntity `json:"business_entity"`
	BusinessName        string         `json:"business_name"`
	ContactName         string         `json:"contact_name"`
	ContactNumber       string         `json:"contact_number"`
	Email               string         `json:"email"`
	ClientCode          string         `json:"client_code"`
	Currency            string         `json:"currency"`
	CreatedOn           time.Time      `json:"client_creation_date"`
	GSTIN               string         `json:"gstin"`
	State               string         `json:"state"`
	GSTRegistrationType string         `json:"gst_registration_type"`
	Pincode             string         `json:"pincode"`
	Address             string         `json:"address"`
	AddressLine2        string         `json:"address_line2"`
	GSTRegistrationDate *time.Time     `json:"gst_registration_date,omitempty"`
	Verified            bool           `json:"is_verified"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListQuery filters and paginates clients. Search matches business name,
// contact name or GSTIN, case-insensitively.
type ListQuery struct {
	Search string
	Page   int
	Limit  int
}

// Normalize applies defaults and bounds.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

// Offset is the number of rows skipped for the page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Page is one page of clients, newest first.
type Page struct {
	Clients     []Client `json:"data"`
	Total       int      `json:"total"`
	TotalPages  int      `json:"total_pages"`
	CurrentPage int      `json:"current_page"`
}

// NewPage computes page counts for total matching rows.
func NewPage(clients []Client, total int, q ListQuery) Page {
	if clients == nil {
		clients = []Client{}
	}
	pages := 0
	if q.Limit > 0 {
		pages = (total + q.Limit - 1) / q.Limit
	}
	return Page{Clients: clients, Total: total, TotalPages: pages, CurrentPage: q.Page}
}
