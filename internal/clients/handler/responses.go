package handler

import (
	"turia/internal/clients/models"
	vmodels "turia/internal/verification/models"
)

const (
	msgCreated  = "Client created successfully"
	msgUpdated  = "Client updated successfully"
	msgDeleted  = "Client deleted successfully"
	msgVerified = "Client GSTIN verified successfully"
)

// ClientResponse wraps a single client.
type ClientResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    *models.Client `json:"data"`
}

// ListResponse is one page of clients.
type ListResponse struct {
	Success bool `json:"success"`
	models.Page
}

// VerifyResponse carries the updated client and the verification it came from.
type VerifyResponse struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	Data         *models.Client  `json:"data"`
	Verification *vmodels.Result `json:"verification"`
}
