package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"turia/internal/verification"
	"turia/internal/verification/models"
)

// shape is the tagged variant a response body is classified into before any
// field is read.
type shape int

const (
	shapeUnknown shape = iota
	shapeData
	shapeFailure
)

// portalFailureMarkers identify MasterGST reporting that it could not reach
// the government GST portal. Such failures are transient and never shown verbatim.
var portalFailureMarkers = []string{
	"UnknownHostException",
	"devapi.gst.gov.in",
}


// payload is the subset of the MasterGST taxpayer record this service reads.
type payload struct {
	LegalName         models.LooseString `json:"lgnm"`
	TradeName         models.LooseString `json:"tradeNam"`
	RegistrationDate  models.LooseString `json:"rgdt"`
	Status            models.LooseString `json:"sts"`
	TaxpayerType      models.LooseString `json:"dty"`
	Constitution      models.LooseString `json:"ctb"`
	StateJurisdiction models.LooseString `json:"stjCd"`
}

func classify(body []byte) shape {
	if gjson.GetBytes(body, "data").IsObject() {
		return shapeData
	}
	if gjson.GetBytes(body, "status_cd").String() == "0" {
		return shapeFailure
	}
	return shapeUnknown
}

// decode turns a 2xx body into a result or a classified error. A body that
// is not JSON carries neither a data object nor a failure flag, so it reads
// as not found like any other unrecognized shape.
func decode(id string, body []byte) (*models.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, verification.NotFound()
	}
	switch classify(body) {
	case shapeData:
		return normalize(id, gjson.GetBytes(body, "data"))
	case shapeFailure:
		return nil, failureFromMessage(extractMessage(body))
	default:
		return nil, verification.NotFound()
	}
}

func normalize(id string, data gjson.Result) (*models.Result, error) {
	var p payload
	if err := json.Unmarshal([]byte(data.Raw), &p); err != nil {
		return nil, verification.Unknown(fmt.Errorf("decode taxpayer record: %w", err))
	}
	addr, err := decodeAddress(data.Get("pradr"))
	if err != nil {
		return nil, verification.Unknown(err)
	}

	legalName := strings.TrimSpace(p.LegalName.String())
	if legalName == "" {
		legalName = strings.TrimSpace(p.TradeName.String())
	}
	status := p.Status.String()
	if status == "" {
		status = "Active"
	}

	return &models.Result{
		GSTIN:             id,
		LegalName:         legalName,
		TradeName:         p.TradeName.String(),
		Address:           addr.Format(),
		StateCode:         addr.StateCode.String(),
		Pincode:           addr.Pincode.String(),
		RegistrationDate:  p.RegistrationDate.String(),
		Status:            status,
		TaxpayerType:      p.TaxpayerType.String(),
		Constitution:      p.Constitution.String(),
		StateJurisdiction: p.StateJurisdiction.String(),
		Verified:          true,
		Source:            models.SourceUpstream,
		Raw:               json.RawMessage(data.Raw),
	}, nil
}

// decodeAddress reads fragments from pradr.addr, or from pradr itself when
// the fragments are inlined.
func decodeAddress(pradr gjson.Result) (models.AddressFragments, error) {
	var addr models.AddressFragments
	raw := ""
	switch {
	case pradr.Get("addr").IsObject():
		raw = pradr.Get("addr").Raw
	case pradr.IsObject():
		raw = pradr.Raw
	default:
		return addr, nil
	}
	if err := json.Unmarshal([]byte(raw), &addr); err != nil {
		return addr, fmt.Errorf("decode address: %w", err)
	}
	return addr, nil
}

// extractMessage picks the most specific failure message in body:
// error.message, then status_desc. Empty when neither is present.
func extractMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"error.message", "status_desc"} {
		if msg := strings.TrimSpace(gjson.GetBytes(body, path).String()); msg != "" {
			return msg
		}
	}
	return ""
}

func isPortalFailure(message string) bool {
	for _, marker := range portalFailureMarkers {
		if strings.Contains(message, marker) {
			return true
		}
	}
	return false
}

// failureFromMessage classifies an explicit failure answer.
func failureFromMessage(message string) error {
	if message == "" {
		message = verification.MsgDefaultRejection
	}
	if isPortalFailure(message) {
		return verification.Unavailable(verification.MsgPortalUnavailable, errors.New(message))
	}
	return verification.Rejected(message)
}

// classifyHTTPFailure handles non-2xx responses. Bodies with a structured
// message are classified like explicit failures; anything else is unknown.
func classifyHTTPFailure(status int, body []byte) error {
	message := extractMessage(body)
	if message == "" {
		return verification.Unknown(fmt.Errorf("mastergst returned HTTP %d", status))
	}
	if isPortalFailure(message) {
		return verification.Unavailable(verification.MsgPortalUnavailable, errors.New(message))
	}
	return verification.Rejected(message)
}
