package handler

// VerifyRequest is the body of POST /api/gst/verify.
type VerifyRequest struct {
	GSTIN string `json:"gstin"`
}

// Validate accepts any string, including an empty one. The grammar is
// enforced by the verification service so every malformed identifier, a
// missing one included, is reported as invalid_gstin.
func (r *VerifyRequest) Validate() error {
	return nil
}
