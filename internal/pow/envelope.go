package pow

import "encoding/json"

// envelope is the response body of the token endpoint. Pointer fields keep
// absent members distinguishable from zero values.
type envelope struct {
	Success   *bool   `json:"success"`
	Token     *string `json:"token"`
	DeviceID  *string `json:"device_id"`
	UserAgent *string `json:"user_agent"`
	Cached    *bool   `json:"cached"`
}

func decodeEnvelope(body []byte) (envelope, error) {
	var e envelope
	err := json.Unmarshal(body, &e)
	return e, err
}

func (e envelope) succeeded() bool {
	return e.Success != nil && *e.Success
}

func (e envelope) token() string {
	return stringOrEmpty(e.Token)
}

func (e envelope) deviceID() string {
	return stringOrEmpty(e.DeviceID)
}

func (e envelope) userAgent() string {
	return stringOrEmpty(e.UserAgent)
}

func (e envelope) cached() bool {
	return e.Cached != nil && *e.Cached
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
