package transport

import (
	"artcritic/internal/core/domain"
	"encoding/base64"
	"fmt"
)

// Base64 encodes normalized image bytes for the JSON request body.
type Base64 struct{}

func (Base64) Encode(data []byte) domain.TransportPayload {
	return domain.TransportPayload(base64.StdEncoding.EncodeToString(data))
}

func (Base64) Decode(payload domain.TransportPayload) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(string(payload))
	if err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}

	return data, nil
}
