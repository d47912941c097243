package httputil

import (
	"bytes"
	"encoding/json"

	"github.com/sterling9879/Sage-IA/internal/domain/models"
)

// OptionalString decodes a nullable PATCH field (RFC 7396). Absent fields
// never reach UnmarshalJSON, so Present stays false; a JSON null sets Present
// with a nil Value.
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON is only called for fields present in the body.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// Domain converts to the transport-agnostic form used by services.
func (o OptionalString) Domain() models.OptionalString {
	return models.OptionalString{Present: o.Present, Value: o.Value}
}
