package jobs

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Typed views over the opaque job payload. Handlers decode the payload
// they expect; unknown keys are ignored so payloads can grow without
// breaking older workers.

// ExtractionPayload parameterizes a content extraction job.
type ExtractionPayload struct {
	FileID       string `mapstructure:"file_id"`
	UserID       string `mapstructure:"user_id"`
	FileName     string `mapstructure:"file_name"`
	DeclaredType string `mapstructure:"declared_type"`
	StorageKey   string `mapstructure:"storage_key"`
	Size         int64  `mapstructure:"size"`
}

// AnalysisPayload parameterizes an AI analysis job.
type AnalysisPayload struct {
	FileID    string `mapstructure:"file_id"`
	UserID    string `mapstructure:"user_id"`
	Operation string `mapstructure:"operation"`
	Prompt    string `mapstructure:"prompt"`
	Subject   string `mapstructure:"subject"`
	Level     string `mapstructure:"level"`
}

// NotificationPayload parameterizes a notification job.
type NotificationPayload struct {
	UserID  string `mapstructure:"user_id"`
	Message string `mapstructure:"message"`
}

// DecodePayload decodes the opaque payload into a typed struct.
func DecodePayload(payload Payload, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to build payload decoder: %w", err)
	}
	if err := decoder.Decode(payload); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}

// EncodePayload flattens a typed payload struct back into string keys.
func EncodePayload(in interface{}) (Payload, error) {
	var raw map[string]interface{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: &raw})
	if err != nil {
		return nil, fmt.Errorf("failed to build payload encoder: %w", err)
	}
	if err := decoder.Decode(in); err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	payload := make(Payload, len(raw))
	for k, v := range raw {
		payload[k] = fmt.Sprintf("%v", v)
	}
	return payload, nil
}
