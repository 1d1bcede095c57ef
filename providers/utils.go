package providers

import (
	"encoding/json"
	"fmt"
)

// unmarshalResponse decodes a backend payload, classifying parse failures as
// terminal: a malformed body will not get better on retry.
func unmarshalResponse(provider string, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &ProviderError{
			Provider:  provider,
			Retryable: false,
			Err:       fmt.Errorf("unmarshal response: %w", err),
		}
	}
	return nil
}
