package form

import (
	"fmt"

	"github.com/aretw0/textremind/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

type checkResponse struct {
	Verified bool `mapstructure:"verified"`
}

type verificationResponse struct {
	Valid bool `mapstructure:"valid"`
}

type passwordResponse struct {
	Matches bool `mapstructure:"matches"`
}

// decodeResponse maps a transport response onto out. Values are weakly typed
// so "true" and 1 decode as true.
func decodeResponse(resp map[string]any, out any) error {
	if err := mapstructure.WeakDecode(resp, out); err != nil {
		return fmt.Errorf("%w: unexpected response: %v", domain.ErrUnreachable, err)
	}
	return nil
}
