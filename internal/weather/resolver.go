package weather

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnresolvableFieldKey is returned when no registered model is a suffix of a field name.
	ErrUnresolvableFieldKey = errors.New("no matching model for field")
	// ErrMissingKeySeparator is returned when a model matches but is not preceded by "_".
	ErrMissingKeySeparator = errors.New("field does not contain expected separator before model")
	// ErrMalformedResponse is returned when a daily response cannot be decoded.
	ErrMalformedResponse = errors.New("malformed weather data response")
)

// KeyResolver splits response field names such as "rain_sum_kma_gdps" into
// measure and model.
type KeyResolver struct {
	registry *ModelRegistry
}

// NewKeyResolver creates a resolver over registry.
func NewKeyResolver(registry *ModelRegistry) *KeyResolver {
	return &KeyResolver{registry: registry}
}

// Resolve picks the first registry model that rawKey ends with and strips
// "_"+model from the end to get the measure. The measure is accepted verbatim.
func (r *KeyResolver) Resolve(rawKey string) (MeasureAndModel, error) {
	model := ""
	for _, m := range r.registry.models {
		if strings.HasSuffix(rawKey, m) {
			model = m
			break
		}
	}
	if model == "" {
		return MeasureAndModel{}, fmt.Errorf("%w: %q", ErrUnresolvableFieldKey, rawKey)
	}

	measure, ok := strings.CutSuffix(rawKey, "_"+model)
	if !ok {
		return MeasureAndModel{}, fmt.Errorf("%w: %q (model %s)", ErrMissingKeySeparator, rawKey, model)
	}

	return MeasureAndModel{Measure: measure, Model: model}, nil
}
