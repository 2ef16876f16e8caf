package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/freeeve/halite-fleet/internal/bot"
)

// ErrInvalidConfig is returned when a parameter file fails validation.
var ErrInvalidConfig = errors.New("invalid config")

//go:embed params.schema.json
var paramsSchemaJSON string

var paramsSchema = jsonschema.MustCompileString("params.schema.json", paramsSchemaJSON)

// LoadParams reads strategy parameters from a YAML file. Fields missing from
// the file keep their bot.DefaultParams value. An empty path returns the
// defaults.
func LoadParams(path string) (bot.Params, error) {
	params := bot.DefaultParams()
	if path == "" {
		return params, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return params, fmt.Errorf("read params: %w", err)
	}
	return ParseParams(raw)
}

// ParseParams validates raw YAML against the parameter schema and overlays it
// on the defaults.
func ParseParams(raw []byte) (bot.Params, error) {
	params := bot.DefaultParams()

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return params, fmt.Errorf("%w: params yaml: %v", ErrInvalidConfig, err)
	}
	if doc == nil {
		return params, nil
	}
	// Round-trip through JSON so the validator sees JSON-native types.
	b, err := json.Marshal(doc)
	if err != nil {
		return params, fmt.Errorf("%w: params yaml: %v", ErrInvalidConfig, err)
	}
	var inst any
	if err := json.Unmarshal(b, &inst); err != nil {
		return params, fmt.Errorf("%w: params yaml: %v", ErrInvalidConfig, err)
	}
	if err := paramsSchema.Validate(inst); err != nil {
		return params, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := yaml.Unmarshal(raw, &params); err != nil {
		return params, fmt.Errorf("%w: params yaml: %v", ErrInvalidConfig, err)
	}
	if params.SecondaryReturnRatio > params.ReturnRatio {
		return params, fmt.Errorf("%w: secondary_return_ratio %.2f exceeds return_ratio %.2f",
			ErrInvalidConfig, params.SecondaryReturnRatio, params.ReturnRatio)
	}
	return params, nil
}
