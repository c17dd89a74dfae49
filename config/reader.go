package config

import (
	"encoding/json"
	"io"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"go.viam.com/pathsmoother/logging"
	"go.viam.com/pathsmoother/smoothing"
)

// Read reads a smoothing configuration from the given JSON file. Keys that are absent keep their
// default values.
func Read(filePath string, logger logging.Logger) (*smoothing.Config, error) {
	//nolint:gosec
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Debugw("failed to close config file", "path", filePath, "error", err)
		}
	}()
	return FromReader(f, logger)
}

// FromReader reads a smoothing configuration from JSON.
func FromReader(r io.Reader, logger logging.Logger) (*smoothing.Config, error) {
	attrs := AttributeMap{}
	if err := json.NewDecoder(r).Decode(&attrs); err != nil {
		return nil, errors.Wrap(err, "failed to decode smoothing config from json")
	}
	return FromAttributes(attrs, logger)
}

// FromAttributes decodes attributes over the default configuration and validates the result.
func FromAttributes(attrs AttributeMap, logger logging.Logger) (*smoothing.Config, error) {
	return Apply(smoothing.DefaultConfig(), attrs, logger)
}

// Apply decodes attributes over base and validates the result. base is not modified. Unknown keys
// are logged and ignored; string values are converted to the field types.
func Apply(base smoothing.Config, attrs AttributeMap, logger logging.Logger) (*smoothing.Config, error) {
	cfg := base
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &cfg,
		Metadata:         &md,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(map[string]interface{}(attrs)); err != nil {
		return nil, errors.Wrap(err, "failed to decode smoothing config")
	}
	if len(md.Unused) > 0 {
		logger.Warnw("ignoring unknown smoothing config keys", "keys", md.Unused)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
