package config

import (
	"github.com/invopop/jsonschema"

	"go.viam.com/pathsmoother/smoothing"
)

// Schema returns the JSON schema of the smoothing configuration.
func Schema() *jsonschema.Schema {
	// Every key is optional; absent keys keep their defaults.
	r := &jsonschema.Reflector{ExpandedStruct: true, DoNotReference: true, RequiredFromJSONSchemaTags: true}
	schema := r.Reflect(&smoothing.Config{})
	schema.Title = "Smoothing configuration"
	return schema
}
