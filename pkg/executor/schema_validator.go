package executor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/flowcore/engine/pkg/types"
)

// validateConfigSchema checks config against schema, a JSON Schema
// (draft-07) document, as Metadata.ConfigSchema documents. It is a
// no-op when schema is empty, so a factory that declares no schema
// pays nothing beyond its own ValidateConfig.
func validateConfigSchema(schema string, config map[string]types.Value) error {
	if strings.TrimSpace(schema) == "" {
		return nil
	}

	configBytes, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("executor: marshal config for schema validation: %w", err)
	}

	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(configBytes)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("executor: schema validation failed: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var msgs []string
	for _, re := range result.Errors() {
		msgs = append(msgs, re.String())
	}
	return fmt.Errorf("config does not satisfy schema: %s", strings.Join(msgs, "; "))
}
