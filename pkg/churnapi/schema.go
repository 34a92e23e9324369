package churnapi

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema names, one per response shape.
const (
	schemaSummary    = "summary.json"
	schemaChart      = "chart.json"
	schemaCustomer   = "customer.json"
	schemaCustomers  = "customers.json"
	schemaCampaign   = "campaign.json"
	schemaCampaigns  = "campaigns.json"
	schemaMutation   = "mutation.json"
	schemaPrediction = "prediction.json"
	schemaHealth     = "health.json"
)

const schemaBaseURL = "https://churnboard.local/schemas/"

//go:embed schemas/*.json
var embeddedSchemas embed.FS

// ResponseValidator checks raw response bodies against the embedded JSON
// schemas before they are decoded. Schemas compile lazily and are cached.
type ResponseValidator struct {
	fs       fs.FS
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewResponseValidator builds a validator over the embedded schemas.
func NewResponseValidator() *ResponseValidator {
	return &ResponseValidator{
		fs:       embeddedSchemas,
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Validate checks raw against the named schema. An empty name skips
// validation.
func (v *ResponseValidator) Validate(name string, raw []byte) error {
	if name == "" {
		return nil
	}
	schema, err := v.schemaFor(name)
	if err != nil {
		return err
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var payload any
	if err := decoder.Decode(&payload); err != nil {
		return fmt.Errorf("churnapi: decode %s payload: %w", name, err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("churnapi: response failed %s validation: %w", name, err)
	}
	return nil
}

func (v *ResponseValidator) schemaFor(name string) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[name]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	compiler := jsonschema.NewCompiler()
	entries, err := fs.ReadDir(v.fs, "schemas")
	if err != nil {
		return nil, fmt.Errorf("churnapi: list schemas: %w", err)
	}
	for _, entry := range entries {
		data, err := fs.ReadFile(v.fs, "schemas/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("churnapi: read schema %s: %w", entry.Name(), err)
		}
		if err := compiler.AddResource(schemaBaseURL+entry.Name(), bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("churnapi: load schema %s: %w", entry.Name(), err)
		}
	}
	compiled, err := compiler.Compile(schemaBaseURL + name)
	if err != nil {
		return nil, fmt.Errorf("churnapi: compile schema %s: %w", name, err)
	}
	v.mu.Lock()
	v.compiled[name] = compiled
	v.mu.Unlock()
	return compiled, nil
}
