// Package config loads the optional --config YAML document (spec.md §3
// NetworkConfig, §4.7 "Postgres access is a parallel allow-list") the way
// the teacher validates its own parameter documents: a compiled JSON Schema
// gate in front of a plain struct decode, ported from
// core/types.Validator's compile-then-validate shape.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/vercel-labs/just-bash/internal/netgate"
)

const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "allowed_url_prefixes": {"type": "array", "items": {"type": "string"}},
    "allowed_methods": {"type": "array", "items": {"type": "string"}},
    "dangerously_allow_full_internet_access": {"type": "boolean"},
    "max_redirects": {"type": "integer", "minimum": 0},
    "timeout_ms": {"type": "integer", "minimum": 0},
    "max_response_size": {"type": "integer", "minimum": 0},
    "allowed_postgres_hosts": {
      "type": "array",
      "items": {
        "oneOf": [
          {"type": "string"},
          {
            "type": "object",
            "additionalProperties": false,
            "required": ["host"],
            "properties": {
              "host": {"type": "string"},
              "port": {"type": "integer"},
              "database": {"type": "string"},
              "username": {"type": "string"},
              "password": {"type": "string"},
              "ssl": {"type": "boolean"}
            }
          }
        ]
      }
    }
  }
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema://just-bash-config.json", strings.NewReader(schemaJSON)); err != nil {
		panic(fmt.Sprintf("config: bad embedded schema: %v", err))
	}
	s, err := compiler.Compile("schema://just-bash-config.json")
	if err != nil {
		panic(fmt.Sprintf("config: bad embedded schema: %v", err))
	}
	return s
}

// postgresHostEntry mirrors one element of allowed_postgres_hosts: either a
// bare host string or a full override record.
type postgresHostEntry struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SSL      bool   `yaml:"ssl"`
}

type document struct {
	AllowedURLPrefixes                 []string      `yaml:"allowed_url_prefixes"`
	AllowedMethods                      []string      `yaml:"allowed_methods"`
	DangerouslyAllowFullInternetAccess bool          `yaml:"dangerously_allow_full_internet_access"`
	MaxRedirects                        int           `yaml:"max_redirects"`
	TimeoutMS                           int           `yaml:"timeout_ms"`
	MaxResponseSize                     int64         `yaml:"max_response_size"`
	AllowedPostgresHosts                []interface{} `yaml:"allowed_postgres_hosts"`
}

// Result is everything a CLI entry point needs to build the gates.
type Result struct {
	Network          netgate.Config
	PostgresEntries  []interface{} // string or netgate.PostgresOverride
}

// LoadFile reads, schema-validates, and decodes a --config YAML document.
func LoadFile(path string) (*Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Load(raw)
}

// Load validates and decodes YAML config bytes directly (used by tests and
// by LoadFile).
func Load(raw []byte) (*Result, error) {
	// jsonschema validates against JSON-shaped values (map[string]interface{}
	// with string keys, not YAML's map[interface{}]interface{}); round-trip
	// through encoding/json to normalize.
	normalized, err := toJSONCompatible(raw)
	if err != nil {
		return nil, err
	}
	if err := compiledSchema.Validate(normalized); err != nil {
		return nil, fmt.Errorf("config: schema validation failed: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("config: invalid document: %w", err)
	}

	pgEntries := make([]interface{}, 0, len(doc.AllowedPostgresHosts))
	for _, e := range doc.AllowedPostgresHosts {
		switch v := e.(type) {
		case string:
			pgEntries = append(pgEntries, v)
		case map[string]interface{}:
			entry := postgresHostEntryFromMap(v)
			pgEntries = append(pgEntries, netgate.PostgresOverride{
				Host: entry.Host, Port: entry.Port, Database: entry.Database,
				Username: entry.Username, Password: entry.Password, SSL: entry.SSL,
			})
		default:
			return nil, fmt.Errorf("config: invalid allowed_postgres_hosts entry: %T", e)
		}
	}

	return &Result{
		Network: netgate.Config{
			AllowedURLPrefixes:                 doc.AllowedURLPrefixes,
			AllowedMethods:                      doc.AllowedMethods,
			DangerouslyAllowFullInternetAccess: doc.DangerouslyAllowFullInternetAccess,
			MaxRedirects:                        doc.MaxRedirects,
			TimeoutMS:                           doc.TimeoutMS,
			MaxResponseSize:                     doc.MaxResponseSize,
		},
		PostgresEntries: pgEntries,
	}, nil
}

func postgresHostEntryFromMap(m map[string]interface{}) postgresHostEntry {
	var e postgresHostEntry
	if v, ok := m["host"].(string); ok {
		e.Host = v
	}
	if v, ok := m["port"].(int); ok {
		e.Port = v
	}
	if v, ok := m["database"].(string); ok {
		e.Database = v
	}
	if v, ok := m["username"].(string); ok {
		e.Username = v
	}
	if v, ok := m["password"].(string); ok {
		e.Password = v
	}
	if v, ok := m["ssl"].(bool); ok {
		e.SSL = v
	}
	return e
}

// toJSONCompatible re-parses YAML through a generic map, then round-trips
// it through encoding/json so jsonschema sees plain JSON types.
func toJSONCompatible(raw []byte) (interface{}, error) {
	var generic map[string]interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("config: invalid YAML: %w", err)
	}
	encoded, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	var normalized interface{}
	if err := json.Unmarshal(encoded, &normalized); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return normalized, nil
}
