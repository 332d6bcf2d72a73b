package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ConfigValueType defines the expected type for a configuration value.
type ConfigValueType int

const (
	TypeBool ConfigValueType = iota
	TypeInt
	TypeFloat
	TypeDuration
	TypeString
	TypeEnum
)

// String returns the string representation of ConfigValueType.
func (t ConfigValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeDuration:
		return "duration"
	case TypeString:
		return "string"
	case TypeEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// ConfigKeySchema defines a known configuration key with its expected type and validation rules.
type ConfigKeySchema struct {
	Path          string          // Dotted key path (e.g., "git.backend")
	Type          ConfigValueType // Expected value type for validation
	AllowedValues []string        // Valid values for enum types (empty for non-enums)
	Description   string          // Human-readable description for help text
	Default       interface{}     // Default value
}

// KnownKeys is the registry of all known configuration keys with their schemas.
var KnownKeys = map[string]ConfigKeySchema{
	"version": {
		Path:        "version",
		Type:        TypeString,
		Description: "Raw project version (empty = latest tag matching tag_key)",
		Default:     "",
	},
	"text_key": {
		Path:        "text_key",
		Type:        TypeString,
		Description: "Identifier template of VERSION.txt headers (must contain VERSION)",
		Default:     "jetty-VERSION",
	},
	"tag_key": {
		Path:        "tag_key",
		Type:        TypeString,
		Description: "Identifier template of git tags (must contain VERSION)",
		Default:     "jetty-VERSION",
	},
	"input": {
		Path:        "input",
		Type:        TypeString,
		Description: "VERSION.txt document to reconcile",
		Default:     "VERSION.txt",
	},
	"output": {
		Path:        "output",
		Type:        TypeString,
		Description: "Path of the regenerated document",
		Default:     "target/VERSION.txt",
	},
	"date_format": {
		Path:        "date_format",
		Type:        TypeString,
		Description: "Release date layout in Go time format",
		Default:     "02 January 2006",
	},
	"sort_existing": {
		Path:        "sort_existing",
		Type:        TypeBool,
		Description: "Sort the issues of releases not updated by this run",
		Default:     false,
	},
	"refresh_tags": {
		Path:        "refresh_tags",
		Type:        TypeBool,
		Description: "Fetch tags from the remote before reconciling",
		Default:     false,
	},
	"update_date": {
		Path:        "update_date",
		Type:        TypeBool,
		Description: "Stamp today's date on the release when it has none",
		Default:     false,
	},
	"copy_generated": {
		Path:        "copy_generated",
		Type:        TypeBool,
		Description: "Copy the regenerated document over the input",
		Default:     false,
	},
	"skip": {
		Path:        "skip",
		Type:        TypeBool,
		Description: "Disable generation for this run",
		Default:     false,
	},
	"attach": {
		Path:        "attach",
		Type:        TypeBool,
		Description: "Record the output as a build artifact in artifacts.yml",
		Default:     false,
	},
	"attach_type": {
		Path:        "attach_type",
		Type:        TypeString,
		Description: "Artifact type of the attached output",
		Default:     "txt",
	},
	"attach_classifier": {
		Path:        "attach_classifier",
		Type:        TypeString,
		Description: "Artifact classifier of the attached output",
		Default:     "version",
	},
	"issue_patterns": {
		Path:        "issue_patterns",
		Type:        TypeString,
		Description: "Regular expressions with an (?P<id>...) group matched against commit messages (default: JETTY keys, Issue/Bug numbers, #numbers)",
		Default:     nil,
	},
	"git.backend": {
		Path:          "git.backend",
		Type:          TypeEnum,
		AllowedValues: []string{"go-git", "cli"},
		Description:   "Git implementation: go-git (built in) or cli (git executable)",
		Default:       "go-git",
	},
	"git.dir": {
		Path:        "git.dir",
		Type:        TypeString,
		Description: "Directory inside the repository",
		Default:     ".",
	},
	"git.remote": {
		Path:        "git.remote",
		Type:        TypeString,
		Description: "Remote fetched by refresh_tags",
		Default:     "origin",
	},
	"git.fetch_timeout": {
		Path:        "git.fetch_timeout",
		Type:        TypeDuration,
		Description: "Timeout of the tag refresh (e.g. 30s, 2m)",
		Default:     "60s",
	},
	"log_level": {
		Path:          "log_level",
		Type:          TypeEnum,
		AllowedValues: []string{"error", "warn", "info", "debug", "trace"},
		Description:   "Log verbosity",
		Default:       "info",
	},
}

// ErrUnknownKey is returned when trying to access an unknown configuration key.
type ErrUnknownKey struct {
	Key string
}

func (e ErrUnknownKey) Error() string {
	return "unknown configuration key: " + e.Key
}

// GetKeySchema returns the schema for a known configuration key.
// Returns ErrUnknownKey if the key is not in the registry.
func GetKeySchema(path string) (ConfigKeySchema, error) {
	schema, ok := KnownKeys[path]
	if !ok {
		return ConfigKeySchema{}, ErrUnknownKey{Key: path}
	}
	return schema, nil
}

// InferType determines the ConfigValueType from a string value.
// Order of inference: bool literals -> integers -> durations -> string fallback.
func InferType(value string) ConfigValueType {
	if value == "true" || value == "false" {
		return TypeBool
	}
	if _, err := strconv.Atoi(value); err == nil {
		return TypeInt
	}
	if _, err := time.ParseDuration(value); err == nil {
		return TypeDuration
	}
	return TypeString
}

// ParsedValue represents a configuration value after type inference and validation.
type ParsedValue struct {
	Raw    string      // Original string input from user
	Parsed interface{} // Value converted to correct type
	Type   ConfigValueType
}

// ValidateValue validates a value against the schema for a given key.
// Returns the parsed value or an error with details about what's wrong.
func ValidateValue(key, value string) (ParsedValue, error) {
	schema, err := GetKeySchema(key)
	if err != nil {
		return ParsedValue{}, err
	}
	return validateAgainstSchema(schema, value)
}

// validateAgainstSchema validates a value against a specific schema.
func validateAgainstSchema(schema ConfigKeySchema, value string) (ParsedValue, error) {
	switch schema.Type {
	case TypeBool:
		return parseBoolValue(value)
	case TypeInt:
		return parseIntValue(value)
	case TypeFloat:
		return parseFloatValue(value)
	case TypeDuration:
		return parseDurationValue(value)
	case TypeEnum:
		return parseEnumValue(schema, value)
	case TypeString:
		return ParsedValue{Raw: value, Parsed: value, Type: TypeString}, nil
	default:
		return ParsedValue{}, fmt.Errorf("unsupported type: %v", schema.Type)
	}
}

// parseBoolValue parses and validates a boolean value.
func parseBoolValue(value string) (ParsedValue, error) {
	switch strings.ToLower(value) {
	case "true":
		return ParsedValue{Raw: value, Parsed: true, Type: TypeBool}, nil
	case "false":
		return ParsedValue{Raw: value, Parsed: false, Type: TypeBool}, nil
	default:
		return ParsedValue{}, fmt.Errorf("invalid boolean: %q (expected true or false)", value)
	}
}

// parseIntValue parses and validates an integer value.
func parseIntValue(value string) (ParsedValue, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return ParsedValue{}, fmt.Errorf("invalid integer: %q", value)
	}
	return ParsedValue{Raw: value, Parsed: n, Type: TypeInt}, nil
}

// parseFloatValue parses and validates a float value.
func parseFloatValue(value string) (ParsedValue, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return ParsedValue{}, fmt.Errorf("invalid float: %q", value)
	}
	return ParsedValue{Raw: value, Parsed: f, Type: TypeFloat}, nil
}

// parseDurationValue parses and validates a duration value.
func parseDurationValue(value string) (ParsedValue, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return ParsedValue{}, fmt.Errorf("invalid duration: %q (examples: 5m, 1h30m, 10s)", value)
	}
	return ParsedValue{Raw: value, Parsed: d.String(), Type: TypeDuration}, nil
}

// parseEnumValue validates a value against allowed enum options.
func parseEnumValue(schema ConfigKeySchema, value string) (ParsedValue, error) {
	for _, allowed := range schema.AllowedValues {
		if value == allowed {
			return ParsedValue{Raw: value, Parsed: value, Type: TypeEnum}, nil
		}
	}
	return ParsedValue{}, fmt.Errorf(
		"invalid value: %q (valid options: %s)",
		value,
		strings.Join(schema.AllowedValues, ", "),
	)
}
