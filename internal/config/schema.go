package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

//go:embed analysis.schema.json
var analysisSchemaJSON string

// schemaPrinter formats schema validation messages.
var schemaPrinter = message.NewPrinter(language.English)

// analysisSchema is the compiled JSON Schema for analysis configurations.
var analysisSchema = mustCompileSchema(analysisSchemaJSON, "analysis.schema.json")

func mustCompileSchema(raw, name string) *jsonschema.Schema {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}
	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// SchemaError lists the places a configuration document breaks the schema,
// such as misspelled keys or values of the wrong type.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "config does not match schema: " + strings.Join(e.Problems, "; ")
}

// ValidateSchema checks configuration bytes in the format ext selects
// against the analysis schema. Syntax errors are returned as parse errors.
func ValidateSchema(data []byte, ext string) error {
	var doc any
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse config JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}

	err := analysisSchema.Validate(doc)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return fmt.Errorf("schema: %w", err)
	}
	var problems []string
	collectSchemaErrors(ve, &problems)
	sort.Strings(problems)
	return &SchemaError{Problems: problems}
}

func collectSchemaErrors(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/" + strings.Join(ve.InstanceLocation, "/")
		*out = append(*out, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(schemaPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, out)
	}
}
