package planner

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var paramSchemaFS embed.FS

var paramSchemaFiles = map[ToolName]string{
	ToolSearch:      "search.json",
	ToolRetrieve:    "retrieve.json",
	ToolVideoSearch: "video_search.json",
}

var (
	paramsOnce    sync.Once
	paramSchemas  map[ToolName]*jsonschema.Schema
	paramsCompErr error
)

func compileParamSchemas() {
	compiler := jsonschema.NewCompiler()
	compiled := make(map[ToolName]*jsonschema.Schema, len(paramSchemaFiles))
	for tool, name := range paramSchemaFiles {
		raw, err := paramSchemaFS.ReadFile(path.Join("schemas", name))
		if err != nil {
			paramsCompErr = fmt.Errorf("read %s: %w", name, err)
			return
		}
		if err := compiler.AddResource(name, bytes.NewReader(raw)); err != nil {
			paramsCompErr = fmt.Errorf("add schema resource %s: %w", name, err)
			return
		}
		schema, err := compiler.Compile(name)
		if err != nil {
			paramsCompErr = fmt.Errorf("compile %s: %w", name, err)
			return
		}
		compiled[tool] = schema
	}
	paramSchemas = compiled
}

// ParameterSchema returns the compiled parameter schema for tool.
func ParameterSchema(tool ToolName) (*jsonschema.Schema, error) {
	paramsOnce.Do(compileParamSchemas)
	if paramsCompErr != nil {
		return nil, paramsCompErr
	}
	schema, ok := paramSchemas[tool]
	if !ok {
		return nil, fmt.Errorf("no parameter schema for tool %q", tool)
	}
	return schema, nil
}

// ValidateParameters checks a JSON-encoded parameter object against the schema of tool.
func ValidateParameters(tool ToolName, data []byte) error {
	schema, err := ParameterSchema(tool)
	if err != nil {
		return err
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parameters are not valid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%s parameters do not match schema: %w", tool, err)
	}
	return nil
}
