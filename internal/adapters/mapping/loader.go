package mapping

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "platform_mapping.schema.json"

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		panic(fmt.Sprintf("mapping: add schema resource: %v", err))
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		panic(fmt.Sprintf("mapping: compile schema: %v", err))
	}
	return schema
}

// LoadFile читает файл маппинга и проверяет его по схеме
func LoadFile(path string) (*domain.MappingTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse проверяет JSON по схеме и декодирует его в таблицу маппинга
func Parse(data []byte) (*domain.MappingTable, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode mapping: %w", err)
	}
	if err := compiledSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("mapping does not match schema: %w", err)
	}

	var table domain.MappingTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("decode mapping: %w", err)
	}
	return &table, nil
}
