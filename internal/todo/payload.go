package todo

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	createItemSchemaName = "create_item.schema.json"
	updateItemSchemaName = "update_item.schema.json"
)

//go:embed schema/create_item.schema.json
var createItemSchemaJSON string

//go:embed schema/update_item.schema.json
var updateItemSchemaJSON string

// BodyError reports a request body that is not valid JSON or does not match its schema.
type BodyError struct {
	Err error
}

func (e *BodyError) Error() string {
	return e.Err.Error()
}

func (e *BodyError) Unwrap() error {
	return e.Err
}

type createItemBody struct {
	OwnerKey    string  `json:"ownerKey"`
	ItemID      string  `json:"itemId"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *int    `json:"priority"`
}

func (b createItemBody) item() Item {
	return NewItem(b.OwnerKey, b.ItemID, deref(b.Description), deref(b.Status), derefInt(b.Priority))
}

type updateItemBody struct {
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *int    `json:"priority"`
	Completed   *bool   `json:"completed"`
}

// patch keeps description, status and priority only when they are non-empty / non-zero,
// so {"priority":0} and {"description":""} change nothing. completed is kept whenever
// it is present, including false.
func (b updateItemBody) patch() Patch {
	var p Patch
	if b.Description != nil && *b.Description != "" {
		p.Description = b.Description
	}
	if b.Status != nil && *b.Status != "" {
		p.Status = b.Status
	}
	if b.Priority != nil && *b.Priority != 0 {
		p.Priority = b.Priority
	}
	if b.Completed != nil {
		p.Completed = b.Completed
	}
	return p
}

func decodeCreateBody(raw string) (createItemBody, error) {
	var body createItemBody
	if err := decodePayload(raw, createItemSchemaName, &body); err != nil {
		return createItemBody{}, err
	}
	return body, nil
}

func decodeUpdateBody(raw string) (updateItemBody, error) {
	var body updateItemBody
	if err := decodePayload(raw, updateItemSchemaName, &body); err != nil {
		return updateItemBody{}, err
	}
	return body, nil
}

func decodePayload(raw, schemaName string, target any) error {
	value, err := decodeStrictJSON([]byte(raw))
	if err != nil {
		return &BodyError{Err: fmt.Errorf("decode body JSON: %w", err)}
	}

	schema, err := loadSchema(schemaName)
	if err != nil {
		return fmt.Errorf("load schema %s: %w", schemaName, err)
	}
	if err := schema.Validate(value); err != nil {
		return &BodyError{Err: fmt.Errorf("schema validation failed: %w", err)}
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("normalize body JSON: %w", err)
	}
	if err := json.Unmarshal(normalized, target); err != nil {
		return &BodyError{Err: fmt.Errorf("unmarshal body: %w", err)}
	}
	return nil
}

var (
	compileOnce     sync.Once
	compiledSchemas map[string]*jsonschema.Schema
	compileErr      error
)

func loadSchema(name string) (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		sources := map[string]string{
			createItemSchemaName: createItemSchemaJSON,
			updateItemSchemaName: updateItemSchemaJSON,
		}
		for resource, source := range sources {
			if err := compiler.AddResource(resource, strings.NewReader(source)); err != nil {
				compileErr = fmt.Errorf("add schema resource %s: %w", resource, err)
				return
			}
		}

		compiled := make(map[string]*jsonschema.Schema, len(sources))
		for resource := range sources {
			schema, err := compiler.Compile(resource)
			if err != nil {
				compileErr = fmt.Errorf("compile schema %s: %w", resource, err)
				return
			}
			compiled[resource] = schema
		}
		compiledSchemas = compiled
	})

	if compileErr != nil {
		return nil, compileErr
	}
	schema, ok := compiledSchemas[name]
	if !ok {
		return nil, fmt.Errorf("schema %s is not registered", name)
	}
	return schema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("body is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("body contains trailing content")
	}
	return value, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func derefInt(value *int) int {
	if value == nil {
		return 0
	}
	return *value
}
