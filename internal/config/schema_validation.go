package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	subprocschema "github.com/Paintersrp/subproc/schema"
)

const consumerSchemaURL = "consumer.v1.json"

var (
	schemaOnce     sync.Once
	consumerSchema *jsonschema.Schema
	schemaErr      error
)

func loadConsumerSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(consumerSchemaURL, bytes.NewReader(subprocschema.ConsumerV1Schema)); err != nil {
			schemaErr = fmt.Errorf("add consumer schema resource: %w", err)
			return
		}
		consumerSchema, schemaErr = compiler.Compile(consumerSchemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile consumer schema: %w", schemaErr)
		}
	})
	return consumerSchema, schemaErr
}

// validateAgainstSchema checks a decoded YAML document against the embedded
// JSON schema. Values are round-tripped through encoding/json so YAML scalar
// types match what the validator expects.
func validateAgainstSchema(doc map[string]any) error {
	schema, err := loadConsumerSchema()
	if err != nil {
		return fmt.Errorf("load consumer schema: %w", err)
	}

	buf, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("prepare config for schema validation: %w", err)
	}
	decoder := json.NewDecoder(bytes.NewReader(buf))
	decoder.UseNumber()
	var normalized any
	if err := decoder.Decode(&normalized); err != nil {
		return fmt.Errorf("prepare config for schema validation: %w", err)
	}

	if err := schema.Validate(normalized); err != nil {
		var vErr *jsonschema.ValidationError
		if errors.As(err, &vErr) {
			return fmt.Errorf("%w: schema validation failed:\n%s", ErrInvalid, formatValidationError(vErr))
		}
		return fmt.Errorf("%w: schema validation failed: %v", ErrInvalid, err)
	}
	return nil
}

func formatValidationError(err *jsonschema.ValidationError) string {
	var b strings.Builder
	var walk func(*jsonschema.ValidationError, int)
	walk = func(e *jsonschema.ValidationError, depth int) {
		if len(e.Causes) == 0 || !strings.HasPrefix(e.Message, "doesn't validate with") {
			fmt.Fprintf(&b, "%s- %s: %s\n", strings.Repeat("  ", depth), fieldPath(e.InstanceLocation), e.Message)
			depth++
		}
		for _, cause := range e.Causes {
			walk(cause, depth)
		}
	}
	walk(err, 0)
	return strings.TrimRight(b.String(), "\n")
}

// fieldPath renders a JSON pointer as a dotted config path, e.g.
// "/producer/command/0" becomes "producer.command[0]".
func fieldPath(ptr string) string {
	segments := strings.Split(strings.TrimPrefix(ptr, "/"), "/")
	var b strings.Builder
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		decoded := strings.ReplaceAll(strings.ReplaceAll(segment, "~1", "/"), "~0", "~")
		if _, err := strconv.Atoi(decoded); err == nil {
			fmt.Fprintf(&b, "[%s]", decoded)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(decoded)
	}
	if b.Len() == 0 {
		return "config"
	}
	return b.String()
}
