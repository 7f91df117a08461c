package overrides

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "listing-override-patch.json"

//go:embed patch.schema.json
var patchSchema []byte

var compiledSchema = mustCompile()

func mustCompile() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	if err := compiler.AddResource(schemaURL, bytes.NewReader(patchSchema)); err != nil {
		panic(fmt.Sprintf("can't add override schema: %v", err))
	}

	return compiler.MustCompile(schemaURL)
}

// Validate checks patch against override schema. It returns *ValidationError listing every violation.
func Validate(patch models.Patch) error {
	if patch == nil {
		patch = models.Patch{}
	}

	encoded, err := json.Marshal(patch)
	if err != nil {
		return &ValidationError{Messages: []string{fmt.Sprintf("patch is not valid JSON: %v", err)}}
	}

	decoder := json.NewDecoder(bytes.NewReader(encoded))
	decoder.UseNumber()
	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return &ValidationError{Messages: []string{fmt.Sprintf("patch is not valid JSON: %v", err)}}
	}

	err = compiledSchema.Validate(doc)
	if err == nil {
		return nil
	}

	var schemaErr *jsonschema.ValidationError
	if !errors.As(err, &schemaErr) {
		return fmt.Errorf("can't validate patch: %w", err)
	}

	messages := leafMessages(schemaErr)
	sort.Strings(messages)
	return &ValidationError{Messages: messages}
}

func leafMessages(err *jsonschema.ValidationError) []string {
	if len(err.Causes) == 0 {
		field := strings.TrimPrefix(err.InstanceLocation, "/")
		if field == "" {
			return []string{err.Message}
		}
		return []string{field + ": " + err.Message}
	}

	var messages []string
	for _, cause := range err.Causes {
		messages = append(messages, leafMessages(cause)...)
	}
	return messages
}
