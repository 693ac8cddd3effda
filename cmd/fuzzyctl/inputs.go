package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// inputsSchema describes an --inputs file: symptom name -> severity.
const inputsSchema = `{
	"type": "object",
	"minProperties": 1,
	"additionalProperties": {"type": "number"}
}`

// inputsValidator compiles inputsSchema once per process.
var inputsValidator = sync.OnceValues(func() (*jsonschema.Schema, error) {
	var def any
	if err := json.Unmarshal([]byte(inputsSchema), &def); err != nil {
		return nil, fmt.Errorf("parse inputs schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema://inputs.json", def); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	return c.Compile("schema://inputs.json")
})

// readInputsFile loads {"demam": 7.5, ...} from a JSON file.
func readInputsFile(path string) (map[string]float64, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("inputs %s: invalid JSON: %w", filepath.Base(path), err)
	}
	schema, err := inputsValidator()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("inputs %s: %w", filepath.Base(path), err)
	}

	var inputs map[string]float64
	if err := json.Unmarshal(raw, &inputs); err != nil {
		return nil, fmt.Errorf("inputs %s: %w", filepath.Base(path), err)
	}
	return inputs, nil
}

// parseAssignments turns repeated --set name=value flags into inputs.
// Later assignments win.
func parseAssignments(sets []string, into map[string]float64) error {
	for _, s := range sets {
		name, value, ok := strings.Cut(s, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return fmt.Errorf("--set %q: want name=value", s)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("--set %q: %q is not a number", s, value)
		}
		into[name] = v
	}
	return nil
}
