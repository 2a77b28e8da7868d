package extraction

import (
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// structureSchema constrains the sections of a canonicalized payload.
// Leaf values are deliberately unconstrained: numeric coercion is total
// and happens after this check.
const structureSchema = `{
  "type": "object",
  "required": ["header", "line_items"],
  "properties": {
    "header": {"type": "object"},
    "totals": {"type": "object"},
    "line_items": {
      "type": "array",
      "items": {"type": "object"}
    }
  }
}`

// structureSchemaURL is absolute so validation messages never carry a
// working-directory path.
const structureSchemaURL = "mem://invoicerecon/extraction.json"

var compiledStructure = jsonschema.MustCompileString(structureSchemaURL, structureSchema)

func validateStructure(doc map[string]any) error {
	return compiledStructure.Validate(doc)
}
