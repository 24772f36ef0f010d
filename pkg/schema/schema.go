package schema

import (
	"github.com/invopop/jsonschema"

	"kadha/pkg/inference"
)

func generateSchema[T any]() any {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return r.Reflect(v)
}

var CharacterListSchema = generateSchema[CharacterList]()

// CharacterFormat is the structured output format for character generation.
func CharacterFormat() inference.Format {
	return inference.Format{
		Name:        "story_characters",
		Description: "Main characters of a Malayalam story with their relationships",
		Schema:      CharacterListSchema,
	}
}
