package analysis

import (
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v2"
)

type physiqueRatings struct {
	Chest int `json:"chest" jsonschema:"minimum=1,maximum=10" jsonschema_description:"Chest development score, 1 to 10"`
	Legs  int `json:"legs" jsonschema:"minimum=1,maximum=10" jsonschema_description:"Legs development score, 1 to 10"`
	Arms  int `json:"arms" jsonschema:"minimum=1,maximum=10" jsonschema_description:"Arms development score, 1 to 10"`
	Back  int `json:"back" jsonschema:"minimum=1,maximum=10" jsonschema_description:"Back development score, 1 to 10"`
}

func generateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

var ratingsSchemaParam = openai.ResponseFormatJSONSchemaJSONSchemaParam{
	Name:        "PhysiqueRatings",
	Description: openai.String("Physique ratings per muscle group"),
	Schema:      generateSchema[physiqueRatings](),
	Strict:      openai.Bool(true),
}
