package rest

// SchemaDialect is the JSON schema draft resource schemas are written in.
const SchemaDialect = "http://json-schema.org/draft-04/schema#"

// Schema is a resource schema as served to REST clients.
type Schema struct {
	Dialect    string              `json:"$schema"`
	Title      string              `json:"title"`
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
}

// Property is one field of a Schema.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Context     []string `json:"context"`
	Meta        bool     `json:"x-meta,omitempty"`
	ReadOnly    bool     `json:"readonly,omitempty"`
}

// BuildSchema declares model's fields and describes them as an object schema
// titled title. Later declarations of the same name replace earlier ones.
func BuildSchema(env *Environment, title string, model Model) Schema {
	schema := Schema{
		Dialect:    SchemaDialect,
		Title:      title,
		Type:       "object",
		Properties: make(map[string]Property),
	}
	for _, f := range model.DeclareFields(env) {
		schema.Properties[f.Name] = Property{
			Type:        f.Type.Name,
			Description: f.Label,
			Enum:        append([]string(nil), f.Choices...),
			Context:     []string{"view", "edit"},
			Meta:        f.Kind == KindMeta,
			ReadOnly:    f.Kind == KindDerived,
		}
	}
	return schema
}
