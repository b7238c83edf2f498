// Package rest declares the fields job-listing REST resources expose and turns
// those declarations into resource schemas.
package rest

import "fmt"

// Kind says where a field's value lives.
type Kind string

const (
	KindField   Kind = "field"   // a column of the resource itself
	KindMeta    Kind = "meta"    // stored as resource metadata
	KindDerived Kind = "derived" // computed on read, never stored
)

// Type is a field's value type in schema terms.
type Type struct {
	Name string
}

// Environment hands out field declarations and the types they may use.
type Environment struct {
	types map[string]Type
}

var builtinTypes = []string{"string", "integer", "number", "boolean", "array", "object"}

// NewEnvironment returns an environment knowing the JSON schema primitive types.
func NewEnvironment() *Environment {
	env := &Environment{types: make(map[string]Type, len(builtinTypes))}
	for _, name := range builtinTypes {
		env.types[name] = Type{Name: name}
	}
	return env
}

// Type returns the registered type called name. It panics on unknown names,
// which only a programming error can produce.
func (e *Environment) Type(name string) Type {
	t, ok := e.types[name]
	if !ok {
		panic(fmt.Sprintf("rest: unknown type %q", name))
	}
	return t
}

// Field starts a declaration for name. Fields default to KindField with
// string values.
func (e *Environment) Field(name, label string) *FieldDeclaration {
	return &FieldDeclaration{
		Name:  name,
		Label: label,
		Kind:  KindField,
		Type:  e.types["string"],
	}
}

// FieldDeclaration describes one field of a REST resource.
type FieldDeclaration struct {
	Name    string
	Label   string
	Kind    Kind
	Type    Type
	Choices []string
}

// WithKind sets where the field is stored.
func (f *FieldDeclaration) WithKind(kind Kind) *FieldDeclaration {
	f.Kind = kind
	return f
}

// WithType sets the value type.
func (f *FieldDeclaration) WithType(t Type) *FieldDeclaration {
	f.Type = t
	return f
}

// WithChoices restricts the field to the given values.
func (f *FieldDeclaration) WithChoices(choices []string) *FieldDeclaration {
	f.Choices = append([]string(nil), choices...)
	return f
}

// Model is a REST resource model that declares its fields.
type Model interface {
	DeclareFields(env *Environment) []*FieldDeclaration
}
