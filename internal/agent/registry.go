package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/invopop/jsonschema"
)

// FunctionCallFn executes a function with the raw arguments sent by the model.
// The returned value must be JSON encodable.
type FunctionCallFn func(ctx context.Context, args map[string]any) (any, error)

// FunctionDeclaration binds a function declared to the model to its handler.
type FunctionDeclaration struct {
	Name             string
	Description      string
	ParametersSchema *jsonschema.Schema
	FunctionCall     FunctionCallFn
}

// GenerateSchema derives the parameters schema of a function from the
// argument struct T. Fields without omitempty are required.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
		Anonymous:                 true,
	}

	var v T
	schema := reflector.Reflect(v)
	schema.Version = ""
	schema.ID = ""

	return schema
}

// NewFunction declares a function whose arguments are decoded into A and
// validated against A's schema before fn runs.
func NewFunction[A any](name, description string, fn func(ctx context.Context, args A) (any, error)) *FunctionDeclaration {
	schema := GenerateSchema[A]()

	return &FunctionDeclaration{
		Name:             name,
		Description:      description,
		ParametersSchema: schema,
		FunctionCall: func(ctx context.Context, raw map[string]any) (any, error) {
			args, err := decodeArgs[A](schema, raw)
			if err != nil {
				return nil, err
			}
			return fn(ctx, args)
		},
	}
}

func decodeArgs[A any](schema *jsonschema.Schema, raw map[string]any) (A, error) {
	var args A

	for _, field := range schema.Required {
		if v, ok := raw[field]; !ok || v == nil {
			return args, &ValidationError{Field: field, Message: "is required"}
		}
	}

	if schema.Properties != nil {
		for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
			if len(pair.Value.Enum) == 0 {
				continue
			}
			v, ok := raw[pair.Key]
			if !ok || v == nil {
				continue
			}
			if !slices.Contains(pair.Value.Enum, v) {
				return args, &ValidationError{Field: pair.Key, Message: fmt.Sprintf("must be one of %v, got %v", pair.Value.Enum, v)}
			}
		}
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return args, &ValidationError{Field: "args", Message: "not JSON encodable", Err: err}
	}

	if err := json.Unmarshal(data, &args); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return args, &ValidationError{
				Field:   typeErr.Field,
				Message: fmt.Sprintf("must be %s, got %s", typeErr.Type, typeErr.Value),
				Err:     err,
			}
		}
		return args, &ValidationError{Field: "args", Message: err.Error(), Err: err}
	}

	return args, nil
}

// Registry is an ordered, read-only set of function declarations. The order
// is the order declarations are sent to the model.
type Registry struct {
	declarations []*FunctionDeclaration
	index        map[string]*FunctionDeclaration
}

// NewRegistry validates and indexes the declarations.
func NewRegistry(declarations ...*FunctionDeclaration) (*Registry, error) {
	r := &Registry{
		declarations: make([]*FunctionDeclaration, 0, len(declarations)),
		index:        make(map[string]*FunctionDeclaration, len(declarations)),
	}

	for _, fd := range declarations {
		if fd == nil {
			return nil, fmt.Errorf("function declaration cannot be nil")
		}

		if fd.Name == "" {
			return nil, ErrEmptyName
		}

		if fd.FunctionCall == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingFunctions, fd.Name)
		}

		if _, exists := r.index[fd.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateFunction, fd.Name)
		}

		r.index[fd.Name] = fd
		r.declarations = append(r.declarations, fd)
	}

	return r, nil
}

// Require fails when any of names has no registered handler.
func (r *Registry) Require(names ...string) error {
	var missing []string
	for _, name := range names {
		if _, ok := r.index[name]; !ok {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingFunctions, missing)
	}

	return nil
}

// Lookup returns the declaration registered under name.
func (r *Registry) Lookup(name string) (*FunctionDeclaration, bool) {
	fd, ok := r.index[name]
	return fd, ok
}

// Invoke runs the named function. Handler errors are returned unchanged.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (any, error) {
	fd, ok := r.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFunctionNotFound, name)
	}

	if args == nil {
		args = map[string]any{}
	}

	return fd.FunctionCall(ctx, args)
}

// Declarations returns the declarations in registration order.
func (r *Registry) Declarations() []*FunctionDeclaration {
	return slices.Clone(r.declarations)
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.declarations))
	for _, fd := range r.declarations {
		names = append(names, fd.Name)
	}
	return names
}
