package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a rejected edit.
type ErrorKind string

const (
	KindDuplicateModel      ErrorKind = "duplicate_model"
	KindModelNotFound       ErrorKind = "model_not_found"
	KindFieldNotFound       ErrorKind = "field_not_found"
	KindReferencedBy        ErrorKind = "referenced_by"
	KindUnparsable          ErrorKind = "unparsable_document"
	KindInvalidName         ErrorKind = "invalid_name"
	KindInvalidFieldSpec    ErrorKind = "invalid_field_spec"
	KindInvalidRelationKind ErrorKind = "invalid_relation_kind"
	KindSelfRelation        ErrorKind = "self_relation"
)

// EditError is returned for every rejected operation. A rejection never
// comes with a modified document.
type EditError struct {
	Kind    ErrorKind `json:"kind"`
	Model   string    `json:"model,omitempty"`
	Field   string    `json:"field,omitempty"`
	Names   []string  `json:"names,omitempty"`
	Line    int       `json:"line,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Sentinels for errors.Is. They match any EditError of the same kind.
var (
	ErrDuplicateModel      = &EditError{Kind: KindDuplicateModel}
	ErrModelNotFound       = &EditError{Kind: KindModelNotFound}
	ErrFieldNotFound       = &EditError{Kind: KindFieldNotFound}
	ErrReferencedBy        = &EditError{Kind: KindReferencedBy}
	ErrUnparsable          = &EditError{Kind: KindUnparsable}
	ErrInvalidName         = &EditError{Kind: KindInvalidName}
	ErrInvalidFieldSpec    = &EditError{Kind: KindInvalidFieldSpec}
	ErrInvalidRelationKind = &EditError{Kind: KindInvalidRelationKind}
	ErrSelfRelation        = &EditError{Kind: KindSelfRelation}
)

func (e *EditError) Error() string {
	switch e.Kind {
	case KindDuplicateModel:
		return fmt.Sprintf("model %q already exists", e.Model)
	case KindModelNotFound:
		return fmt.Sprintf("model %q does not exist", e.Model)
	case KindFieldNotFound:
		if e.Message != "" {
			return e.Message
		}
		return fmt.Sprintf("field %q does not exist in %s", e.Field, e.Model)
	case KindReferencedBy:
		return fmt.Sprintf("model %q is referenced by %s", e.Model, strings.Join(e.Names, ", "))
	case KindSelfRelation:
		return fmt.Sprintf("model %q cannot have a %s relation with itself", e.Model, e.Message)
	case KindUnparsable:
		if e.Line > 0 {
			return fmt.Sprintf("unparsable document: line %d: %s", e.Line, e.Message)
		}
		return "unparsable document: " + e.Message
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return string(e.Kind)
}

// Is matches sentinels by kind.
func (e *EditError) Is(target error) bool {
	t, ok := target.(*EditError)
	return ok && t.Kind == e.Kind
}

// AsEditError extracts an *EditError from err's chain.
func AsEditError(err error) (*EditError, bool) {
	var ee *EditError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}
