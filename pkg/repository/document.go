package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/amirasaad/charity/pkg/domain"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks doc against its struct tags and reports the first
// failing field as a domain.ValidationError.
func Validate(doc any) error {
	err := validatorInstance().Struct(doc)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := "failed " + fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return domain.NewValidationError(fe.Field(), reason)
	}
	return domain.NewValidationError("", err.Error())
}

// Entity returns the stored header of doc.
func Entity(doc any) *domain.Entity {
	d, ok := doc.(domain.Document)
	if !ok {
		panic(fmt.Sprintf("repository: %T does not embed domain.Entity", doc))
	}
	return d.Base()
}

// Fields returns the JSON field names a document type declares, including
// those of embedded structs.
func Fields(t reflect.Type) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	var out []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			out = append(out, Fields(f.Type)...)
			continue
		}
		if !f.IsExported() {
			continue
		}
		name := jsonName(f)
		if name == "-" {
			continue
		}
		out = append(out, name)
	}
	return out
}

// GoField maps a JSON field name to the Go struct field name.
func GoField(t reflect.Type, key string) (string, bool) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			if name, ok := GoField(f.Type, key); ok {
				return name, true
			}
			continue
		}
		if f.IsExported() && jsonName(f) == key {
			return f.Name, true
		}
	}
	return "", false
}

// FieldString returns the string form of the JSON field key of doc. Nil
// pointers report ok=false.
func FieldString(doc any, key string) (string, bool) {
	v := reflect.ValueOf(doc)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "", false
		}
		v = v.Elem()
	}
	name, ok := GoField(v.Type(), key)
	if !ok {
		return "", false
	}
	f := v.FieldByName(name)
	for f.Kind() == reflect.Pointer {
		if f.IsNil() {
			return "", false
		}
		f = f.Elem()
	}
	return fmt.Sprint(f.Interface()), true
}

// Matches reports whether doc satisfies every filter entry.
func Matches(doc any, f Filter) bool {
	for k, want := range f {
		got, ok := FieldString(doc, k)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// ApplyPatch merges p into doc after checking it against s, then validates
// the result. doc is left untouched when an error is returned.
func ApplyPatch[T any](s Schema, doc *T, p Patch) error {
	if err := s.CheckPatch(p, Fields(reflect.TypeOf(doc))); err != nil {
		return err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return domain.NewValidationError("", fmt.Sprintf("patch is not encodable: %v", err))
	}
	updated := *doc
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	resetReferences(reflect.ValueOf(&updated).Elem(), keys)
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&updated); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return domain.NewValidationError(typeErr.Field, fmt.Sprintf("must be %s", typeErr.Type))
		}
		return domain.NewValidationError("", err.Error())
	}
	if err := Validate(&updated); err != nil {
		return err
	}
	*doc = updated
	return nil
}

// Clone deep-copies doc. Fields hidden from JSON are copied by value.
func Clone[T any](doc *T) (*T, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	out := new(T)
	*out = *doc
	resetReferences(reflect.ValueOf(out).Elem(), Fields(reflect.TypeOf(doc)))
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

// resetReferences zeroes the pointer, slice and map fields named by keys so
// a following decode allocates fresh values instead of writing through
// memory shared with another document.
func resetReferences(v reflect.Value, keys []string) {
	for _, k := range keys {
		name, ok := GoField(v.Type(), k)
		if !ok {
			continue
		}
		f := v.FieldByName(name)
		switch f.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Map:
			f.Set(reflect.Zero(f.Type()))
		}
	}
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "" {
		return f.Name
	}
	return name
}
