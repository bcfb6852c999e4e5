package config

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// Validation error codes (E200-E209)
const (
	ErrCodeDecode = "E200" // YAML could not be decoded
	ErrCodeSchema = "E201" // value violates the schema
	ErrCodeEncode = "E202" // value could not be represented in CUE
)

//go:embed schema.cue
var schemaCUE string

// ValidationError is one configuration problem.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks c against the schema and returns every violation, sorted
// by field. Returns nil when c is valid.
func (c Config) Validate() []ValidationError {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		// The schema is embedded; failing to compile it is a build defect.
		panic(fmt.Sprintf("config: compile schema: %v", err))
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	value := ctx.Encode(c)
	if err := value.Err(); err != nil {
		return []ValidationError{{Field: "config", Message: err.Error(), Code: ErrCodeEncode}}
	}

	err := def.Unify(value).Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}
	return toValidationErrors(err)
}

// toValidationErrors flattens a CUE error list. Disjunction failures report
// one error per alternative; those are merged per field.
func toValidationErrors(err error) []ValidationError {
	byField := make(map[string][]string)
	for _, e := range cueerrors.Errors(err) {
		field := fieldPath(e.Path())
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if !contains(byField[field], msg) {
			byField[field] = append(byField[field], msg)
		}
	}

	fields := make([]string, 0, len(byField))
	for f := range byField {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	out := make([]ValidationError, 0, len(fields))
	for _, f := range fields {
		out = append(out, ValidationError{
			Field:   f,
			Message: strings.Join(byField[f], "; "),
			Code:    ErrCodeSchema,
		})
	}
	return out
}

func fieldPath(path []string) string {
	if len(path) > 0 && path[0] == "#Config" {
		path = path[1:]
	}
	if len(path) == 0 {
		return "config"
	}
	return strings.Join(path, ".")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
