// Package validation implements declarative request-shape validation.
//
// A Schema lists per-location rules for path parameters, query parameters and
// JSON body properties. Rules are evaluated before a handler runs; a non-empty
// result short-circuits the request with a 400 and the list of violations.
//
// Path and query values always arrive as strings, so numeric identifiers are
// checked with a pattern (see Digits) rather than coerced. Length and pattern
// rules are delegated to go-playground/validator through a shared instance
// that registers a regexp-backed "pattern" tag.
package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tbourn/go-quotes-api/internal/errs"
)

// Rule types.
const (
	TypeString = "string"
	TypeNumber = "number"
)

// Digits matches strings made only of ASCII digits.
const Digits = `^[0-9]+$`

// Rule constrains a single field. The zero value accepts anything.
type Rule struct {
	Required  bool
	Type      string // TypeString (default) or TypeNumber
	Pattern   string // regular expression the value must match
	MinLength int    // minimum rune count, 0 disables
	MaxLength int    // maximum rune count, 0 disables
}

// Schema groups rules by request location.
type Schema struct {
	Params map[string]Rule
	Query  map[string]Rule
	Body   map[string]Rule
}

// Input carries the raw values of a request.
type Input struct {
	Params map[string]string
	Query  map[string][]string
	// Body is the decoded JSON object, nil when the request had no body.
	Body map[string]any
}

// Violation is one broken rule.
type Violation = errs.FieldError

// Rule names reported in violations.
const (
	RuleRequired  = "required"
	RuleType      = "type"
	RulePattern   = "pattern"
	RuleMinLength = "minLength"
	RuleMaxLength = "maxLength"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	patterns sync.Map // string -> *regexp.Regexp
)

// Validator returns the shared validator instance with the "pattern" tag
// registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("pattern", validatePattern)
	})
	return validate
}

func validatePattern(fl validator.FieldLevel) bool {
	re, err := compile(fl.Param())
	if err != nil {
		return false
	}
	return re.MatchString(fl.Field().String())
}

func compile(expr string) (*regexp.Regexp, error) {
	if v, ok := patterns.Load(expr); ok {
		return v.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	patterns.Store(expr, re)
	return re, nil
}

// tagEscaper hides the validator's tag separators inside a parameter.
var tagEscaper = strings.NewReplacer(",", "0x2C", "|", "0x7C")

// Validate evaluates every rule of s against in. Violations are ordered by
// location (params, query, body) and then by field name.
func (s Schema) Validate(in Input) []Violation {
	var out []Violation

	for _, name := range sortedKeys(s.Params) {
		v, ok := in.Params[name]
		out = append(out, checkString("params."+name, s.Params[name], v, ok && v != "")...)
	}

	for _, name := range sortedKeys(s.Query) {
		rule := s.Query[name]
		field := "query." + name
		vals, ok := in.Query[name]
		switch {
		case !ok || len(vals) == 0:
			out = append(out, checkString(field, rule, "", false)...)
		case len(vals) > 1:
			out = append(out, Violation{Field: field, Rule: RuleType, Message: "must be a single value"})
		default:
			out = append(out, checkString(field, rule, vals[0], true)...)
		}
	}

	for _, name := range sortedKeys(s.Body) {
		rule := s.Body[name]
		field := "body." + name
		raw, ok := in.Body[name]
		if !ok || raw == nil {
			if rule.Required {
				out = append(out, Violation{Field: field, Rule: RuleRequired, Message: "is required"})
			}
			continue
		}
		out = append(out, checkValue(field, rule, raw)...)
	}

	return out
}

// checkString validates a path/query value. present=false means absent.
func checkString(field string, rule Rule, v string, present bool) []Violation {
	if !present {
		if rule.Required {
			return []Violation{{Field: field, Rule: RuleRequired, Message: "is required"}}
		}
		return nil
	}
	if rule.Type == TypeNumber {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return []Violation{{Field: field, Rule: RuleType, Message: "must be a number"}}
		}
	}
	return checkConstraints(field, rule, v)
}

// checkValue validates a decoded JSON value.
func checkValue(field string, rule Rule, raw any) []Violation {
	switch rule.Type {
	case TypeNumber:
		switch n := raw.(type) {
		case float64:
			return checkConstraints(field, rule, strconv.FormatFloat(n, 'f', -1, 64))
		case json.Number:
			return checkConstraints(field, rule, n.String())
		default:
			return []Violation{{Field: field, Rule: RuleType, Message: "must be a number"}}
		}
	default:
		s, ok := raw.(string)
		if !ok {
			return []Violation{{Field: field, Rule: RuleType, Message: "must be a string"}}
		}
		return checkConstraints(field, rule, s)
	}
}

// checkConstraints runs length and pattern rules through the validator.
func checkConstraints(field string, rule Rule, v string) []Violation {
	var out []Violation
	v8 := Validator()

	if rule.MinLength > 0 {
		if err := v8.Var(v, "min="+strconv.Itoa(rule.MinLength)); err != nil {
			out = append(out, Violation{Field: field, Rule: RuleMinLength, Message: message(err, rule)})
		}
	}
	if rule.MaxLength > 0 {
		if err := v8.Var(v, "max="+strconv.Itoa(rule.MaxLength)); err != nil {
			out = append(out, Violation{Field: field, Rule: RuleMaxLength, Message: message(err, rule)})
		}
	}
	if rule.Pattern != "" {
		if err := v8.Var(v, "pattern="+tagEscaper.Replace(rule.Pattern)); err != nil {
			out = append(out, Violation{Field: field, Rule: RulePattern, Message: message(err, rule)})
		}
	}
	return out
}

// message renders a validator failure as client-facing text.
func message(err error, rule Rule) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "is invalid"
	}
	switch verrs[0].Tag() {
	case "min":
		return fmt.Sprintf("must be at least %d characters long", rule.MinLength)
	case "max":
		return fmt.Sprintf("must be at most %d characters long", rule.MaxLength)
	case "pattern":
		return fmt.Sprintf("must match pattern %s", rule.Pattern)
	default:
		return "is invalid"
	}
}

// KindFor picks the taxonomy kind for a violation list: Required when any
// required field is missing, Invalid otherwise.
func KindFor(vs []Violation) errs.Kind {
	for _, v := range vs {
		if v.Rule == RuleRequired {
			return errs.Required
		}
	}
	return errs.Invalid
}

// Error converts violations into a classified error, or nil when vs is empty.
func Error(vs []Violation) error {
	if len(vs) == 0 {
		return nil
	}
	return errs.WithFields(KindFor(vs), vs)
}

func sortedKeys(m map[string]Rule) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
