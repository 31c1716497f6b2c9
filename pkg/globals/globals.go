// Package globals holds the live global variables read by the lowering pass.
//
// Variables are an ordered list of (name, value) pairs. The order is the
// order of insertion and is preserved in lowered documents, where names and
// initial values are emitted as parallel arrays.
//
// Names are validated before insertion:
//   - surrounding whitespace is trimmed, the rest must be non-empty
//   - an ASCII letter first, then letters, digits or underscores
//   - not a reserved word (pi and the expression keywords)
//   - unique within the set, at most [MaxVariables] entries
package globals

import (
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	errs "github.com/matzehuels/nodeplot/pkg/errors"
)

// MaxVariables is the number of variable slots the compute engine reserves.
const MaxVariables = 31

var reserved = []string{"pi", "sin", "cos", "tan", "asin", "acos", "atan", "int", "float", "double"}

var (
	validate    *validator.Validate
	namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
)

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("varname", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
}

// Variable is one named global value.
type Variable struct {
	Name  string  `json:"name" toml:"name" yaml:"name" validate:"required,max=64,varname"`
	Value float64 `json:"value" toml:"value" yaml:"value"`
}

// IsReserved reports whether name collides with a built-in symbol.
func IsReserved(name string) bool {
	return slices.Contains(reserved, name)
}

// ValidateName trims name and checks it against the naming rules, returning
// the trimmed form.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errs.New(errs.ErrCodeInvalidName, "variable name cannot be empty")
	}
	if err := validate.Struct(Variable{Name: name}); err != nil {
		return "", errs.Wrap(errs.ErrCodeInvalidName, err,
			"invalid variable name %q (must start with a letter, followed by letters, digits or underscores)", name)
	}
	if IsReserved(name) {
		return "", errs.New(errs.ErrCodeReservedName, "variable name %q is reserved", name)
	}
	return name, nil
}

// Set is an ordered collection of uniquely named variables.
// The zero value is an empty set ready to use.
type Set struct {
	vars []Variable
}

// New returns a set holding vars in order. It fails on the first variable
// Add would reject.
func New(vars ...Variable) (*Set, error) {
	s := &Set{}
	for _, v := range vars {
		if err := s.Add(v.Name, v.Value); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add appends a variable after validating its name.
func (s *Set) Add(name string, value float64) error {
	name, err := ValidateName(name)
	if err != nil {
		return err
	}
	if s.index(name) >= 0 {
		return errs.New(errs.ErrCodeDuplicateName, "variable %q already exists", name)
	}
	if len(s.vars) >= MaxVariables {
		return errs.New(errs.ErrCodeLimitExceeded, "at most %d variables are allowed", MaxVariables)
	}
	s.vars = append(s.vars, Variable{Name: name, Value: value})
	return nil
}

// Remove deletes the named variable, keeping the order of the others.
func (s *Set) Remove(name string) bool {
	i := s.index(strings.TrimSpace(name))
	if i < 0 {
		return false
	}
	s.vars = slices.Delete(s.vars, i, i+1)
	return true
}

// SetValue updates the value of an existing variable.
func (s *Set) SetValue(name string, value float64) error {
	i := s.index(strings.TrimSpace(name))
	if i < 0 {
		return errs.New(errs.ErrCodeNotFound, "variable %q not found", name)
	}
	s.vars[i].Value = value
	return nil
}

// Get returns the value of the named variable.
func (s *Set) Get(name string) (float64, bool) {
	i := s.index(name)
	if i < 0 {
		return 0, false
	}
	return s.vars[i].Value, true
}

// Len returns the number of variables.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.vars)
}

// Names returns the variable names in order. Never nil.
func (s *Set) Names() []string {
	out := make([]string, 0, s.Len())
	for _, v := range s.Snapshot() {
		out = append(out, v.Name)
	}
	return out
}

// Values returns the variable values in the same order as [Set.Names]. Never nil.
func (s *Set) Values() []float64 {
	out := make([]float64, 0, s.Len())
	for _, v := range s.Snapshot() {
		out = append(out, v.Value)
	}
	return out
}

// Snapshot returns a copy of the variables. The compute engine only ever
// sees snapshots.
func (s *Set) Snapshot() []Variable {
	if s == nil {
		return nil
	}
	return slices.Clone(s.vars)
}

func (s *Set) index(name string) int {
	if s == nil {
		return -1
	}
	return slices.IndexFunc(s.vars, func(v Variable) bool { return v.Name == name })
}
