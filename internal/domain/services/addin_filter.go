package services

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/reglet-dev/addin-compat/internal/domain/entities"
)

// AddinEnv defines the variables available during filter expression evaluation.
type AddinEnv struct {
	ID       string `expr:"id"`
	Name     string `expr:"name"`
	Version  string `expr:"version"`
	Location string `expr:"location"`
	Source   string `expr:"source"`
	Packaged bool   `expr:"packaged"`
}

// maxFilterNodes bounds filter expression complexity.
const maxFilterNodes = 100

// CompileAddinFilter compiles a boolean filter expression against AddinEnv.
// An empty expression yields a nil program, which matches every addin.
func CompileAddinFilter(expression string) (*vm.Program, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, nil
	}
	program, err := expr.Compile(expression, expr.Env(AddinEnv{}), expr.AsBool(), expr.MaxNodes(maxFilterNodes))
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	return program, nil
}

// AddinSpecification defines a condition that an addin must meet to be checked.
type AddinSpecification interface {
	// IsSatisfiedBy returns true if satisfied, along with a reason if not.
	IsSatisfiedBy(addin entities.Addin) (bool, string)
}

// AddinFilter selects which addins a run checks.
type AddinFilter struct {
	onlyIDs       map[string]bool
	excludeIDs    map[string]bool
	filterProgram *vm.Program
}

// NewAddinFilter initializes a filter that matches every addin.
func NewAddinFilter() *AddinFilter {
	return &AddinFilter{
		onlyIDs:    make(map[string]bool),
		excludeIDs: make(map[string]bool),
	}
}

// WithOnlyAddins restricts the run to the given addin IDs.
func (f *AddinFilter) WithOnlyAddins(ids []string) *AddinFilter {
	f.onlyIDs = toSet(ids)
	return f
}

// WithExcludedAddins skips the given addin IDs.
func (f *AddinFilter) WithExcludedAddins(ids []string) *AddinFilter {
	f.excludeIDs = toSet(ids)
	return f
}

// WithFilterExpression applies a compiled Expr program.
func (f *AddinFilter) WithFilterExpression(program *vm.Program) *AddinFilter {
	f.filterProgram = program
	return f
}

// ShouldCheck evaluates whether an addin matches the filter criteria.
func (f *AddinFilter) ShouldCheck(addin entities.Addin) (bool, string) {
	var specs []AddinSpecification
	if len(f.onlyIDs) > 0 {
		specs = append(specs, idSpecification{ids: f.onlyIDs, include: true})
	}
	if len(f.excludeIDs) > 0 {
		specs = append(specs, idSpecification{ids: f.excludeIDs})
	}
	if f.filterProgram != nil {
		specs = append(specs, expressionSpecification{program: f.filterProgram})
	}

	for _, spec := range specs {
		if ok, reason := spec.IsSatisfiedBy(addin); !ok {
			return false, reason
		}
	}
	return true, ""
}

// Apply returns the addins that pass the filter, preserving order.
func (f *AddinFilter) Apply(addins []entities.Addin) []entities.Addin {
	out := make([]entities.Addin, 0, len(addins))
	for _, a := range addins {
		if ok, _ := f.ShouldCheck(a); ok {
			out = append(out, a)
		}
	}
	return out
}

type idSpecification struct {
	ids     map[string]bool
	include bool
}

func (s idSpecification) IsSatisfiedBy(addin entities.Addin) (bool, string) {
	listed := s.ids[addin.ID]
	if s.include && !listed {
		return false, "not in --addin list"
	}
	if !s.include && listed {
		return false, "excluded by --skip-addin"
	}
	return true, ""
}

type expressionSpecification struct {
	program *vm.Program
}

func (s expressionSpecification) IsSatisfiedBy(addin entities.Addin) (bool, string) {
	env := AddinEnv{
		ID:       addin.ID,
		Name:     addin.Name,
		Version:  addin.Version,
		Location: addin.Location,
		Source:   string(addin.Source),
		Packaged: addin.IsPackaged(),
	}

	output, err := expr.Run(s.program, env)
	if err != nil {
		return false, fmt.Sprintf("filter expression error: %v", err)
	}

	result, ok := output.(bool)
	if !ok {
		return false, fmt.Sprintf("filter expression did not return boolean: %v", output)
	}
	if !result {
		return false, "excluded by --filter expression"
	}
	return true, ""
}

// toSet converts a slice to a map (set)
func toSet(slice []string) map[string]bool {
	s := make(map[string]bool, len(slice))
	for _, item := range slice {
		s[item] = true
	}
	return s
}
