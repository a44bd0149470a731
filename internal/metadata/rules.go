package metadata

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// Expressions see the document as the map variable "doc":
//
//	doc.customerType == "company" && doc.grandTotal > 0
//
// Keys are the (JSON) field names of the DocType.
const docVar = "doc"

type ruleEngine struct {
	env *cel.Env
}

type compiledRule struct {
	Rule
	prg cel.Program
}

type compiledRules struct {
	dependsOn   map[string]cel.Program
	mandatory   map[string]cel.Program
	validations []compiledRule
}

func newRuleEngine() *ruleEngine {
	env, err := cel.NewEnv(
		cel.Variable(docVar, cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		panic(fmt.Sprintf("metadata: cel env: %v", err))
	}
	return &ruleEngine{env: env}
}

// program compiles a boolean expression.
func (e *ruleEngine) program(expr string) (cel.Program, error) {
	ast, iss := e.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	if out := ast.OutputType().String(); out != "bool" && out != "dyn" {
		return nil, fmt.Errorf("expression must be boolean, got %s", out)
	}
	return e.env.Program(ast)
}

func (e *ruleEngine) compile(def DocType) (compiledRules, error) {
	c := compiledRules{
		dependsOn: make(map[string]cel.Program),
		mandatory: make(map[string]cel.Program),
	}

	for _, f := range def.Fields {
		if f.DependsOn != "" {
			prg, err := e.program(f.DependsOn)
			if err != nil {
				return c, fmt.Errorf("doctype %s: field %s depends_on: %w", def.Name, f.Name, err)
			}
			c.dependsOn[f.Name] = prg
		}
		if f.MandatoryDependsOn != "" {
			prg, err := e.program(f.MandatoryDependsOn)
			if err != nil {
				return c, fmt.Errorf("doctype %s: field %s mandatory_depends_on: %w", def.Name, f.Name, err)
			}
			c.mandatory[f.Name] = prg
		}
	}

	seen := make(map[string]bool, len(def.Validations))
	for _, r := range def.Validations {
		if r.Name == "" || seen[r.Name] {
			return c, fmt.Errorf("doctype %s: validation rule name %q is empty or repeated", def.Name, r.Name)
		}
		seen[r.Name] = true
		prg, err := e.program(r.Expression)
		if err != nil {
			return c, fmt.Errorf("doctype %s: rule %s: %w", def.Name, r.Name, err)
		}
		c.validations = append(c.validations, compiledRule{Rule: r, prg: prg})
	}
	return c, nil
}

// evalBool runs prg against the document values.
func evalBool(prg cel.Program, values map[string]any) (bool, error) {
	out, _, err := prg.Eval(map[string]any{docVar: values})
	if err != nil {
		return false, err
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression returned %T, want bool", out.Value())
	}
	return b, nil
}

// Evaluate compiles and runs an ad-hoc expression against values. Used by the
// schema endpoint to preview depends_on conditions.
func (r *Registry) Evaluate(expr string, values map[string]any) (bool, error) {
	prg, err := r.rules.program(expr)
	if err != nil {
		return false, err
	}
	return evalBool(prg, values)
}
