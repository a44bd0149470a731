package metadata

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"workshop/internal/core/apperror"
	appctx "workshop/internal/core/context"
	"workshop/pkg/omr"
)

// RuleFailure is one failed document-level rule.
type RuleFailure struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Validate checks values against the DocType and returns nil or one
// validation error covering every problem:
//   - details.fields lists required fields that are empty, including
//     mandatory_depends_on fields whose condition is true and required
//     columns of child rows ("lines[0].itemCode");
//   - details.rules lists failed document-level rules.
//
// Hidden fields (depends_on false) and read-only fields are not required.
func (r *Registry) Validate(ctx context.Context, name string, values map[string]any) error {
	r.mu.RLock()
	e, ok := r.docTypes[name]
	r.mu.RUnlock()
	if !ok {
		return apperror.NewNotFound("doctype", name)
	}

	missing := make(map[string]string)
	r.collectMissing(e, values, "", missing)

	arabic := omr.IsArabic(appctx.GetLocale(ctx))
	var failures []RuleFailure
	vars := withDeclaredFields(e.def, values)
	for _, rule := range e.programs.validations {
		okRule, err := evalBool(rule.prg, vars)
		if err == nil && okRule {
			continue
		}
		msg := rule.Message
		if arabic && rule.MessageAr != "" {
			msg = rule.MessageAr
		}
		failures = append(failures, RuleFailure{Rule: rule.Name, Message: msg})
	}

	switch {
	case len(missing) > 0:
		appErr := apperror.NewRequiredFields(missing)
		if len(failures) > 0 {
			appErr = appErr.WithDetail("rules", failures)
		}
		return appErr
	case len(failures) > 0:
		return apperror.NewValidation(failures[0].Message).WithDetail("rules", failures)
	}
	return nil
}

func (r *Registry) collectMissing(e *entry, values map[string]any, prefix string, missing map[string]string) {
	vars := withDeclaredFields(e.def, values)

	for _, f := range e.def.Fields {
		if prg, ok := e.programs.dependsOn[f.Name]; ok {
			visible, err := evalBool(prg, vars)
			if err != nil || !visible {
				continue
			}
		}

		required := f.Required && !f.ReadOnly
		if prg, ok := e.programs.mandatory[f.Name]; ok {
			if must, err := evalBool(prg, vars); err == nil && must {
				required = true
			}
		}

		v := vars[f.Name]
		if required && isEmpty(v) {
			missing[prefix+f.Name] = "required"
			continue
		}

		if f.Type == TypeTable {
			r.mu.RLock()
			child, ok := r.docTypes[f.ChildType]
			r.mu.RUnlock()
			if !ok {
				continue
			}
			for i, row := range rows(v) {
				r.collectMissing(child, row, fmt.Sprintf("%s%s[%d].", prefix, f.Name, i), missing)
			}
		}
	}
}

// withDeclaredFields returns values with every declared field present so
// expressions can reference empty fields without "no such key" errors.
func withDeclaredFields(def DocType, values map[string]any) map[string]any {
	out := make(map[string]any, len(values)+len(def.Fields))
	for k, v := range values {
		out[k] = v
	}
	for _, f := range def.Fields {
		if _, ok := out[f.Name]; !ok {
			out[f.Name] = nil
		}
	}
	return out
}

func rows(v any) []map[string]any {
	switch t := v.(type) {
	case []map[string]any:
		return t
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case time.Time:
		return t.IsZero()
	case []any:
		return len(t) == 0
	case []map[string]any:
		return len(t) == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	}
	return false
}
