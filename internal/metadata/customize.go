package metadata

import (
	"fmt"
)

// Customization is a site-level overlay on a DocType: extra fields stored in
// entity attributes, property overrides of existing fields and extra rules.
type Customization struct {
	Fields      []FieldDef               `json:"fields,omitempty"`
	Overrides   map[string]FieldOverride `json:"overrides,omitempty"`
	Validations []Rule                   `json:"validations,omitempty"`
}

// FieldOverride changes selected properties of an existing field. Nil means
// unchanged.
type FieldOverride struct {
	Label              *string `json:"label,omitempty"`
	LabelAr            *string `json:"labelAr,omitempty"`
	Required           *bool   `json:"required,omitempty"`
	ReadOnly           *bool   `json:"readOnly,omitempty"`
	Section            *string `json:"section,omitempty"`
	DependsOn          *string `json:"dependsOn,omitempty"`
	MandatoryDependsOn *string `json:"mandatoryDependsOn,omitempty"`
	Default            any     `json:"default,omitempty"`
}

// Customize merges c into the registered DocType so that Get returns one
// consolidated definition. The merged DocType is checked and compiled like a
// new registration; on error the registry is unchanged.
func (r *Registry) Customize(name string, c Customization) error {
	return r.customize(name, c, false)
}

// SetCustomization replaces every earlier overlay of the DocType with c. An
// empty Customization restores the registered definition.
func (r *Registry) SetCustomization(name string, c Customization) error {
	return r.customize(name, c, true)
}

// customize holds the write lock across read, merge and store so concurrent
// overlays of one DocType are applied one after the other.
func (r *Registry) customize(name string, c Customization, fromBase bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.docTypes[name]
	if !ok {
		return fmt.Errorf("doctype %q is not registered", name)
	}

	from := e.def
	if fromBase {
		from = e.base
	}
	merged, err := applyCustomization(from, c)
	if err != nil {
		return err
	}
	if err := checkStructure(merged); err != nil {
		return err
	}
	programs, err := r.rules.compile(merged)
	if err != nil {
		return err
	}

	r.docTypes[name] = &entry{def: merged, programs: programs, base: e.base}
	return nil
}

func applyCustomization(def DocType, c Customization) (DocType, error) {
	out := def
	out.Fields = make([]FieldDef, len(def.Fields), len(def.Fields)+len(c.Fields))
	copy(out.Fields, def.Fields)
	out.Validations = append([]Rule{}, def.Validations...)
	for _, rule := range c.Validations {
		replaced := false
		for i := range out.Validations {
			if out.Validations[i].Name == rule.Name {
				out.Validations[i] = rule
				replaced = true
			}
		}
		if !replaced {
			out.Validations = append(out.Validations, rule)
		}
	}

	index := make(map[string]int, len(out.Fields))
	for i, f := range out.Fields {
		index[f.Name] = i
	}

	for name, o := range c.Overrides {
		i, ok := index[name]
		if !ok {
			return def, fmt.Errorf("doctype %s: override of unknown field %q", def.Name, name)
		}
		f := &out.Fields[i]
		if o.Label != nil {
			f.Label = *o.Label
		}
		if o.LabelAr != nil {
			f.LabelAr = *o.LabelAr
		}
		if o.Required != nil {
			f.Required = *o.Required
		}
		if o.ReadOnly != nil {
			f.ReadOnly = *o.ReadOnly
		}
		if o.Section != nil {
			f.Section = *o.Section
		}
		if o.DependsOn != nil {
			f.DependsOn = *o.DependsOn
		}
		if o.MandatoryDependsOn != nil {
			f.MandatoryDependsOn = *o.MandatoryDependsOn
		}
		if o.Default != nil {
			f.Default = o.Default
		}
	}

	for _, f := range c.Fields {
		if _, exists := index[f.Name]; exists {
			// re-applying a saved customization replaces the earlier custom field
			if !out.Fields[index[f.Name]].Custom {
				return def, fmt.Errorf("doctype %s: custom field %q shadows a standard field", def.Name, f.Name)
			}
			f.Custom = true
			if f.Section == "" {
				f.Section = out.Fields[index[f.Name]].Section
			}
			out.Fields[index[f.Name]] = f
			continue
		}
		f.Custom = true
		if f.Section == "" && len(out.Sections) > 0 {
			f.Section = out.Sections[len(out.Sections)-1].Name
		}
		index[f.Name] = len(out.Fields)
		out.Fields = append(out.Fields, f)
	}
	return out, nil
}
