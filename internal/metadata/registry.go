// Package metadata describes business objects (DocTypes) as data: fields,
// section layout, links and rule expressions. The HTTP layer serves these
// schemas to clients; the domain layer validates values against them.
package metadata

import (
	"fmt"
	"sort"
	"sync"
)

// Kind defines the category of the DocType.
type Kind string

const (
	KindCatalog  Kind = "catalog"
	KindDocument Kind = "document"
	KindSnapshot Kind = "snapshot"
	// KindChild rows only exist inside a table field of a parent
	KindChild Kind = "child"
)

// FieldType defines the data type of a field.
type FieldType string

const (
	TypeString    FieldType = "string"
	TypeText      FieldType = "text"
	TypeInteger   FieldType = "integer"
	TypeNumber    FieldType = "number"
	TypeMoney     FieldType = "money"
	TypePercent   FieldType = "percent"
	TypeBoolean   FieldType = "boolean"
	TypeDate      FieldType = "date"
	TypeDatetime  FieldType = "datetime"
	TypeReference FieldType = "reference"
	TypeEnum      FieldType = "enum"
	TypeTable     FieldType = "table"
)

var fieldTypes = map[FieldType]bool{
	TypeString: true, TypeText: true, TypeInteger: true, TypeNumber: true,
	TypeMoney: true, TypePercent: true, TypeBoolean: true, TypeDate: true,
	TypeDatetime: true, TypeReference: true, TypeEnum: true, TypeTable: true,
}

// DocType describes a business object.
type DocType struct {
	Name    string `json:"name"`
	Label   string `json:"label,omitempty"`
	LabelAr string `json:"labelAr,omitempty"`
	Module  string `json:"module,omitempty"`
	Kind    Kind   `json:"kind"`
	// TableName is the storage table, not exposed to clients
	TableName    string     `json:"-"`
	Submittable  bool       `json:"submittable,omitempty"`
	NamingSeries string     `json:"namingSeries,omitempty"`
	Sections     []Section  `json:"sections,omitempty"`
	Fields       []FieldDef `json:"fields"`
	Validations  []Rule     `json:"validations,omitempty"`
}

// Section groups fields on a form.
type Section struct {
	Name        string `json:"name"`
	Label       string `json:"label,omitempty"`
	LabelAr     string `json:"labelAr,omitempty"`
	Collapsible bool   `json:"collapsible,omitempty"`
}

// FieldDef describes a field.
type FieldDef struct {
	Name    string    `json:"name"`
	Label   string    `json:"label,omitempty"`
	LabelAr string    `json:"labelAr,omitempty"`
	Type    FieldType `json:"type"`
	// ReferenceType is the linked DocType of a reference field
	ReferenceType string   `json:"referenceType,omitempty"`
	Options       []string `json:"options,omitempty"`
	Required      bool     `json:"required,omitempty"`
	ReadOnly      bool     `json:"readOnly,omitempty"`
	Scale         int      `json:"scale,omitempty"`
	Section       string   `json:"section,omitempty"`
	// DependsOn hides the field unless the expression is true
	DependsOn string `json:"dependsOn,omitempty"`
	// MandatoryDependsOn makes the field required when the expression is true
	MandatoryDependsOn string `json:"mandatoryDependsOn,omitempty"`
	Default            any    `json:"default,omitempty"`
	// ChildType is the row DocType of a table field
	ChildType string `json:"childType,omitempty"`
	// Custom fields come from a Customization and are stored in attributes
	Custom bool `json:"custom,omitempty"`
}

// Rule is a document-level validation: Expression must evaluate to true.
type Rule struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Message    string `json:"message"`
	MessageAr  string `json:"messageAr,omitempty"`
}

// Field returns the named field.
func (d DocType) Field(name string) (FieldDef, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// FieldsIn returns the fields of a section in declaration order.
func (d DocType) FieldsIn(section string) []FieldDef {
	var out []FieldDef
	for _, f := range d.Fields {
		if f.Section == section {
			out = append(out, f)
		}
	}
	return out
}

// Registry stores DocType definitions together with their compiled rules.
type Registry struct {
	mu       sync.RWMutex
	docTypes map[string]*entry
	rules    *ruleEngine
}

type entry struct {
	def      DocType
	programs compiledRules
	// base is the registered definition before customization
	base DocType
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		docTypes: make(map[string]*entry),
		rules:    newRuleEngine(),
	}
}

// Register adds a DocType. Names must be unique, every field must belong to a
// declared section (when sections are declared) and every expression must compile.
func (r *Registry) Register(def DocType) error {
	if def.Name == "" {
		return fmt.Errorf("doctype name is empty")
	}
	if def.Kind == "" {
		def.Kind = KindCatalog
	}

	if err := checkStructure(def); err != nil {
		return err
	}
	programs, err := r.rules.compile(def)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.docTypes[def.Name]; exists {
		return fmt.Errorf("doctype %q already registered", def.Name)
	}
	r.docTypes[def.Name] = &entry{def: def, programs: programs, base: def}
	return nil
}

// MustRegister is Register for static definitions.
func (r *Registry) MustRegister(def DocType) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

func checkStructure(def DocType) error {
	sections := make(map[string]bool, len(def.Sections))
	for _, s := range def.Sections {
		if sections[s.Name] {
			return fmt.Errorf("doctype %s: duplicate section %q", def.Name, s.Name)
		}
		sections[s.Name] = true
	}

	names := make(map[string]bool, len(def.Fields))
	for _, f := range def.Fields {
		if f.Name == "" {
			return fmt.Errorf("doctype %s: field without name", def.Name)
		}
		if names[f.Name] {
			return fmt.Errorf("doctype %s: duplicate field %q", def.Name, f.Name)
		}
		names[f.Name] = true

		if !fieldTypes[f.Type] {
			return fmt.Errorf("doctype %s: field %s has unknown type %q", def.Name, f.Name, f.Type)
		}
		if len(sections) > 0 && !sections[f.Section] {
			return fmt.Errorf("doctype %s: field %s is in undeclared section %q", def.Name, f.Name, f.Section)
		}
		switch f.Type {
		case TypeReference:
			if f.ReferenceType == "" {
				return fmt.Errorf("doctype %s: reference field %s has no target", def.Name, f.Name)
			}
		case TypeTable:
			if f.ChildType == "" {
				return fmt.Errorf("doctype %s: table field %s has no child type", def.Name, f.Name)
			}
		case TypeEnum:
			if len(f.Options) == 0 {
				return fmt.Errorf("doctype %s: enum field %s has no options", def.Name, f.Name)
			}
		}
	}
	return nil
}

// Get returns a copy of the DocType.
func (r *Registry) Get(name string) (DocType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.docTypes[name]
	if !ok {
		return DocType{}, false
	}
	return e.def, true
}

// List returns all DocTypes sorted by name.
func (r *Registry) List() []DocType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]DocType, 0, len(r.docTypes))
	for _, e := range r.docTypes {
		list = append(list, e.def)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Verify checks that every reference and table target is registered and that
// table targets are child DocTypes.
func (r *Registry) Verify() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.docTypes {
		for _, f := range e.def.Fields {
			switch f.Type {
			case TypeReference:
				if _, ok := r.docTypes[f.ReferenceType]; !ok {
					return fmt.Errorf("doctype %s: field %s links to unknown doctype %q", e.def.Name, f.Name, f.ReferenceType)
				}
			case TypeTable:
				child, ok := r.docTypes[f.ChildType]
				if !ok {
					return fmt.Errorf("doctype %s: table %s uses unknown doctype %q", e.def.Name, f.Name, f.ChildType)
				}
				if child.def.Kind != KindChild {
					return fmt.Errorf("doctype %s: table %s uses %q which is not a child doctype", e.def.Name, f.Name, f.ChildType)
				}
			}
		}
	}
	return nil
}
