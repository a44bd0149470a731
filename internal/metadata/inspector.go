package metadata

import (
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"workshop/internal/core/types"
)

// DefaultSection holds fields declared without a section.
const DefaultSection = "main"

var quantityType = reflect.TypeOf(types.Quantity(0))

// readOnlyFields are maintained by the system, never by the user.
var readOnlyFields = map[string]bool{
	"ID": true, "Version": true, "DeletionMark": true,
	"CreatedAt": true, "UpdatedAt": true, "CreatedBy": true, "UpdatedBy": true,
	"DocStatus": true, "SubmittedAt": true, "CancelledAt": true,
}

// Inspect derives a DocType from struct tags:
//
//	json     field name
//	binding  "required" marks the field required
//	meta     label=..;label_ar=..;section=..;scale=3;ref=Company;child=Invoice Item;
//	         type=text;options=a|b;depends_on=..;mandatory_depends_on=..;readonly;required
//
// Sections are declared in order of first use.
func Inspect(entity any, name string, kind Kind) DocType {
	t := reflect.TypeOf(entity)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name == "" {
		name = t.Name()
	}

	def := DocType{
		Name:   name,
		Label:  guessLabel(name),
		Kind:   kind,
		Fields: make([]FieldDef, 0),
	}
	inspectStruct(t, &def)

	seen := make(map[string]bool)
	for _, f := range def.Fields {
		if !seen[f.Section] {
			seen[f.Section] = true
			def.Sections = append(def.Sections, Section{Name: f.Section, Label: guessLabel(f.Section)})
		}
	}
	return def
}

// WithSections replaces the labels of sections with the same name and appends
// the others.
func (d DocType) WithSections(sections ...Section) DocType {
	out := make([]Section, len(d.Sections))
	copy(out, d.Sections)
	for _, s := range sections {
		replaced := false
		for i := range out {
			if out[i].Name == s.Name {
				out[i] = s
				replaced = true
			}
		}
		if !replaced {
			out = append(out, s)
		}
	}
	d.Sections = out
	return d
}

func inspectStruct(t reflect.Type, def *DocType) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			inspectStruct(field.Type, def)
			continue
		}

		if field.Type == attributesType {
			continue
		}

		meta := parseMeta(field.Tag.Get("meta"))
		if meta.skip {
			continue
		}
		fd, ok := fieldFromStruct(field, meta)
		if !ok {
			continue
		}
		def.Fields = append(def.Fields, fd)
	}
}

func fieldFromStruct(field reflect.StructField, meta metaTag) (FieldDef, bool) {
	name := jsonName(field)
	if name == "-" {
		return FieldDef{}, false
	}

	fd := FieldDef{
		Name:               name,
		Label:              guessLabel(field.Name),
		LabelAr:            meta.labelAr,
		Required:           isRequired(field) || meta.required,
		ReadOnly:           readOnlyFields[field.Name] || meta.readOnly,
		Section:            meta.section,
		DependsOn:          meta.dependsOn,
		MandatoryDependsOn: meta.mandatoryDependsOn,
		Options:            meta.options,
		ChildType:          meta.child,
	}
	if meta.label != "" {
		fd.Label = meta.label
	}
	if fd.Section == "" {
		fd.Section = DefaultSection
	}

	mapFieldType(&fd, field, meta)
	if meta.scale >= 0 {
		fd.Scale = meta.scale
	}
	if meta.typ != "" {
		fd.Type = meta.typ
	}
	if len(fd.Options) > 0 && fd.Type == TypeString {
		fd.Type = TypeEnum
	}
	return fd, true
}

func mapFieldType(def *FieldDef, field reflect.StructField, meta metaTag) {
	t := field.Type
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t {
	case uuidType:
		if field.Name == "ID" {
			def.Type = TypeString
			return
		}
		def.Type = TypeReference
		def.ReferenceType = meta.ref
		if def.ReferenceType == "" {
			def.ReferenceType = strings.TrimSuffix(field.Name, "ID")
		}
		return
	case timeType:
		def.Type = TypeDate
		if strings.HasSuffix(field.Name, "At") {
			def.Type = TypeDatetime
		}
		return
	case decimalType:
		def.Type = TypeMoney
		def.Scale = int(types.OMRScale)
		return
	case quantityType:
		def.Type = TypeNumber
		def.Scale = 4
		return
	}

	switch t.Kind() {
	case reflect.String:
		def.Type = TypeString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		def.Type = TypeInteger
	case reflect.Float32, reflect.Float64:
		def.Type = TypeNumber
	case reflect.Bool:
		def.Type = TypeBoolean
	case reflect.Slice:
		def.Type = TypeTable
	default:
		def.Type = TypeString
	}
}

type metaTag struct {
	label, labelAr, section, ref, child string
	dependsOn, mandatoryDependsOn       string
	typ                                 FieldType
	options                             []string
	scale                               int
	readOnly, required, skip            bool
}

func parseMeta(tag string) metaTag {
	m := metaTag{scale: -1}
	if tag == "-" {
		m.skip = true
		return m
	}
	for _, part := range strings.Split(tag, ";") {
		key, value, _ := strings.Cut(strings.TrimSpace(part), "=")
		switch key {
		case "label":
			m.label = value
		case "label_ar":
			m.labelAr = value
		case "section":
			m.section = value
		case "ref":
			m.ref = value
		case "child":
			m.child = value
		case "type":
			m.typ = FieldType(value)
		case "options":
			m.options = strings.Split(value, "|")
		case "scale":
			if n, err := strconv.Atoi(value); err == nil {
				m.scale = n
			}
		case "depends_on":
			m.dependsOn = value
		case "mandatory_depends_on":
			m.mandatoryDependsOn = value
		case "readonly":
			m.readOnly = true
		case "required":
			m.required = true
		}
	}
	return m
}

func jsonName(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("json"); ok {
		name, _, _ := strings.Cut(tag, ",")
		if name != "" {
			return name
		}
	}
	runes := []rune(field.Name)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func isRequired(field reflect.StructField) bool {
	if tag, ok := field.Tag.Lookup("binding"); ok {
		for _, rule := range strings.Split(tag, ",") {
			if rule == "required" {
				return true
			}
		}
	}
	return false
}

// guessLabel splits CamelCase and snake_case: "VATNumber" -> "VAT Number".
func guessLabel(name string) string {
	name = strings.ReplaceAll(name, "_", " ")
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && runes[i-1] != ' ' {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (nextLower && unicode.IsUpper(runes[i-1])) {
				b.WriteByte(' ')
			}
		}
		if i == 0 {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
