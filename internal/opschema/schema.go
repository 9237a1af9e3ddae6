package opschema

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// AliasAnalysis describes how a schema participates in alias analysis.
// AliasAnalysisDefault means the registrant did not choose a kind yet; a
// later registration of the same schema may fill it in exactly once.
type AliasAnalysis int

const (
	AliasAnalysisDefault AliasAnalysis = iota
	AliasAnalysisFromSchema
	AliasAnalysisPureFunction
	AliasAnalysisConservative
)

var aliasAnalysisNames = map[AliasAnalysis]string{
	AliasAnalysisDefault:      "default",
	AliasAnalysisFromSchema:   "from_schema",
	AliasAnalysisPureFunction: "pure_function",
	AliasAnalysisConservative: "conservative",
}

func (a AliasAnalysis) String() string {
	if name, ok := aliasAnalysisNames[a]; ok {
		return name
	}
	return fmt.Sprintf("AliasAnalysis(%d)", int(a))
}

// ParseAliasAnalysis resolves an alias analysis kind as written in a
// manifest. The empty string maps to AliasAnalysisDefault.
func ParseAliasAnalysis(s string) (AliasAnalysis, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	if want == "" {
		return AliasAnalysisDefault, nil
	}
	for kind, name := range aliasAnalysisNames {
		if name == want {
			return kind, nil
		}
	}
	return AliasAnalysisDefault, fmt.Errorf("unknown alias analysis kind %q", s)
}

// Argument is one named, typed slot in a schema's signature.
type Argument struct {
	Name string
	Type cty.Type
}

// Schema is the typed signature of an operator. Schemas are value types;
// two schemas for the same name must be Equal or registration fails.
type Schema struct {
	Name          Name
	Args          []Argument
	Returns       []Argument
	AliasAnalysis AliasAnalysis
}

// Equal reports whether two schemas describe the same signature. The alias
// analysis kind is deliberately excluded: its merging rules are resolved by
// the dispatcher, not by signature equality.
func (s Schema) Equal(o Schema) bool {
	if s.Name != o.Name {
		return false
	}
	return argumentsEqual(s.Args, o.Args) && argumentsEqual(s.Returns, o.Returns)
}

func argumentsEqual(a, b []Argument) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || !a[i].Type.Equals(b[i].Type) {
			return false
		}
	}
	return true
}

// String renders the schema in signature form, e.g.
// "add(self: number, other: number) -> number".
func (s Schema) String() string {
	var sb strings.Builder
	sb.WriteString(s.Name.String())
	sb.WriteRune('(')
	for i, arg := range s.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(arg.Name)
		sb.WriteString(": ")
		sb.WriteString(arg.Type.FriendlyName())
	}
	sb.WriteRune(')')
	for i, ret := range s.Returns {
		if i == 0 {
			sb.WriteString(" -> ")
		} else {
			sb.WriteString(", ")
		}
		if ret.Name != "" {
			sb.WriteString(ret.Name)
			sb.WriteString(": ")
		}
		sb.WriteString(ret.Type.FriendlyName())
	}
	return sb.String()
}
