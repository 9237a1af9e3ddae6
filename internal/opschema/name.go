package opschema

// Name is the unique identity of an operator: a base name plus an overload
// discriminator. Names are immutable values, comparable and usable as map
// keys; equality is structural.
type Name struct {
	Base     string
	Overload string
}

// NewName builds a Name. The overload may be empty for the sole or default
// overload of an operator.
func NewName(base, overload string) Name {
	return Name{Base: base, Overload: overload}
}

func (n Name) String() string {
	if n.Overload == "" {
		return n.Base
	}
	return n.Base + "." + n.Overload
}
