package config

// Well-known type names. The engine hard-codes only the types the
// language semantics themselves reference.
const (
	ObjectName       = "java.lang.Object"
	StringName       = "java.lang.String"
	CloneableName    = "java.lang.Cloneable"
	SerializableName = "java.io.Serializable"
)

// CtorName is the pseudo method name under which constructors are resolved.
const CtorName = "<init>"

// UnresolvedName is the display name of the unresolved marker type.
const UnresolvedName = "(*unresolved*)"

// DefaultMaxRecursionDepth bounds nested poly-expression inference.
// Exceeding it produces a RecursionLimitExceeded failure, not a stack overflow.
const DefaultMaxRecursionDepth = 100

// Boxed primitive mapping, shared by the loose-phase conversion check
// and the specificity comparator.
var BoxedNames = map[string]string{
	"boolean": "java.lang.Boolean",
	"byte":    "java.lang.Byte",
	"char":    "java.lang.Character",
	"short":   "java.lang.Short",
	"int":     "java.lang.Integer",
	"long":    "java.lang.Long",
	"float":   "java.lang.Float",
	"double":  "java.lang.Double",
}

// PrimitiveWidening lists, per primitive, the primitives it widens to.
var PrimitiveWidening = map[string][]string{
	"byte":  {"short", "int", "long", "float", "double"},
	"short": {"int", "long", "float", "double"},
	"char":  {"int", "long", "float", "double"},
	"int":   {"long", "float", "double"},
	"long":  {"float", "double"},
	"float": {"double"},
}
