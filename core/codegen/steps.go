package codegen

// Step is one operation in a definition's wire layout. The same tree drives
// three consumers: the runtime codec interprets it, the renderer turns it
// into Go statements, and the descriptor exporter serializes it.
//
// Steps that move a named field carry its argument name in Arg. Element
// steps nested inside a VectorStep leave Arg empty: they act on loop values,
// not on fields.
type Step interface {
	step()
}

// ConstructorStep writes the definition's 32-bit constructor id. It opens
// every encode sequence and never appears in decode sequences, where the id
// has already been consumed by dispatch.
type ConstructorStep struct {
	ID uint32
}

// FlagsStep handles the name:# indicator. Encoding computes the bitmask by
// OR-ing 1<<Index for every present optional argument; decoding reads the
// mask and keeps it for the conditional steps that follow.
type FlagsStep struct {
	Arg  string
	Bits []FlagBit
}

// FlagBit names one optional argument and the bit that signals its
// presence.
type FlagBit struct {
	Arg   string
	Index int
}

// CondStep wraps the step of a flag-gated argument. Inner runs only when
// bit Index of the indicator named FlagsArg is set.
type CondStep struct {
	Arg      string
	FlagsArg string
	Index    int
	Inner    Step
}

// VectorStep frames a counted sequence: marker word, element count, then
// Elem once per element. Elem is derived from the element type alone.
type VectorStep struct {
	Arg  string
	Elem Step
}

// PrimitiveStep moves one fixed-format value.
type PrimitiveStep struct {
	Arg  string
	Kind PrimitiveKind
}

// TrueStep handles the zero-size true pseudo-type. Encoding writes the bare
// true marker; decoding reads one word and compares it against the marker.
type TrueStep struct {
	Arg string
}

// ObjectStep delegates to another constructor: encoding calls the value's
// own Encode, decoding dispatches on the constructor id read from the wire.
// Generic distinguishes !X references from concrete custom types.
type ObjectStep struct {
	Arg     string
	Type    string
	Generic bool
}

// ResultStep is the entire decode sequence of a function: the reply is
// decoded by constructor-id dispatch into the result slot, because a
// function body never appears in responses.
type ResultStep struct{}

func (ConstructorStep) step() {}
func (FlagsStep) step()       {}
func (CondStep) step()        {}
func (VectorStep) step()      {}
func (PrimitiveStep) step()   {}
func (TrueStep) step()        {}
func (ObjectStep) step()      {}
func (ResultStep) step()      {}
