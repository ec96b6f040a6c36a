package codegen

import (
	"errors"
	"testing"

	"github.com/IbnNafis007/tlgen/core/schema"
)

// mustParse parses src and fails the test on any diagnostic.
func mustParse(t *testing.T, src string) *schema.Document {
	t.Helper()
	doc, diags := schema.Parse([]byte(src))
	if err := diags.Err(); err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func generateOne(t *testing.T, src string) *Spec {
	t.Helper()
	doc := mustParse(t, src)
	g := NewGenerator(doc.Definitions)
	spec, err := g.Generate(doc.Definitions[0])
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return spec
}

func TestGeneratePrimitives(t *testing.T) {
	spec := generateOne(t, "t#0badf00d a:int b:long c:int128 d:int256 e:double f:string g:bytes h:Bool = T;")

	if len(spec.Encode) != 9 {
		t.Fatalf("encode has %d steps, want 9", len(spec.Encode))
	}
	ctor, ok := spec.Encode[0].(ConstructorStep)
	if !ok || ctor.ID != 0x0badf00d {
		t.Fatalf("encode[0] = %#v, want ConstructorStep{0x0badf00d}", spec.Encode[0])
	}

	wantKinds := []PrimitiveKind{PrimInt, PrimLong, PrimInt128, PrimInt256, PrimDouble, PrimString, PrimBytes, PrimBool}
	wantArgs := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for i, k := range wantKinds {
		p, ok := spec.Encode[i+1].(PrimitiveStep)
		if !ok {
			t.Fatalf("encode[%d] = %#v, want PrimitiveStep", i+1, spec.Encode[i+1])
		}
		if p.Kind != k || p.Arg != wantArgs[i] {
			t.Errorf("encode[%d] = {%s %s}, want {%s %s}", i+1, p.Arg, p.Kind, wantArgs[i], k)
		}
	}

	// Type decode repeats the argument steps without the constructor id.
	if len(spec.Decode) != 8 {
		t.Fatalf("decode has %d steps, want 8", len(spec.Decode))
	}
	if _, ok := spec.Decode[0].(ConstructorStep); ok {
		t.Error("decode must not start with a ConstructorStep")
	}
}

func TestGenerateFlags(t *testing.T) {
	spec := generateOne(t, "t#01 flags:# a:int mute:flags.1?Bool title:flags.5?string = T;")

	fs, ok := spec.Encode[1].(FlagsStep)
	if !ok {
		t.Fatalf("encode[1] = %#v, want FlagsStep", spec.Encode[1])
	}
	if fs.Arg != "flags" {
		t.Errorf("FlagsStep.Arg = %q, want flags", fs.Arg)
	}
	wantBits := []FlagBit{{Arg: "mute", Index: 1}, {Arg: "title", Index: 5}}
	if len(fs.Bits) != len(wantBits) {
		t.Fatalf("Bits = %v, want %v", fs.Bits, wantBits)
	}
	for i, b := range wantBits {
		if fs.Bits[i] != b {
			t.Errorf("Bits[%d] = %v, want %v", i, fs.Bits[i], b)
		}
	}

	mute, ok := spec.Encode[3].(CondStep)
	if !ok {
		t.Fatalf("encode[3] = %#v, want CondStep", spec.Encode[3])
	}
	if mute.Arg != "mute" || mute.Index != 1 || mute.FlagsArg != "flags" {
		t.Errorf("CondStep = %+v", mute)
	}
	if inner, ok := mute.Inner.(PrimitiveStep); !ok || inner.Kind != PrimBool {
		t.Errorf("CondStep.Inner = %#v, want Bool primitive", mute.Inner)
	}
}

func TestGenerateTrue(t *testing.T) {
	spec := generateOne(t, "t#01 flags:# silent:flags.0?true = T;")
	cond, ok := spec.Encode[2].(CondStep)
	if !ok {
		t.Fatalf("encode[2] = %#v, want CondStep", spec.Encode[2])
	}
	if _, ok := cond.Inner.(TrueStep); !ok {
		t.Errorf("Inner = %#v, want TrueStep", cond.Inner)
	}
}

func TestGenerateVector(t *testing.T) {
	src := `
user#d2 id:int = User;
t#01 ids:Vector<int> users:Vector<User> = T;
`
	doc := mustParse(t, src)
	g := NewGenerator(doc.Definitions)
	def := doc.Definitions[1]
	spec, err := g.Generate(def)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	ids, ok := spec.Encode[1].(VectorStep)
	if !ok {
		t.Fatalf("encode[1] = %#v, want VectorStep", spec.Encode[1])
	}
	if ids.Arg != "ids" {
		t.Errorf("VectorStep.Arg = %q, want ids", ids.Arg)
	}
	elem, ok := ids.Elem.(PrimitiveStep)
	if !ok || elem.Kind != PrimInt {
		t.Fatalf("ids.Elem = %#v, want int primitive", ids.Elem)
	}
	// Element steps are positional, not field-bound.
	if elem.Arg != "" {
		t.Errorf("element step carries Arg %q, want empty", elem.Arg)
	}

	users := spec.Encode[2].(VectorStep)
	if obj, ok := users.Elem.(ObjectStep); !ok || obj.Type != "User" || obj.Generic {
		t.Errorf("users.Elem = %#v, want ObjectStep{Type: User}", users.Elem)
	}

	// Derivation must not rewrite the parsed argument.
	if got := def.Args[0]; !got.IsVector || got.Type != "int" {
		t.Errorf("argument mutated by generation: %+v", got)
	}
}

func TestGenerateConditionalVector(t *testing.T) {
	spec := generateOne(t, "t#01 flags:# tags:flags.7?Vector<string> = T;")
	cond, ok := spec.Encode[2].(CondStep)
	if !ok {
		t.Fatalf("encode[2] = %#v, want CondStep", spec.Encode[2])
	}
	vec, ok := cond.Inner.(VectorStep)
	if !ok {
		t.Fatalf("Inner = %#v, want VectorStep", cond.Inner)
	}
	if p, ok := vec.Elem.(PrimitiveStep); !ok || p.Kind != PrimString {
		t.Errorf("Elem = %#v, want string primitive", vec.Elem)
	}
}

func TestGenerateFunctionDecode(t *testing.T) {
	src := `
pong#347773c5 msg_id:long ping_id:long = Pong;
---functions---
ping#7abe77ec ping_id:long = Pong;
`
	doc := mustParse(t, src)
	g := NewGenerator(doc.Definitions)
	spec, err := g.Generate(doc.Definitions[1])
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !spec.Def.IsFunction {
		t.Fatal("expected a function definition")
	}
	if len(spec.Decode) != 1 {
		t.Fatalf("decode has %d steps, want 1", len(spec.Decode))
	}
	if _, ok := spec.Decode[0].(ResultStep); !ok {
		t.Errorf("decode[0] = %#v, want ResultStep", spec.Decode[0])
	}
	// Encoding a function still writes id and arguments normally.
	if len(spec.Encode) != 2 {
		t.Errorf("encode has %d steps, want 2", len(spec.Encode))
	}
}

func TestGenerateGeneric(t *testing.T) {
	spec := generateOne(t, "invokeAfterMsg#cb9f372d {X:Type} msg_id:long query:!X = X;")

	// {X:Type} contributes no wire step.
	if len(spec.Encode) != 3 {
		t.Fatalf("encode has %d steps, want 3 (ctor, msg_id, query)", len(spec.Encode))
	}
	obj, ok := spec.Encode[2].(ObjectStep)
	if !ok {
		t.Fatalf("encode[2] = %#v, want ObjectStep", spec.Encode[2])
	}
	if !obj.Generic || obj.Type != "X" || obj.Arg != "query" {
		t.Errorf("ObjectStep = %+v", obj)
	}
}

func TestGenerateUnresolved(t *testing.T) {
	doc := mustParse(t, "t#01 peer:InputPeer = T;")
	g := NewGenerator(doc.Definitions)
	_, err := g.Generate(doc.Definitions[0])
	var re *ResolveError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want ResolveError", err)
	}
	if re.Argument != "peer" || re.Type != "InputPeer" {
		t.Errorf("ResolveError = %+v", re)
	}
}

func TestGenerateFlagWithoutIndicator(t *testing.T) {
	// Bypasses Validate on purpose: Generate must still refuse.
	doc := mustParse(t, "t#01 mute:flags.0?Bool = T;")
	g := NewGenerator(doc.Definitions)
	_, err := g.Generate(doc.Definitions[0])
	var fe *FlagError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FlagError", err)
	}
}

func TestResolutionThroughResultTypes(t *testing.T) {
	// InputPeer is known only as a boxed result type, never as a
	// constructor name.
	src := `
inputPeerEmpty#7f3b18ea = InputPeer;
t#01 peer:InputPeer = T;
`
	doc := mustParse(t, src)
	g := NewGenerator(doc.Definitions)
	if diags := g.Check(doc.Definitions); len(diags) != 0 {
		t.Fatalf("Check diagnostics: %v", diags)
	}
	if _, err := g.Generate(doc.Definitions[1]); err != nil {
		t.Fatalf("Generate: %v", err)
	}
}

func TestCheckReportsUnknownTypes(t *testing.T) {
	doc := mustParse(t, "t#01 a:int peer:InputPeer photo:Photo = T;")
	g := NewGenerator(doc.Definitions)
	diags := g.Check(doc.Definitions)
	if len(diags) != 2 {
		t.Fatalf("got %d diagnostics, want 2: %v", len(diags), diags)
	}
	for _, d := range diags {
		if d.Kind != schema.KindSemantic {
			t.Errorf("Kind = %v, want semantic", d.Kind)
		}
		if d.Definition != "t" {
			t.Errorf("Definition = %q, want t", d.Definition)
		}
	}
}

func TestGenerateAllCollectsFailures(t *testing.T) {
	src := `
good#01 a:int = Good;
bad#02 peer:InputPeer = Bad;
also#03 b:string = Also;
`
	doc := mustParse(t, src)
	g := NewGenerator(doc.Definitions)
	specs, diags := g.GenerateAll(doc.Definitions)
	if len(specs) != 2 {
		t.Fatalf("got %d specs, want 2", len(specs))
	}
	if specs[0].Def.Name != "good" || specs[1].Def.Name != "also" {
		t.Errorf("spec order = %s, %s", specs[0].Def.Name, specs[1].Def.Name)
	}
	if len(diags) != 1 || diags[0].Definition != "bad" {
		t.Fatalf("diags = %v, want one for bad", diags)
	}
}
