/*
Package schema parses TL schema text into definitions.

A schema file is line oriented. Each non-blank line is a comment, a section
marker, or a definition:

	// comments start with two slashes
	---types---
	user#d23c81a3 id:int first_name:string = User;
	---functions---
	messages.send#fa88427a flags:# silent:flags.0?true peer:InputPeer text:string = Updates;

# Definitions

A definition names a constructor, fixes its 32-bit id in hex after '#', lists
its arguments, and ends with the boxed result type after '='. Everything
before the first --- marker and everything under ---types--- declares types;
definitions under ---functions--- declare callable functions.

# Arguments

Arguments take the form name:type. Special shapes:

  - flags:#            a flag indicator carrying a 32-bit bitmask
  - mute:flags.1?Bool  present on the wire only when bit 1 of flags is set
  - users:Vector<User> a counted sequence of elements
  - query:!X           a value of generic type X, declared earlier as {X:Type}

# Diagnostics

Parsing is feed forward: a malformed line produces a Diagnostic and is
skipped while the remaining lines still parse. Validate layers
cross-definition checks on top, including constructor-id uniqueness, which is
reported as a conflict because it poisons the whole batch rather than a
single definition.

# Parsing

Load definitions from files or bytes:

	doc, diags := schema.Parse(src)
	doc, diags, err := schema.ParseFiles([]string{"api.tl", "mtproto.tl"})

The built-in constructors the wire format hardcodes (boolFalse, boolTrue,
true, vector, null) are recognized and skipped; their encodings live in the
wire package, not in generated code.
*/
package schema
