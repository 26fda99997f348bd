package bytecode

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/torchlight/gserver/compiler"
	"github.com/torchlight/gserver/script"
)

func TestCompileUnknownFunction(t *testing.T) {
	host := newMockHost()
	ast, err := compiler.Parse(`global r = nosuchthing(1);`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Compile(ast, host)
	var pe *script.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestCompileBreakOutsideLoop(t *testing.T) {
	host := newMockHost()
	ast, err := compiler.Parse(`break;`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := Compile(ast, host); err == nil {
		t.Fatal("break outside a loop should fail compilation")
	}
}

func TestCompileDuplicateHandler(t *testing.T) {
	host := newMockHost()
	ast, err := compiler.Parse(`on Timeout { } on Timeout { }`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := Compile(ast, host); err == nil {
		t.Fatal("duplicate handlers for one event should fail compilation")
	}
}

// TestJumpDeltaRange verifies out-of-range jump deltas surface as errors
// instead of truncating the i16 operand.
func TestJumpDeltaRange(t *testing.T) {
	c := NewChunk()
	placeholder := c.EmitJump(OpJumpFalse)
	c.Code = append(c.Code, make([]byte, 40000)...)
	if err := c.PatchJump(placeholder); err == nil {
		t.Fatal("forward jump past i16 range should fail")
	}
	if err := c.EmitLoop(-40000); err == nil {
		t.Fatal("backward jump past i16 range should fail")
	}
	if err := c.PatchJumpTo(placeholder, placeholder+10); err != nil {
		t.Fatalf("in-range jump should patch: %v", err)
	}
}

// TestCompileDeterministic verifies that compiling the same source twice
// yields identical bytecode.
func TestCompileDeterministic(t *testing.T) {
	src := `
		global x = 0;
		global y = "hi";
		function add(a, b) { return a + b; }
		on Timeout { x = add(x, 1); }
		on PlayerChats { y = y + "!"; }
		for (i = 0; i < 3; i++) x += i;
	`
	host := newMockHost()

	p1 := compileSrc(t, host, src)
	p2 := compileSrc(t, host, src)

	if len(p1.Functions) != len(p2.Functions) {
		t.Fatalf("function counts differ: %d vs %d", len(p1.Functions), len(p2.Functions))
	}
	for i := range p1.Functions {
		a, b := p1.Functions[i], p2.Functions[i]
		if a.Name != b.Name {
			t.Errorf("function %d name %q vs %q", i, a.Name, b.Name)
		}
		if !bytes.Equal(a.Chunk.Code, b.Chunk.Code) {
			t.Errorf("function %q code differs between compilations", a.Name)
		}
		if len(a.Chunk.Constants) != len(b.Chunk.Constants) {
			t.Errorf("function %q constant pools differ", a.Name)
		}
	}
}

// TestCompileConstantDedup verifies repeated literals share a pool slot.
func TestCompileConstantDedup(t *testing.T) {
	host := newMockHost()
	prog := compileSrc(t, host, `global a = "same"; global b = "same"; global c = "same";`)
	init := prog.Functions[InitFuncIndex]

	count := 0
	for _, v := range init.Chunk.Constants {
		if v.Kind == script.KindString && v.Str() == "same" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected one pooled copy of the literal, found %d", count)
	}
}

func TestCompileHandlerTable(t *testing.T) {
	host := newMockHost()
	prog := compileSrc(t, host, `on Created { } on PlayerChats { }`)

	if !prog.HandlesEvent(script.EventCreated) || !prog.HandlesEvent(script.EventPlayerChats) {
		t.Error("handler table missing declared events")
	}
	if prog.HandlesEvent(script.EventTimeout) {
		t.Error("handler table has an event the script never declared")
	}
}

func TestDisassembleSmoke(t *testing.T) {
	host := newMockHost()
	prog := compileSrc(t, host, `global x = 2 + 3; on Timeout { x = x * 2; }`)

	out := Disassemble(prog)
	for _, want := range []string{"<init>", "on Timeout", "CONST", "STORE_GLOBAL", "MUL", "RETURN_NULL"} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %q:\n%s", want, out)
		}
	}
}

// TestOpcodeMetadataComplete checks every opcode constant has an info
// table entry with a name.
func TestOpcodeMetadataComplete(t *testing.T) {
	for _, op := range AllOpcodes() {
		info := GetOpcodeInfo(op)
		if info.Name == "" || strings.HasPrefix(info.Name, "UNKNOWN") {
			t.Errorf("opcode 0x%02X has no metadata", byte(op))
		}
	}
	if got := GetOpcodeInfo(Opcode(0xEE)).Name; !strings.HasPrefix(got, "UNKNOWN") {
		t.Errorf("undefined opcode should report UNKNOWN, got %q", got)
	}
}
