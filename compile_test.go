package mpsl

import (
	"strings"
	"testing"
)

type logSink struct {
	msgs []Message
}

func (l *logSink) Log(m Message) { l.msgs = append(l.msgs, m) }

func (l *logSink) count(k MessageKind) int {
	n := 0
	for _, m := range l.msgs {
		if m.Kind == k {
			n++
		}
	}
	return n
}

func (l *logSink) first(k MessageKind) (Message, bool) {
	for _, m := range l.msgs {
		if m.Kind == k {
			return m, true
		}
	}
	return Message{}, false
}

func pixelLayout(t *testing.T) *Layout {
	t.Helper()
	l := NewLayout()
	if err := l.Configure("io"); err != ErrorOk {
		t.Fatalf("Configure: %v", err)
	}
	add := func(name string, tn string, off int32) {
		if err := l.Add(name, MustType(tn), off); err != ErrorOk {
			t.Fatalf("Add(%s): %v", name, err)
		}
	}
	add("pos", "float4", 0)
	add("scale", "float", 16)
	add("count", "int", 20)
	return l
}

func TestCompileOk(t *testing.T) {
	iso := NewIsolate()
	p, err := iso.Compile("void main() { io.pos = io.pos * io.scale; }", 0, nil, pixelLayout(t))
	if err != ErrorOk {
		t.Fatalf("Compile: %v", err)
	}
	defer p.Reset()
	if p.IsEmpty() {
		t.Fatal("compiled program reports empty")
	}
	if p.CodeSize() <= 0 {
		t.Fatalf("CodeSize = %d", p.CodeSize())
	}
}

func TestCompileReportsPosition(t *testing.T) {
	iso := NewIsolate()
	log := &logSink{}
	_, err := iso.Compile("void main() {\n  bogus = 1;\n}", 0, log, pixelLayout(t))
	if err != ErrorSymbolNotFound {
		t.Fatalf("Compile = %v, want %v", err, ErrorSymbolNotFound)
	}
	m, ok := log.first(MessageError)
	if !ok {
		t.Fatal("no MessageError logged")
	}
	if m.Line != 2 {
		t.Errorf("error line = %d, want 2", m.Line)
	}
	if m.Text == "" {
		t.Error("error message is empty")
	}
}

func TestCompileSyntaxError(t *testing.T) {
	iso := NewIsolate()
	log := &logSink{}
	_, err := iso.Compile("void main( {", 0, log, pixelLayout(t))
	if err != ErrorInvalidSyntax {
		t.Fatalf("Compile = %v, want %v", err, ErrorInvalidSyntax)
	}
	if _, ok := log.first(MessageError); !ok {
		t.Fatal("no MessageError logged")
	}
}

func TestCompileStringLiteral(t *testing.T) {
	iso := NewIsolate()
	log := &logSink{}
	_, err := iso.Compile(`float x = "oops";`, 0, log, pixelLayout(t))
	if err != ErrorInvalidCast {
		t.Fatalf("Compile = %v, want %v", err, ErrorInvalidCast)
	}
	m, ok := log.first(MessageError)
	if !ok {
		t.Fatal("no MessageError logged")
	}
	if m.Line != 1 {
		t.Errorf("error line = %d, want 1", m.Line)
	}
	if m.Column == 0 {
		t.Error("error column is zero")
	}
}

func TestCompileGlobalConstant(t *testing.T) {
	iso := NewIsolate()
	p, err := iso.Compile("float K = 2.0f; void main() { io.scale = K; }", 0, nil, pixelLayout(t))
	if err != ErrorOk {
		t.Fatalf("Compile: %v", err)
	}
	p.Reset()

	log := &logSink{}
	_, err = iso.Compile("float K = io.scale; void main() {}", 0, log, pixelLayout(t))
	if err != ErrorTypeMismatch {
		t.Fatalf("non-constant initializer = %v, want %v", err, ErrorTypeMismatch)
	}
	if _, ok := log.first(MessageError); !ok {
		t.Fatal("no MessageError logged")
	}
}

func TestCompileArgumentValidation(t *testing.T) {
	iso := NewIsolate()
	if _, err := iso.Compile("void main() {}", 0, nil); err != ErrorInvalidArgument {
		t.Errorf("no layouts = %v, want %v", err, ErrorInvalidArgument)
	}
	if _, err := iso.Compile("void main() {}", 0, nil, nil); err != ErrorInvalidArgument {
		t.Errorf("nil layout = %v, want %v", err, ErrorInvalidArgument)
	}
	if _, err := iso.Compile("void main() {}", 0, nil, NewLayout()); err != ErrorInvalidArgument {
		t.Errorf("unconfigured layout = %v, want %v", err, ErrorInvalidArgument)
	}
	many := make([]*Layout, MaxArgumentsCount+1)
	for i := range many {
		many[i] = pixelLayout(t)
	}
	if _, err := iso.Compile("void main() {}", 0, nil, many...); err != ErrorInvalidArgument {
		t.Errorf("too many layouts = %v, want %v", err, ErrorInvalidArgument)
	}
	var dead Isolate
	if _, err := dead.Compile("void main() {}", 0, nil, pixelLayout(t)); err != ErrorInvalidState {
		t.Errorf("zero isolate = %v, want %v", err, ErrorInvalidState)
	}
}

func TestDebugBitsClearedWithoutLog(t *testing.T) {
	iso := NewIsolate()
	opts := OptionVerbose | OptionDebugAST | OptionDebugIR | OptionDebugASM
	p, err := iso.Compile("void main() { io.scale = 2.0f; }", opts, nil, pixelLayout(t))
	if err != ErrorOk {
		t.Fatalf("Compile: %v", err)
	}
	p.Reset()
}

func TestDebugDumps(t *testing.T) {
	iso := NewIsolate()
	log := &logSink{}
	opts := OptionVerbose | OptionDebugAST | OptionDebugIR | OptionDebugASM
	p, err := iso.Compile("void main() { io.pos = io.pos + io.pos; }", opts, log, pixelLayout(t))
	if err != ErrorOk {
		t.Fatalf("Compile: %v", err)
	}
	defer p.Reset()
	for _, k := range []MessageKind{
		MessageAstInitial, MessageAstFinal,
		MessageIRInitial, MessageIRFinal,
		MessageAsm, MessageInfo,
	} {
		if log.count(k) == 0 {
			t.Errorf("no %v message logged", k)
		}
	}
	if m, _ := log.first(MessageAsm); !strings.Contains(m.Text, "ret") {
		t.Error("asm listing has no ret")
	}
}

func TestDisableSSE41Listing(t *testing.T) {
	iso := NewIsolate()
	log := &logSink{}
	body := "void main() { io.scale = dot(io.pos, io.pos); io.pos = floor(io.pos); }"
	p, err := iso.Compile(body, OptionDebugASM|OptionDisableSSE4_1, log, pixelLayout(t))
	if err != ErrorOk {
		t.Fatalf("Compile: %v", err)
	}
	defer p.Reset()
	m, ok := log.first(MessageAsm)
	if !ok {
		t.Fatal("no asm listing")
	}
	for _, mn := range []string{"dpps", "roundps", "insertps", "pextr", "pmulld"} {
		if strings.Contains(m.Text, mn) {
			t.Errorf("baseline listing uses %s", mn)
		}
	}
}

func TestIsolateAccounting(t *testing.T) {
	iso := NewIsolate()
	p1, err := iso.Compile("void main() { io.count = 1; }", 0, nil, pixelLayout(t))
	if err != ErrorOk {
		t.Fatalf("Compile: %v", err)
	}
	if got := iso.LivePrograms(); got != 1 {
		t.Fatalf("LivePrograms = %d, want 1", got)
	}
	if iso.CodeBytes() <= 0 {
		t.Fatalf("CodeBytes = %d", iso.CodeBytes())
	}

	p2 := p1.Clone()
	if got := iso.LivePrograms(); got != 1 {
		t.Fatalf("LivePrograms after Clone = %d, want 1", got)
	}
	p1.Reset()
	if got := iso.LivePrograms(); got != 1 {
		t.Fatalf("LivePrograms after first Reset = %d, want 1", got)
	}
	if !p1.IsEmpty() || p2.IsEmpty() {
		t.Fatal("handle states wrong after Reset")
	}
	p2.Reset()
	if got := iso.LivePrograms(); got != 0 {
		t.Fatalf("LivePrograms after last Reset = %d, want 0", got)
	}
	if got := iso.CodeBytes(); got != 0 {
		t.Fatalf("CodeBytes after last Reset = %d, want 0", got)
	}
}

func TestProgramAssign(t *testing.T) {
	iso := NewIsolate()
	p1, err := iso.Compile("void main() { io.count = 7; }", 0, nil, pixelLayout(t))
	if err != ErrorOk {
		t.Fatalf("Compile: %v", err)
	}
	p2 := NewProgram()
	if !p2.IsEmpty() {
		t.Fatal("NewProgram is not empty")
	}
	p2.Assign(p1)
	if p2.IsEmpty() || p2.CodeSize() != p1.CodeSize() {
		t.Fatal("Assign did not share code")
	}
	p1.Reset()
	if got := iso.LivePrograms(); got != 1 {
		t.Fatalf("LivePrograms = %d, want 1", got)
	}
	p2.Reset()
	if got := iso.LivePrograms(); got != 0 {
		t.Fatalf("LivePrograms = %d, want 0", got)
	}
}

func TestIsolateCloneFreezeRejected(t *testing.T) {
	iso := NewIsolate()
	if _, err := iso.Clone(); err != ErrorInvalidState {
		t.Errorf("Clone = %v, want %v", err, ErrorInvalidState)
	}
	if err := iso.Freeze(); err != ErrorInvalidState {
		t.Errorf("Freeze = %v, want %v", err, ErrorInvalidState)
	}
}

func TestEmptyProgramRun(t *testing.T) {
	p := NewProgram()
	if err := p.Run(); err != ErrorInvalidState {
		t.Fatalf("Run on empty = %v, want %v", err, ErrorInvalidState)
	}
}
