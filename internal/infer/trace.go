package infer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/mattn/go-isatty"

	"github.com/funvibe/jinfer/internal/types"
)

const (
	ansiReset  = "\u001b[0m"
	ansiBlue   = "\u001b[34m"
	ansiRed    = "\u001b[31m"
	ansiYellow = "\u001b[33m"

	traceIndent = 4
)

// spewConf keeps dumps shallow enough to stay readable.
var spewConf = spew.ConfigState{Indent: "  ", MaxDepth: 4, DisablePointerAddresses: true, DisableCapacities: true}

// TraceObserver writes a human-readable execution trace of the engine.
// Colors are enabled only when the writer is a terminal. It is a pure
// sink: engine outcomes are identical with Noop.
type TraceObserver struct {
	out   io.Writer
	color bool
	dump  bool

	level int
	marks []int
}

// NewTraceObserver builds a trace observer for out. With dump enabled,
// context initialization additionally dumps the full signature value.
func NewTraceObserver(out io.Writer, dump bool) *TraceObserver {
	color := false
	if f, ok := out.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &TraceObserver{out: out, color: color, dump: dump}
}

func (t *TraceObserver) IsNoop() bool { return false }

func (t *TraceObserver) paint(s string, color string) string {
	if !t.color {
		return s
	}
	return color + s + ansiReset
}

func (t *TraceObserver) println(s string) {
	fmt.Fprint(t.out, strings.Repeat(" ", t.level))
	fmt.Fprintln(t.out, s)
}

func (t *TraceObserver) startSection(header string) {
	t.println(header)
	t.level += traceIndent
}

func (t *TraceObserver) endSection(footer string) {
	t.level -= traceIndent
	if t.level < 0 {
		t.level = 0
	}
	t.println(footer)
}

func (t *TraceObserver) mark() {
	t.marks = append(t.marks, t.level)
}

func (t *TraceObserver) rollback() {
	if len(t.marks) == 0 {
		return
	}
	t.level = t.marks[len(t.marks)-1]
	t.marks = t.marks[:len(t.marks)-1]
}

func (t *TraceObserver) printSite(site *CallSite) {
	if site.Location != "" {
		t.println("At:   " + site.Location)
	}
	t.println("Expr: " + t.paint(site.Name+" (site "+site.ID.String()+")", ansiYellow))
}

func (t *TraceObserver) StartInference(sig *types.Signature, site *CallSite, phase Phase) {
	t.mark()
	t.startSection(fmt.Sprintf("Phase %s, %s", phase, sig))
}

func (t *TraceObserver) EndInference(result *types.Signature) {
	t.rollback()
	if result != nil {
		t.println("Success: " + t.paint(result.String(), ansiRed))
	} else {
		t.println("FAILED")
	}
}

func (t *TraceObserver) CtxInitialization(ctx *InferenceContext, sig *types.Signature) {
	t.println(fmt.Sprintf("Context %d,\t\t\t%s", ctx.ID(), t.paint(sig.String(), ansiBlue)))
	if t.dump {
		t.println(spewConf.Sdump(sig))
	}
}

func (t *TraceObserver) SkipInstantiation(sig *types.Signature, site *CallSite) {
	t.println(fmt.Sprintf("Skipping instantiation of %s, it's already complete", sig))
}

func (t *TraceObserver) StartArgsChecks() { t.startSection("ARGUMENTS") }
func (t *TraceObserver) EndArgsChecks() { t.endSection("") }

func (t *TraceObserver) StartArg(i int, expr ArgExpr, formal types.Type) {
	t.startSection(fmt.Sprintf("Checking arg %d against %s", i, formal))
	if loc := expr.Location(); loc != "" {
		t.println("At: " + loc)
	}
}

func (t *TraceObserver) EndArg() { t.endSection("") }

func (t *TraceObserver) SkipArgAsNonPertinent(i int, expr ArgExpr) {
	t.println(fmt.Sprintf("Argument %d is not pertinent to applicability", i))
}

func (t *TraceObserver) StartReturnChecks() { t.startSection("RETURN") }
func (t *TraceObserver) EndReturnChecks() { t.endSection("") }

func (t *TraceObserver) BoundAdded(ctx *InferenceContext, iv types.TIvar, kind BoundKind, bound types.Type) {
	t.println(fmt.Sprintf("New bound  (ctx %d):\t%s", ctx.ID(), kind.Format(iv, bound)))
}

func (t *TraceObserver) IvarMerged(ctx *InferenceContext, iv, delegate types.TIvar) {
	t.println(fmt.Sprintf("Ivar merged  (ctx %d):\t%s -> %s", ctx.ID(), iv, delegate))
}

func (t *TraceObserver) IvarInstantiated(ctx *InferenceContext, iv types.TIvar, inst types.Type) {
	t.println(fmt.Sprintf("Ivar instantiated  (ctx %d):\t%s := %s", ctx.ID(), iv, inst))
}

func (t *TraceObserver) PropagateAndAbort(ctx, parent *InferenceContext) {
	t.println(fmt.Sprintf("Ctx %d adopts %s from ctx %d",
		parent.ID(), t.paint(fmt.Sprint(ctx.FreeVars()), ansiBlue), ctx.ID()))
}

func (t *TraceObserver) ResolutionFailed(f *ResolutionFailure) {
	t.println("Failed: " + f.Reason)
}

func (t *TraceObserver) NoApplicableCandidates(site *CallSite) {
	t.println("")
	t.printSite(site)
	if site.IsCtor() {
		t.println(fmt.Sprintf("[WARNING] No potentially applicable constructors in %s", site.Receiver))
	} else {
		t.println(fmt.Sprintf("[WARNING] No potentially applicable methods in %s", site.Receiver))
	}
}

func (t *TraceObserver) NoCompileTimeDeclaration(site *CallSite) {
	t.println("")
	t.printSite(site)
	t.startSection("[WARNING] CTDecl resolution failed. Summary of failures:")
	for _, phase := range site.FailurePhases() {
		t.startSection(phase.String() + ":")
		for _, f := range site.Failures(phase) {
			if f.Candidate != nil {
				t.println(f.Reason + "\t\t" + f.Candidate.String())
			} else {
				t.println(f.Reason)
			}
		}
		t.endSection("")
	}
	t.endSection("")
}

func (t *TraceObserver) FallbackCompileTimeDecl(sig *types.Signature, site *CallSite) {
	t.println("[WARNING] Falling back on " + t.paint(sig.String(), ansiBlue) + " (this may cause future mistakes)")
}

func (t *TraceObserver) AmbiguityError(site *CallSite, m1, m2 *types.Signature) {
	t.println("")
	t.printSite(site)
	t.startSection("[WARNING] Ambiguity error: both methods are maximally specific")
	t.println(t.paint(m1.String(), ansiRed))
	t.println(t.paint(m2.String(), ansiRed))
	t.endSection("")
}
