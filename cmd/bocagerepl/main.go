// Command bocagerepl is an interactive sandbox for the bocage recognizer.
// It reads arithmetic expressions line by line, parses each against a
// small demo grammar, and reports whether the line was accepted along
// with a rendering of the resulting parse forest.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"
	"github.com/timtadh/lexmachine"

	"github.com/npillmayer/bocage/earley"
	"github.com/npillmayer/bocage/forest"
	"github.com/npillmayer/bocage/grammar"
	"github.com/npillmayer/bocage/scanner"
	"github.com/npillmayer/bocage/symbol"
	"github.com/npillmayer/bocage/traverse"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
)

func tracer() tracing.Trace {
	return tracing.Select("bocage.bocagerepl")
}

// Demo grammar:
//
//	Expr   -> Expr SumOp Term  |  Term
//	Term   -> Term ProdOp Factor  |  Factor
//	Factor -> number  |  ( Expr )
//	SumOp  -> +  |  -
//	ProdOp -> *  |  /
func makeExprGrammar() (*grammar.Builder, *grammar.DefaultGrammar, error) {
	b := grammar.NewGrammarBuilder("expr")
	b.LHS("Expr").N("Expr").N("SumOp").N("Term").End()
	b.LHS("Expr").N("Term").End()
	b.LHS("Term").N("Term").N("ProdOp").N("Factor").End()
	b.LHS("Term").N("Factor").End()
	b.LHS("Factor").T("number").End()
	b.LHS("Factor").T("(").N("Expr").T(")").End()
	b.LHS("SumOp").T("+").End()
	b.LHS("SumOp").T("-").End()
	b.LHS("ProdOp").T("*").End()
	b.LHS("ProdOp").T("/").End()
	b.Start("Expr")
	cfg := b.Build()
	g, err := grammar.Prepare(cfg)
	return b, g, err
}

// terminalNames lists every terminal the demo grammar's builder interned;
// newLexer assigns each one a lexmachine token id (literals only need a
// stable positive int, not any particular value).
var terminalNames = []string{"number", "(", ")", "+", "-", "*", "/"}

func newLexer() (*scanner.LMAdapter, map[int]string) {
	ids := make(map[string]int, len(terminalNames))
	idToName := make(map[int]string, len(terminalNames))
	for i, name := range terminalNames {
		ids[name] = i + 1
		idToName[i+1] = name
	}
	init := func(lx *lexmachine.Lexer) {
		lx.Add([]byte(`[0-9]+`), scanner.MakeToken("number", ids["number"]))
		lx.Add([]byte(`( |\t)+`), scanner.Skip)
	}
	literals := []string{"(", ")", "+", "-", "*", "/"}
	lm, err := scanner.NewLMAdapter(init, literals, nil, ids)
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(3)
	}
	return lm, idToName
}

// Intp holds the sandbox's persistent state across REPL lines.
type Intp struct {
	builder  *grammar.Builder
	g        *grammar.DefaultGrammar
	lm       *scanner.LMAdapter
	idToName map[int]string
	repl     *readline.Instance
}

func main() {
	initDisplay()
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	flag.Parse()
	gologadapter.New()
	tracer().SetTraceLevel(traceLevel(*tlevel))

	pterm.Info.Println("Welcome to bocagerepl")
	pterm.Info.Println("Demo grammar: Expr -> Expr (+|-) Term | Term ; Term -> Term (*|/) Factor | Factor ; Factor -> number | ( Expr )")

	builder, g, err := makeExprGrammar()
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(2)
	}
	lm, idToName := newLexer()

	repl, err := readline.New("bocage> ")
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	intp := &Intp{builder: builder, g: g, lm: lm, idToName: idToName, repl: repl}

	tracer().Infof("Quit with <ctrl>D")
	intp.REPL()
}

func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  "  >>",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "  Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// REPL reads lines until EOF, evaluating each as an arithmetic expression.
func (intp *Intp) REPL() {
	for {
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF, or ctrl-C
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		if err := intp.Eval(line); err != nil {
			pterm.Error.Println(err.Error())
		}
	}
	fmt.Println("Good bye!")
}

// Eval tokenizes line, parses it against the demo grammar, and prints the
// outcome: acceptance or rejection, followed by a bracketed rendering of
// the (first) accepted derivation when a forest was built.
func (intp *Intp) Eval(line string) error {
	tokens, names, err := intp.tokenize(line)
	if err != nil {
		return err
	}

	bocage := forest.NewBocage(64)
	parser := earley.NewParser(intp.g, len(tokens), earley.WithForest(bocage))
	accepted, err := parser.Parse(tokens)
	if err != nil {
		return err
	}
	if !accepted {
		pterm.Error.Println("rejected: " + line)
		return nil
	}

	pterm.Info.Println("accepted: " + line)
	rendering := renderFirst(bocage, parser.Root(), intp.g, names)
	pterm.Info.Println(rendering)
	return nil
}

// tokenize runs line through the lexmachine adapter, mapping each scanned
// token to the internal symbol id the recognizer expects, and returns a
// map from internal symbol to lexeme for pretty-printing the parse
// afterward (a later token of the same symbol overwrites an earlier one).
func (intp *Intp) tokenize(line string) ([]symbol.Symbol, map[symbol.Symbol]string, error) {
	sc, err := intp.lm.Scanner(line)
	if err != nil {
		return nil, nil, err
	}

	var tokens []symbol.Symbol
	names := make(map[symbol.Symbol]string)
	for {
		tok := sc.NextToken()
		if tok.TokType() == scanner.EOF {
			break
		}
		name, ok := intp.idToName[int(tok.TokType())]
		if !ok {
			return nil, nil, fmt.Errorf("unrecognized token %q", tok.Lexeme())
		}
		extSym, ok := intp.builder.SymbolID(name)
		if !ok {
			return nil, nil, fmt.Errorf("terminal %q not in grammar", name)
		}
		intSym, ok := intp.g.ToInternal(extSym)
		if !ok {
			intSym = extSym
		}
		tokens = append(tokens, intSym)
		names[intSym] = tok.Lexeme()
	}
	return tokens, names, nil
}

// renderFirst evaluates every derivation of the (possibly ambiguous)
// forest rooted at root, rendering each as a parenthesized expression. It
// returns the first rendering, followed by the derivation count when
// there is more than one.
func renderFirst(b *forest.Bocage, root forest.NodeHandle, g *grammar.DefaultGrammar, lexemes map[symbol.Symbol]string) string {
	if root == forest.NullHandle {
		return "(no forest: parser constructed without WithForest)"
	}
	t := traverse.NewTraverse(b, root)
	ev := &traverse.Evaluator[string]{
		Leaf: func(sym symbol.Symbol) string {
			if lex, ok := lexemes[sym]; ok {
				return lex
			}
			return g.Name(sym)
		},
		Null: func(sym symbol.Symbol, out *[]string) {
			*out = append(*out, "ε")
		},
		Rule: func(action uint32, factors []string) string {
			if len(factors) == 1 {
				return factors[0]
			}
			return "(" + strings.Join(factors, " ") + ")"
		},
	}
	values := ev.Evaluate(t)
	if len(values) == 0 {
		return "(empty derivation)"
	}
	if len(values) > 1 {
		return fmt.Sprintf("%s  [%d derivations, showing first]", values[0], len(values))
	}
	return values[0]
}

func traceLevel(l string) tracing.TraceLevel {
	return tracing.TraceLevelFromString(l)
}
