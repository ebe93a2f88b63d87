package earley

import (
	"bytes"
	"fmt"
)

// String renders the parser's current state for diagnostics: the
// earleme cursor, the number of sealed medial sets and stored backlinks,
// and the items of every non-empty sealed medial set. It is not meant
// for machine parsing.
func (p *Parser) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Parser{ earleme: %d, sealed medial sets: %d, backlinks: %d }\n",
		p.earleme, p.medial.Len(), len(p.backlinks))
	for e := 0; e < p.medial.Len(); e++ {
		items := p.medial.Index(e)
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "  earleme %d:\n", e)
		for _, it := range items {
			fmt.Fprintf(&b, "    [rule %d, origin %d] -> %s\n",
				it.Rule, it.Origin, p.grammar.Name(p.grammar.GetLhs(it.Rule)))
		}
	}
	return b.String()
}

// dumpAccept traces an acceptance event at the given span, mirroring the
// teacher's dumpState-style per-item trace.
func (p *Parser) dumpAccept(k spanKey, current uint32) {
	tracer().Debugf("ACCEPT: %s @ [%d, %d)", p.grammar.Name(k.sym), k.origin, current)
}
