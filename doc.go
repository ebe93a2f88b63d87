/*
Package bocage is an Earley-parsing toolbox, backed by a shared packed parse
forest (SPPF).

Bocage recognizes arbitrary context-free grammars — ambiguous, nullable, or
left/right-recursive alike — and records every derivation of an accepted
input in a compact, append-only node graph instead of collapsing ambiguity
early. Package structure is as follows:

■ symbol: symbol identities and dense bit-matrix primitives shared by grammar
preparation and recognition.

■ vec2d: an appendable, ragged 2-D array used as the recognizer's chart
store.

■ grammar: turns an external context-free grammar into the normalized,
binarized internal form the recognizer consumes.

■ forest: the Bocage itself — a tag-packed, append-only shared packed parse
forest — plus a NullForest that discards derivations for plain recognition.

■ earley: the chart-driven recognizer: predict, scan, and complete phases
advancing across earlemes.

■ traverse: walks a Bocage in dependency order (children before parents),
handing Sum/Product/Leaf/Nulling nodes to a caller-supplied evaluator.

■ scanner: a small Tokenizer contract for feeding input symbols to the
recognizer, with a lexmachine-backed adapter.
*/
package bocage
