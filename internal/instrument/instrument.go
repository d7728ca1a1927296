package instrument

import "github.com/thing-king/timetrace/internal/trace"

// InstrumentDebugBlock instruments the body of a `debug { ... }` block: a
// top-level statement list with an initially empty known-vars set. This is
// the entry point a real compiler's debug-block lowering would call.
func InstrumentDebugBlock(stmts []Node, loc Position) []Node {
	return instrumentBlock(stmts, NewKnownVars(), loc)
}

// InstrumentBlock instruments stmts starting from startingNames. Calling it
// twice with the same starting names always produces an equivalent tree
// (§8 invariant 7): a fresh KnownVars is built from startingNames on every
// call, so no caller-visible mutation can leak between calls.
func InstrumentBlock(stmts []Node, startingNames []string, loc Position) []Node {
	return instrumentBlock(stmts, NewKnownVars(startingNames...), loc)
}

// instrumentBlock walks one statement list, emitting a trace call before
// every recognised statement and recursing into control-flow and procedure
// bodies per §4.C. known is mutated in place as declarations are folded in;
// callers that need purity across repeated calls go through InstrumentBlock.
func instrumentBlock(stmts []Node, known *KnownVars, parentLoc Position) []Node {
	out := make([]Node, 0, len(stmts)*2)

	for _, child := range stmts {
		switch n := child.(type) {
		case *NoInstrumentStmt:
			// Opt-out: splice the body through untouched. No emission, no
			// recursion, no known-vars effect.
			out = append(out, n.Body...)
			continue
		case *UnknownStmt:
			// Unrecognised shape: copy through unchanged. Never emits,
			// never recurses, never fails the walk.
			out = append(out, n)
			continue
		}

		loc := effectiveLoc(child.Position(), parentLoc)
		desc := trace.TruncateDesc(child.SourceLine())

		// Step 4: snapshot known-vars as they stood BEFORE this statement's
		// own declaration (if any) folds in — a variable is never visible
		// in the emission for the statement that declares it.
		out = append(out, &EmitCallStmt{Pos: loc, Desc: desc, VarNames: known.Names()})

		// Step 5: fold declared names into known-vars, after emission.
		if decl, ok := child.(*DeclStmt); ok {
			for _, name := range decl.Names {
				known.Add(name.Name)
			}
		}

		out = append(out, instrumentNode(child, known, loc))
	}

	return out
}

// effectiveLoc returns pos if it is complete, otherwise the inherited
// parent location (§4.C step 2).
func effectiveLoc(pos, parent Position) Position {
	if pos.IsComplete() {
		return pos
	}
	return parent
}

// instrumentNode returns a copy of child with any body fields replaced by
// their instrumented form. Leaf statements (simple, declaration) are
// returned unchanged — their own emission and known-vars fold already
// happened in instrumentBlock.
func instrumentNode(child Node, known *KnownVars, loc Position) Node {
	switch n := child.(type) {
	case *SimpleStmt:
		return n
	case *DeclStmt:
		return n

	case *BranchStmt:
		branches := make([]Branch, len(n.Branches))
		for i, b := range n.Branches {
			branches[i] = Branch{Cond: b.Cond, Body: instrumentBlock(b.Body, known.Fork(), loc)}
		}
		return &BranchStmt{Pos: n.Pos, Source: n.Source, Branches: branches}

	case *MatchStmt:
		cases := make([]Case, len(n.Cases))
		for i, c := range n.Cases {
			cases[i] = Case{Match: c.Match, Body: instrumentBlock(c.Body, known.Fork(), loc)}
		}
		return &MatchStmt{Pos: n.Pos, Source: n.Source, Cases: cases}

	case *WhenStmt:
		return &WhenStmt{Pos: n.Pos, Source: n.Source, Body: instrumentBlock(n.Body, known.Fork(), loc)}

	case *ForStmt:
		fork := known.Fork()
		for _, v := range n.VarNames {
			fork.Add(v)
		}
		return &ForStmt{
			Pos:      n.Pos,
			Source:   n.Source,
			VarNames: n.VarNames,
			Body:     instrumentBlock(n.Body, fork, loc),
			Iterate:  n.Iterate,
		}

	case *WhileStmt:
		return &WhileStmt{Pos: n.Pos, Source: n.Source, Cond: n.Cond, Body: instrumentBlock(n.Body, known.Fork(), loc)}

	case *LabeledBlock:
		return &LabeledBlock{Pos: n.Pos, Source: n.Source, Label: n.Label, Body: instrumentBlock(n.Body, known.Fork(), loc)}

	case *TryStmt:
		return &TryStmt{
			Pos:     n.Pos,
			Source:  n.Source,
			Try:     instrumentBlock(n.Try, known.Fork(), loc),
			Except:  instrumentBlock(n.Except, known.Fork(), loc),
			Finally: instrumentBlock(n.Finally, known.Fork(), loc),
		}

	case *ProcDecl:
		return instrumentProc(n, loc)

	default:
		// Reached only for generated nodes (EmitCallStmt etc.) that should
		// never appear as instrumentBlock input; pass through unchanged.
		return child
	}
}

// instrumentProc implements §4.C's "Procedure instrumentation": a fresh
// known-vars set seeded with the parameter list (never inherited from the
// enclosing scope), an enterScope prologue, and a guaranteed exitScope on
// every exit path — including exception propagation — modelled here with
// the same try/finally construct user code gets instrumented with.
func instrumentProc(n *ProcDecl, loc Position) *ProcDecl {
	fresh := NewKnownVars(n.Params...)
	body := instrumentBlock(n.Body, fresh, loc)
	wrapped := []Node{
		&EnterScopeStmt{Name: n.Name},
		&TryStmt{Try: body, Finally: []Node{&ExitScopeStmt{}}},
	}
	return &ProcDecl{Pos: n.Pos, Source: n.Source, Name: n.Name, Params: n.Params, Body: wrapped}
}
