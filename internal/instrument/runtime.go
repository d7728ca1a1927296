package instrument

import "fmt"

// Env is a minimal lexical environment for the reference tree-walking
// evaluator. It exists solely so this package's tests can exercise an
// instrumented tree end-to-end and assert on the resulting trace; nothing
// in the instrumenter itself depends on it.
type Env struct {
	parent *Env
	vars   map[string]interface{}
}

// NewEnv returns a root environment with no parent.
func NewEnv() *Env {
	return &Env{vars: make(map[string]interface{})}
}

// Child returns a new environment nested under env, the shape every forked
// control-flow body and procedure call gets at evaluation time.
func (e *Env) Child() *Env {
	return &Env{parent: e, vars: make(map[string]interface{})}
}

// Set binds name in the current frame.
func (e *Env) Set(name string, value interface{}) {
	e.vars[name] = value
}

// Get resolves name by walking up the parent chain. The second return value
// is false if name is bound nowhere in the chain, which Eval treats as "not
// yet in scope" rather than an error.
func (e *Env) Get(name string) (interface{}, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// EmitFunc is the signature the evaluator calls for each EmitCallStmt it
// walks over: file, line, col, description, and a map built by resolving
// VarNames against the current environment. Tests typically pass
// tracewriter.DebugLog-compatible closures writing into an in-memory
// writer.
type EmitFunc func(file string, line, col int, desc string, vars map[string]string)

// Eval walks an instrumented tree, executing every node's Run callback,
// invoking emit for every EmitCallStmt, and calling enterScope / exitScope
// for every EnterScopeStmt / ExitScopeStmt it encounters. It is a reference interpreter only: it understands exactly
// the node shapes this package itself produces and consumes, nothing more.
func Eval(stmts []Node, env *Env, emit EmitFunc, enterScope func(string), exitScope func()) {
	for _, n := range stmts {
		switch node := n.(type) {
		case *EmitCallStmt:
			vars := make(map[string]string, len(node.VarNames))
			for _, name := range node.VarNames {
				if v, ok := env.Get(name); ok {
					vars[name] = SafeReprFunc(v)
				}
			}
			emit(node.Pos.File, node.Pos.Line, node.Pos.Col, node.Desc, vars)
		case *EnterScopeStmt:
			enterScope(node.Name)
		case *ExitScopeStmt:
			exitScope()
		case *SimpleStmt:
			if node.Run != nil {
				node.Run(env)
			}
		case *DeclStmt:
			if node.Run != nil {
				node.Run(env)
			}
		case *UnknownStmt:
			if node.Run != nil {
				node.Run(env)
			}
		case *BranchStmt:
			for _, b := range node.Branches {
				if b.Cond == nil || b.Cond(env) {
					Eval(b.Body, env.Child(), emit, enterScope, exitScope)
					break
				}
			}
		case *MatchStmt:
			for _, c := range node.Cases {
				if c.Match == nil || c.Match(env) {
					Eval(c.Body, env.Child(), emit, enterScope, exitScope)
					break
				}
			}
		case *WhenStmt:
			Eval(node.Body, env.Child(), emit, enterScope, exitScope)
		case *LabeledBlock:
			Eval(node.Body, env.Child(), emit, enterScope, exitScope)
		case *WhileStmt:
			for node.Cond(env) {
				Eval(node.Body, env.Child(), emit, enterScope, exitScope)
			}
		case *ForStmt:
			node.Iterate(env, func(loopEnv *Env) {
				Eval(node.Body, loopEnv, emit, enterScope, exitScope)
			})
		case *TryStmt:
			func() {
				defer Eval(node.Finally, env.Child(), emit, enterScope, exitScope)
				Eval(node.Try, env.Child(), emit, enterScope, exitScope)
			}()
		case *ProcDecl:
			// Declaring a procedure binds a callable value; calling it is
			// exercised directly by tests via CallProc, not through Eval.
			env.Set(node.Name, node)
		default:
			// Unrecognised at evaluation time too: skip silently.
		}
	}
}

// CallProc evaluates one invocation of proc's (already instrumented) body
// in a fresh root environment seeded with args, matching the way
// instrumentProc seeds a procedure's known-vars set from its parameter list.
func CallProc(proc *ProcDecl, args map[string]interface{}, emit EmitFunc, enterScope func(string), exitScope func()) *Env {
	callEnv := NewEnv()
	for name, v := range args {
		callEnv.Set(name, v)
	}
	Eval(proc.Body, callEnv, emit, enterScope, exitScope)
	return callEnv
}

// SafeReprFunc is the string-conversion hook Eval uses to resolve variable
// values for a trace snapshot. It is a package variable rather than a
// direct import so this package never depends on tracewriter; a caller may
// replace it with tracewriter.SafeRepr (or an equivalent). This package's
// tests use the default, a plain fmt.Sprintf, sufficient for values that
// never panic on conversion.
var SafeReprFunc = func(v interface{}) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v", v)
}
