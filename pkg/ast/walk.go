package ast

import "sort"

// SortedKeys returns the object literal keys in lexical order
func (o ObjectNode) SortedKeys() []string {
	keys := make([]string, 0, len(o.Members))
	for k := range o.Members {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Children returns the direct children of n in source order. Object members
// come in key order. Absent optional children (a missing else) are skipped.
func Children(n *Node) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	add := func(nodes ...*Node) {
		for _, c := range nodes {
			if c != nil {
				out = append(out, c)
			}
		}
	}
	switch d := n.Data.(type) {
	case BinaryNode:
		add(d.Left, d.Right)
	case UnaryNode:
		add(d.Operand)
	case ConditionalNode:
		add(d.Cond, d.TrueBranch, d.FalseBranch)
	case FuncCallNode:
		add(d.Callee)
		add(d.Args...)
	case ObjectNode:
		for _, k := range d.SortedKeys() {
			add(d.Members[k])
		}
	case VarDeclNode:
		add(d.Init)
	case WhileNode:
		add(d.Cond, d.Body)
	case IfNode:
		add(d.Cond, d.ThenBody, d.ElseBody)
	case ReturnNode:
		add(d.Value)
	case FuncDeclNode:
		add(d.Body)
	case ExprStmtNode:
		add(d.Expr)
	case BlockNode:
		add(d.Stmts...)
	}
	return out
}

// Walk visits n depth-first in pre-order. Returning false from fn skips the
// children of the node just visited.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// rebuild returns a fresh node of the same type whose children are f(child)
func rebuild(n *Node, f func(*Node) *Node) *Node {
	if n == nil {
		return nil
	}
	switch d := n.Data.(type) {
	case BinaryNode:
		return newNode(n.Tok, n.Type, BinaryNode{Left: f(d.Left), Right: f(d.Right)})
	case UnaryNode:
		return newNode(n.Tok, n.Type, UnaryNode{Operand: f(d.Operand)})
	case ConditionalNode:
		return NewConditional(n.Tok, f(d.Cond), f(d.TrueBranch), f(d.FalseBranch))
	case FuncCallNode:
		return NewFuncCall(n.Tok, f(d.Callee), mapNodes(d.Args, f))
	case ObjectNode:
		members := make(map[string]*Node, len(d.Members))
		for k, v := range d.Members {
			members[k] = f(v)
		}
		return NewObjectLiteral(n.Tok, members)
	case VarDeclNode:
		return NewVarDecl(n.Tok, d.Name, f(d.Init))
	case WhileNode:
		return NewWhile(n.Tok, f(d.Cond), f(d.Body))
	case IfNode:
		return NewIf(n.Tok, f(d.Cond), f(d.ThenBody), f(d.ElseBody))
	case ReturnNode:
		return NewReturn(n.Tok, f(d.Value))
	case FuncDeclNode:
		return NewFuncDecl(n.Tok, d.Name, append([]string(nil), d.Params...), f(d.Body))
	case ExprStmtNode:
		return NewExprStmt(n.Tok, f(d.Expr))
	case BlockNode:
		return NewBlock(n.Tok, mapNodes(d.Stmts, f))
	}
	// leaves carry no pointers, a shallow copy is a deep copy
	cp := *n
	return &cp
}

func mapNodes(nodes []*Node, f func(*Node) *Node) []*Node {
	if nodes == nil {
		return nil
	}
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = f(n)
	}
	return out
}

// Clone returns a deep copy of n sharing no nodes with it
func Clone(n *Node) *Node {
	return rebuild(n, Clone)
}
