package ast

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Dump renders n as a single-line S-expression, e.g. (Addition 1 (Multiplication 2 3))
func Dump(n *Node) string {
	var sb strings.Builder
	dump(&sb, n)
	return sb.String()
}

// DumpProgram renders one statement per line
func DumpProgram(stmts []*Node) string {
	var sb strings.Builder
	for _, s := range stmts {
		dump(&sb, s)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func dump(sb *strings.Builder, n *Node) {
	if n == nil {
		sb.WriteString("nil")
		return
	}
	switch d := n.Data.(type) {
	case IdentNode:
		sb.WriteString(d.Name)
		return
	case NumberNode:
		sb.WriteString(formatNumber(d.Value))
		return
	case StringNode:
		sb.WriteString(strconv.Quote(d.Value))
		return
	}

	sb.WriteByte('(')
	sb.WriteString(n.Type.String())
	switch d := n.Data.(type) {
	case ObjectNode:
		for _, k := range d.SortedKeys() {
			sb.WriteString(" (")
			sb.WriteString(strconv.Quote(k))
			sb.WriteByte(' ')
			dump(sb, d.Members[k])
			sb.WriteByte(')')
		}
	case VarDeclNode:
		sb.WriteString(" " + d.Name + " ")
		dump(sb, d.Init)
	case FuncDeclNode:
		sb.WriteString(" " + d.Name + " (" + strings.Join(d.Params, " ") + ") ")
		dump(sb, d.Body)
	default:
		for _, c := range Children(n) {
			sb.WriteByte(' ')
			dump(sb, c)
		}
	}
	sb.WriteByte(')')
}

// MarshalJSON encodes the node as {"type": ..., "line": ..., "column": ..., <fields>}
func (n *Node) MarshalJSON() ([]byte, error) {
	obj := map[string]interface{}{
		"type":   n.Type.String(),
		"line":   n.Tok.Line,
		"column": n.Tok.Column,
	}
	switch d := n.Data.(type) {
	case BinaryNode:
		obj["left"], obj["right"] = d.Left, d.Right
	case UnaryNode:
		obj["operand"] = d.Operand
	case ConditionalNode:
		obj["condition"], obj["trueBranch"], obj["falseBranch"] = d.Cond, d.TrueBranch, d.FalseBranch
	case FuncCallNode:
		obj["callee"], obj["args"] = d.Callee, nonNil(d.Args)
	case IdentNode:
		obj["name"] = d.Name
	case StringNode:
		obj["value"] = d.Value
	case NumberNode:
		obj["value"] = d.Value
	case ObjectNode:
		obj["members"] = d.Members
	case VarDeclNode:
		obj["name"], obj["init"] = d.Name, d.Init
	case WhileNode:
		obj["condition"], obj["body"] = d.Cond, d.Body
	case IfNode:
		obj["condition"], obj["then"] = d.Cond, d.ThenBody
		if d.ElseBody != nil {
			obj["else"] = d.ElseBody
		}
	case ReturnNode:
		obj["value"] = d.Value
	case FuncDeclNode:
		params := d.Params
		if params == nil {
			params = []string{}
		}
		obj["name"], obj["params"], obj["body"] = d.Name, params, d.Body
	case ExprStmtNode:
		obj["expression"] = d.Expr
	case BlockNode:
		obj["statements"] = nonNil(d.Stmts)
	}
	return json.Marshal(obj)
}

func nonNil(nodes []*Node) []*Node {
	if nodes == nil {
		return []*Node{}
	}
	return nodes
}
