package ast

import "math"

// FoldConstants evaluates arithmetic on number literals ahead of time.
// The input tree is left untouched; a new tree is returned.
func FoldConstants(node *Node) *Node {
	if node == nil {
		return nil
	}
	folded := rebuild(node, FoldConstants)

	switch {
	case folded.Type.IsBinary():
		d := folded.Data.(BinaryNode)
		l, lok := numberValue(d.Left)
		r, rok := numberValue(d.Right)
		if !lok || !rok {
			break
		}
		if res, ok := foldBinary(folded.Type, l, r); ok {
			return NewNumber(folded.Tok, res)
		}
	case folded.Type == UnaryMinus:
		if v, ok := numberValue(folded.Data.(UnaryNode).Operand); ok {
			return NewNumber(folded.Tok, -v)
		}
	}
	return folded
}

func numberValue(n *Node) (float64, bool) {
	if n == nil || n.Type != NumberLiteral {
		return 0, false
	}
	return n.Data.(NumberNode).Value, true
}

func foldBinary(op NodeType, l, r float64) (float64, bool) {
	var res float64
	switch op {
	case Addition:
		res = l + r
	case Subtraction:
		res = l - r
	case Multiplication:
		res = l * r
	case Power:
		res = math.Pow(l, r)
	case Division:
		if r == 0 {
			return 0, false
		}
		res = l / r
	case Remainder:
		if r == 0 {
			return 0, false
		}
		res = math.Mod(l, r)
	default:
		return 0, false
	}
	if math.IsInf(res, 0) || math.IsNaN(res) {
		return 0, false
	}
	return res, true
}
