package estimation

import (
	"strconv"
	"strings"
	"unicode"
)

// Variables is the lookup contract formulas evaluate against. Both
// RoofVariables and SlopeScope satisfy it.
type Variables interface {
	Lookup(name string) (float64, bool)
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

// EvaluateFormula computes a line-item quantity from a formula string such as
// "EAVE * 1.05" or "(SQ + VAL / 100) * 3". Variable names not known to vars
// resolve to 0 rather than failing, so catalog formulas keep working against
// variable sets that omit optional fields. A malformed expression returns a
// *FormulaError.
func EvaluateFormula(formula string, vars Variables) (float64, error) {
	tokens, err := tokenize(formula)
	if err != nil {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, &FormulaError{Formula: formula, Message: "empty expression"}
	}
	rpn, err := toRPN(formula, tokens)
	if err != nil {
		return 0, err
	}
	return evalRPN(formula, rpn, vars)
}

func tokenize(formula string) ([]token, error) {
	var tokens []token
	runes := []rune(formula)
	i := 0
	for i < len(runes) {
		c := runes[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen})
			i++
		case c == '+' || c == '-' || c == '*' || c == '/':
			tokens = append(tokens, token{kind: tokOp, text: string(c)})
			i++
		case unicode.IsDigit(c) || c == '.':
			j := i
			for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
				j++
			}
			n, err := strconv.ParseFloat(string(runes[i:j]), 64)
			if err != nil {
				return nil, &FormulaError{Formula: formula, Message: "bad number " + string(runes[i:j])}
			}
			tokens = append(tokens, token{kind: tokNumber, num: n})
			i = j
		case unicode.IsLetter(c) || c == '_':
			j := i
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_') {
				j++
			}
			tokens = append(tokens, token{kind: tokIdent, text: strings.ToUpper(string(runes[i:j]))})
			i = j
		default:
			return nil, &FormulaError{Formula: formula, Message: "unexpected character " + strconv.QuoteRune(c)}
		}
	}
	return tokens, nil
}

// opNegate is the internal prefix-minus operator. It binds tighter than
// multiplication so "SQ * -2" parses as SQ * (-2).
const opNegate = "neg"

func precedence(op string) int {
	switch op {
	case opNegate:
		return 3
	case "*", "/":
		return 2
	default:
		return 1
	}
}

// toRPN is a plain shunting-yard pass. A minus in prefix position becomes the
// unary negate operator; a prefix plus is dropped.
func toRPN(formula string, tokens []token) ([]token, error) {
	var out, ops []token
	expectOperand := true
	for _, t := range tokens {
		switch t.kind {
		case tokNumber, tokIdent:
			if !expectOperand {
				return nil, &FormulaError{Formula: formula, Message: "missing operator"}
			}
			out = append(out, t)
			expectOperand = false
		case tokOp:
			if expectOperand {
				switch t.text {
				case "+":
					// no-op
				case "-":
					ops = append(ops, token{kind: tokOp, text: opNegate})
				default:
					return nil, &FormulaError{Formula: formula, Message: "operator " + t.text + " needs a left operand"}
				}
				continue
			}
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				if top.kind != tokOp || precedence(top.text) < precedence(t.text) {
					break
				}
				out = append(out, top)
				ops = ops[:len(ops)-1]
			}
			ops = append(ops, t)
			expectOperand = true
		case tokLParen:
			if !expectOperand {
				return nil, &FormulaError{Formula: formula, Message: "missing operator before ("}
			}
			ops = append(ops, t)
		case tokRParen:
			if expectOperand {
				return nil, &FormulaError{Formula: formula, Message: "missing operand before )"}
			}
			found := false
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				ops = ops[:len(ops)-1]
				if top.kind == tokLParen {
					found = true
					break
				}
				out = append(out, top)
			}
			if !found {
				return nil, &FormulaError{Formula: formula, Message: "unbalanced parentheses"}
			}
		}
	}
	if expectOperand {
		return nil, &FormulaError{Formula: formula, Message: "expression ends with an operator"}
	}
	for len(ops) > 0 {
		top := ops[len(ops)-1]
		ops = ops[:len(ops)-1]
		if top.kind == tokLParen {
			return nil, &FormulaError{Formula: formula, Message: "unbalanced parentheses"}
		}
		out = append(out, top)
	}
	return out, nil
}

func evalRPN(formula string, rpn []token, vars Variables) (float64, error) {
	stack := make([]float64, 0, len(rpn))
	for _, t := range rpn {
		switch t.kind {
		case tokNumber:
			stack = append(stack, t.num)
		case tokIdent:
			v, _ := vars.Lookup(t.text) // unknown variable evaluates to 0
			stack = append(stack, v)
		case tokOp:
			if t.text == opNegate {
				if len(stack) < 1 {
					return 0, &FormulaError{Formula: formula, Message: "malformed expression"}
				}
				stack[len(stack)-1] = -stack[len(stack)-1]
				continue
			}
			if len(stack) < 2 {
				return 0, &FormulaError{Formula: formula, Message: "malformed expression"}
			}
			b := stack[len(stack)-1]
			a := stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			var r float64
			switch t.text {
			case "+":
				r = a + b
			case "-":
				r = a - b
			case "*":
				r = a * b
			case "/":
				// A zero divisor degrades to 0 like a missing variable does;
				// a broken formula should never price a line item at +Inf.
				if b != 0 {
					r = a / b
				}
			}
			stack = append(stack, r)
		}
	}
	if len(stack) != 1 {
		return 0, &FormulaError{Formula: formula, Message: "malformed expression"}
	}
	return stack[0], nil
}
