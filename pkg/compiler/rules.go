package compiler

import "github.com/kristofer/vela/pkg/scanner"

// precedence orders binary operators from loosest to tightest binding,
// mirroring clox's single enum used both to decide when parsePrecedence
// should stop consuming infix operators and to compute "precedence + 1"
// for left-associative operators.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

// parseFn is either a prefix or infix parse action. canAssign tells an
// infix/prefix handler for a name expression whether `=` may follow it
// to produce an assignment, threaded down from parsePrecedence rather
// than recomputed, since by the time an identifier's handler runs the
// surrounding precedence context has already been decided.
type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[scanner.TokenType]parseRule

func init() {
	rules = map[scanner.TokenType]parseRule{
		scanner.TokenLeftParen:    {(*Compiler).grouping, (*Compiler).call, precCall},
		scanner.TokenRightParen:   {nil, nil, precNone},
		scanner.TokenLeftBrace:    {nil, nil, precNone},
		scanner.TokenRightBrace:   {nil, nil, precNone},
		scanner.TokenComma:        {nil, nil, precNone},
		scanner.TokenDot:          {nil, (*Compiler).dot, precCall},
		scanner.TokenMinus:        {(*Compiler).unary, (*Compiler).binary, precTerm},
		scanner.TokenPlus:         {nil, (*Compiler).binary, precTerm},
		scanner.TokenSemicolon:    {nil, nil, precNone},
		scanner.TokenSlash:        {nil, (*Compiler).binary, precFactor},
		scanner.TokenStar:         {nil, (*Compiler).binary, precFactor},
		scanner.TokenBang:         {(*Compiler).unary, nil, precNone},
		scanner.TokenBangEqual:    {nil, (*Compiler).binary, precEquality},
		scanner.TokenEqual:        {nil, nil, precNone},
		scanner.TokenEqualEqual:   {nil, (*Compiler).binary, precEquality},
		scanner.TokenGreater:      {nil, (*Compiler).binary, precComparison},
		scanner.TokenGreaterEqual: {nil, (*Compiler).binary, precComparison},
		scanner.TokenLess:         {nil, (*Compiler).binary, precComparison},
		scanner.TokenLessEqual:    {nil, (*Compiler).binary, precComparison},
		scanner.TokenIdentifier:   {(*Compiler).variable, nil, precNone},
		scanner.TokenString:       {(*Compiler).string, nil, precNone},
		scanner.TokenNumber:       {(*Compiler).number, nil, precNone},
		scanner.TokenAnd:          {nil, (*Compiler).and, precAnd},
		scanner.TokenClass:        {nil, nil, precNone},
		scanner.TokenElse:         {nil, nil, precNone},
		scanner.TokenFalse:        {(*Compiler).literal, nil, precNone},
		scanner.TokenFor:          {nil, nil, precNone},
		scanner.TokenFun:          {nil, nil, precNone},
		scanner.TokenIf:           {nil, nil, precNone},
		scanner.TokenNil:          {(*Compiler).literal, nil, precNone},
		scanner.TokenOr:           {nil, (*Compiler).or, precOr},
		scanner.TokenPrint:        {nil, nil, precNone},
		scanner.TokenReturn:       {nil, nil, precNone},
		scanner.TokenSuper:        {(*Compiler).super, nil, precNone},
		scanner.TokenThis:         {(*Compiler).this, nil, precNone},
		scanner.TokenTrue:         {(*Compiler).literal, nil, precNone},
		scanner.TokenVar:          {nil, nil, precNone},
		scanner.TokenWhile:        {nil, nil, precNone},
		scanner.TokenError:        {nil, nil, precNone},
		scanner.TokenEOF:          {nil, nil, precNone},
	}
}

func getRule(t scanner.TokenType) parseRule {
	if r, ok := rules[t]; ok {
		return r
	}
	return parseRule{nil, nil, precNone}
}
