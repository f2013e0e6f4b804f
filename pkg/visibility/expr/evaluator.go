package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-dynui/pkg/visibility"
)

// Evaluator is a small, dependency-free predicate evaluator.
//
// Supported syntax:
// - truthiness: `newsletter`, `!newsletter`
// - equality: `city == "Anaheim"`, `plan != 'free'`, `enabled == true`
// - ordering: `count >= 6`, `guests < 3`
// - composition: `a == "x" && (b || !c)`
//
// Values are read from visibility.Context.Values (with dot-path traversal) and
// visibility.Context.Extras (via the `extras.` prefix). Rules are compiled on
// first use and cached.
type Evaluator struct {
	cache *programCache
}

func New() *Evaluator { return &Evaluator{cache: newProgramCache()} }

func (e *Evaluator) Eval(_ string, rule string, ctx visibility.Context) (bool, error) {
	var (
		program *Program
		err     error
	)
	if e != nil && e.cache != nil {
		program, err = e.cache.get(rule)
	} else {
		program, err = Compile(rule)
	}
	if err != nil {
		return false, err
	}
	return program.Eval(ctx)
}

// Program is a compiled predicate. A Program is immutable and safe for
// concurrent use.
type Program struct {
	source      string
	root        exprNode
	identifiers []string
}

// Compile parses rule into a Program. An empty rule compiles to a program
// that always evaluates to true.
func Compile(rule string) (*Program, error) {
	trimmed := strings.TrimSpace(rule)
	program := &Program{source: trimmed}
	if trimmed == "" {
		return program, nil
	}

	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	root, err := parseExpression(tokens)
	if err != nil {
		return nil, err
	}
	program.root = root
	program.identifiers = collectIdentifiers(tokens)
	return program, nil
}

// MustCompile is like Compile but panics on error. Intended for rules that
// are fixed at build time.
func MustCompile(rule string) *Program {
	program, err := Compile(rule)
	if err != nil {
		panic(err)
	}
	return program
}

// Source returns the trimmed rule text.
func (p *Program) Source() string {
	if p == nil {
		return ""
	}
	return p.source
}

// Identifiers lists the distinct value names the rule reads, in order of
// first appearance. `extras.` lookups are excluded.
func (p *Program) Identifiers() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.identifiers...)
}

// Eval runs the program against ctx.
func (p *Program) Eval(ctx visibility.Context) (bool, error) {
	if p == nil || p.root == nil {
		return true, nil
	}
	return p.root.eval(ctx)
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenLt
	tokenLte
	tokenGt
	tokenGte
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '(', ')', '!', '=', '&', '|', '<', '>':
		return true
	}
	return false
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	peek := func(offset int) byte {
		if i+offset >= len(input) {
			return 0
		}
		return input[i+offset]
	}
	emit := func(kind tokenKind, raw string) {
		tokens = append(tokens, token{kind: kind, raw: raw})
		i += len(raw)
	}

	for i < len(input) {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '(':
			emit(tokenLParen, "(")
		case ch == ')':
			emit(tokenRParen, ")")
		case ch == '!' && peek(1) == '=':
			emit(tokenNeq, "!=")
		case ch == '!':
			emit(tokenNot, "!")
		case ch == '=' && peek(1) == '=':
			emit(tokenEq, "==")
		case ch == '=':
			return nil, errors.New("expr: unexpected '='; use '=='")
		case ch == '<' && peek(1) == '=':
			emit(tokenLte, "<=")
		case ch == '<':
			emit(tokenLt, "<")
		case ch == '>' && peek(1) == '=':
			emit(tokenGte, ">=")
		case ch == '>':
			emit(tokenGt, ">")
		case ch == '&' && peek(1) == '&':
			emit(tokenAnd, "&&")
		case ch == '&':
			return nil, errors.New("expr: unexpected '&'; use '&&'")
		case ch == '|' && peek(1) == '|':
			emit(tokenOr, "||")
		case ch == '|':
			return nil, errors.New("expr: unexpected '|'; use '||'")
		case ch == '"' || ch == '\'':
			value, width, err := scanString(input[i:])
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokenString, raw: value})
			i += width
		default:
			start := i
			for i < len(input) && !isDelimiter(input[i]) {
				i++
			}
			tokens = append(tokens, classifyWord(input[start:i]))
		}
	}
	return tokens, nil
}

// scanString reads a quoted literal at the start of input and returns the
// unquoted value plus the number of bytes consumed.
func scanString(input string) (string, int, error) {
	quote := input[0]
	escaped := false
	for j := 1; j < len(input); j++ {
		c := input[j]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c != quote {
			continue
		}
		body := input[1:j]
		if quote == '\'' {
			// strconv only accepts single-rune literals in single quotes.
			body = strings.ReplaceAll(body, `\'`, `'`)
			body = strings.ReplaceAll(body, `"`, `\"`)
		}
		value, err := strconv.Unquote(`"` + body + `"`)
		if err != nil {
			return "", 0, fmt.Errorf("expr: invalid string literal: %w", err)
		}
		return value, j + 1, nil
	}
	return "", 0, errors.New("expr: unterminated string literal")
}

func classifyWord(raw string) token {
	switch strings.ToLower(raw) {
	case "true", "false":
		return token{kind: tokenBool, raw: strings.ToLower(raw)}
	case "null", "nil":
		return token{kind: tokenNull, raw: "null"}
	}
	if looksLikeNumber(raw) {
		return token{kind: tokenNumber, raw: raw}
	}
	return token{kind: tokenIdentifier, raw: raw}
}

func looksLikeNumber(raw string) bool {
	if raw == "" {
		return false
	}
	ch := raw[0]
	return (ch >= '0' && ch <= '9') || ch == '-' || ch == '+'
}

func collectIdentifiers(tokens []token) []string {
	var out []string
	seen := make(map[string]struct{})
	for i, tok := range tokens {
		if tok.kind != tokenIdentifier {
			continue
		}
		// Bare words on the right of a comparison are string literals.
		if i > 0 && isComparison(tokens[i-1].kind) {
			continue
		}
		if strings.HasPrefix(strings.ToLower(tok.raw), "extras.") {
			continue
		}
		if _, ok := seen[tok.raw]; ok {
			continue
		}
		seen[tok.raw] = struct{}{}
		out = append(out, tok.raw)
	}
	return out
}

func isComparison(kind tokenKind) bool {
	switch kind {
	case tokenEq, tokenNeq, tokenLt, tokenLte, tokenGt, tokenGte:
		return true
	}
	return false
}
