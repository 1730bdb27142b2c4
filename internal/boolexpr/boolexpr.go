// Package boolexpr evaluates boolean retrieval queries (AND, OR, NOT,
// parentheses) against an index it only sees through two primitives: the
// document set of a term and the complement of a set. This keeps the
// evaluator fully decoupled from storage.
package boolexpr

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/shirabe/internal/models"
)

// Index is the narrow contract the evaluator requires.
type Index interface {
	// TermDocuments returns the set of documents containing term. Unknown
	// terms yield the empty set, never an error.
	TermDocuments(ctx context.Context, term string) (models.DocSet, error)

	// Complement returns all indexed documents not in docs, computed against
	// the full indexed document population.
	Complement(ctx context.Context, docs models.DocSet) (models.DocSet, error)
}

// Evaluator parses and evaluates boolean query strings.
type Evaluator struct {
	index Index
	// normalize maps a query word onto the term vocabulary used for
	// documents. An empty result drops the word. nil means identity.
	normalize func(string) string
}

// NewEvaluator returns an evaluator over index. normalize is applied to every
// non-operator word so queries share the tokenization pipeline of documents.
func NewEvaluator(index Index, normalize func(string) string) *Evaluator {
	return &Evaluator{index: index, normalize: normalize}
}

// EvalQuery evaluates a boolean query and returns the matching document set.
// Operator precedence is NOT > AND > OR; parentheses group. Malformed syntax
// returns an error.
func (e *Evaluator) EvalQuery(ctx context.Context, query string) (models.DocSet, error) {
	tokens, err := e.lex(query)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty boolean query")
	}
	p := &parser{eval: e, tokens: tokens}
	result, err := p.parseOr(ctx)
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, fmt.Errorf("unexpected token %q", p.peek().text)
	}
	return result, nil
}

type tokenKind int

const (
	tokTerm tokenKind = iota
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
}

// lex splits the query on whitespace and parentheses. Operator words are
// matched case-insensitively before normalization; everything else is
// normalized into a term.
func (e *Evaluator) lex(query string) ([]token, error) {
	var tokens []token
	var word strings.Builder
	flush := func() {
		if word.Len() == 0 {
			return
		}
		w := word.String()
		word.Reset()
		switch strings.ToUpper(w) {
		case "AND":
			tokens = append(tokens, token{kind: tokAnd, text: w})
		case "OR":
			tokens = append(tokens, token{kind: tokOr, text: w})
		case "NOT":
			tokens = append(tokens, token{kind: tokNot, text: w})
		default:
			term := w
			if e.normalize != nil {
				term = e.normalize(w)
			}
			if term != "" {
				tokens = append(tokens, token{kind: tokTerm, text: term})
			}
		}
	}
	for _, r := range query {
		switch {
		case r == '(':
			flush()
			tokens = append(tokens, token{kind: tokLParen, text: "("})
		case r == ')':
			flush()
			tokens = append(tokens, token{kind: tokRParen, text: ")"})
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			word.WriteRune(r)
		}
	}
	flush()
	return tokens, nil
}

type parser struct {
	eval   *Evaluator
	tokens []token
	pos    int
}

func (p *parser) done() bool { return p.pos >= len(p.tokens) }

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) accept(kind tokenKind) bool {
	if !p.done() && p.tokens[p.pos].kind == kind {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseOr(ctx context.Context) (models.DocSet, error) {
	left, err := p.parseAnd(ctx)
	if err != nil {
		return nil, err
	}
	for p.accept(tokOr) {
		right, err := p.parseAnd(ctx)
		if err != nil {
			return nil, err
		}
		left = left.Union(right)
	}
	return left, nil
}

func (p *parser) parseAnd(ctx context.Context) (models.DocSet, error) {
	left, err := p.parseNot(ctx)
	if err != nil {
		return nil, err
	}
	for p.accept(tokAnd) {
		right, err := p.parseNot(ctx)
		if err != nil {
			return nil, err
		}
		left = left.Intersect(right)
	}
	return left, nil
}

func (p *parser) parseNot(ctx context.Context) (models.DocSet, error) {
	if p.accept(tokNot) {
		operand, err := p.parseNot(ctx)
		if err != nil {
			return nil, err
		}
		return p.eval.index.Complement(ctx, operand)
	}
	return p.parsePrimary(ctx)
}

func (p *parser) parsePrimary(ctx context.Context) (models.DocSet, error) {
	if p.done() {
		return nil, fmt.Errorf("unexpected end of query")
	}
	if p.accept(tokLParen) {
		inner, err := p.parseOr(ctx)
		if err != nil {
			return nil, err
		}
		if !p.accept(tokRParen) {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		return inner, nil
	}
	tok := p.peek()
	if tok.kind != tokTerm {
		return nil, fmt.Errorf("unexpected token %q", tok.text)
	}
	p.pos++
	return p.eval.index.TermDocuments(ctx, tok.text)
}
