package filter

import (
	"fmt"
	"strings"
)

// predicate is the parsed first element of a filter test specification.
// Exactly one of junction and expr is set.
type predicate struct {
	junction string
	expr     string
	test     string
}

type predicateErrorKind int

const (
	predicateEmpty predicateErrorKind = iota
	predicateBadJunction
	predicateMissingExpr
	predicateBadArrowTest
	predicateDuplicateTest
)

type predicateError struct {
	kind predicateErrorKind
	pred string
}

func (e *predicateError) Error() string {
	var detail string
	switch e.kind {
	case predicateEmpty:
		detail = "predicate is empty"
	case predicateBadJunction:
		detail = "junction type must be a single word"
	case predicateMissingExpr:
		detail = "value expression is missing"
	case predicateBadArrowTest:
		detail = `"=>" must be followed by a single test name`
	case predicateDuplicateTest:
		detail = "test name is given twice"
	}
	return fmt.Sprintf("predicate %q has invalid syntax: %s", e.pred, detail)
}

// parsePredicate splits a predicate string. The grammar is
//
//	":" JUNCTION
//	EXPR [ "=>" TEST ]
//	EXPR [ TEST ]
//
// where JUNCTION and TEST are words optionally prefixed with "!". A
// trailing word separated from the expression by whitespace is taken as
// the test name.
func parsePredicate(s string) (predicate, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return predicate{}, &predicateError{kind: predicateEmpty, pred: s}
	}

	if rest, ok := strings.CutPrefix(trimmed, ":"); ok {
		rest = strings.TrimSpace(rest)
		if !isTestWord(rest) {
			return predicate{}, &predicateError{kind: predicateBadJunction, pred: s}
		}
		return predicate{junction: rest}, nil
	}

	if trimmed[0] == '=' {
		return predicate{}, &predicateError{kind: predicateMissingExpr, pred: s}
	}

	var p predicate
	expr := trimmed
	if left, right, ok := strings.Cut(trimmed, "=>"); ok {
		right = strings.TrimSpace(right)
		if !isTestWord(right) {
			return predicate{}, &predicateError{kind: predicateBadArrowTest, pred: s}
		}
		p.test = right
		expr = strings.TrimSpace(left)
	}

	if i := strings.LastIndexAny(expr, " \t\r\n"); i >= 0 {
		if word := expr[i+1:]; isTestWord(word) {
			if p.test != "" {
				return predicate{}, &predicateError{kind: predicateDuplicateTest, pred: s}
			}
			p.test = word
			expr = strings.TrimSpace(expr[:i])
		}
	}

	if expr == "" {
		return predicate{}, &predicateError{kind: predicateMissingExpr, pred: s}
	}
	p.expr = expr
	return p, nil
}

// isTestWord reports whether s is an optional "!" followed by one or more
// ASCII letters, digits or underscores.
func isTestWord(s string) bool {
	s = strings.TrimPrefix(s, "!")
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_') {
			return false
		}
	}
	return true
}
