// Package grading compares learner answers against expected answers.
// Free-text grading is inherently fuzzy, so the comparison is a pluggable
// strategy: the engine takes any Grader and the default is a normalized
// containment-or-exact match.
package grading

import "strings"

// Grader decides whether a learner's answer matches the expected answer.
// Implementations must be stateless and safe for concurrent use.
type Grader interface {
	// Grade returns true when actual is an acceptable match for expected.
	Grade(expected, actual string) bool
}

// minContainmentLen guards containment matching against trivially short
// strings ("a" would otherwise match almost anything).
const minContainmentLen = 3

// ContainsGrader is the default strategy: case- and whitespace-insensitive,
// accepting an exact match or containment in either direction.
type ContainsGrader struct{}

func (ContainsGrader) Grade(expected, actual string) bool {
	e := Normalize(expected)
	a := Normalize(actual)
	if e == "" || a == "" {
		return false
	}
	if e == a {
		return true
	}
	if len(a) >= minContainmentLen && strings.Contains(e, a) {
		return true
	}
	if len(e) >= minContainmentLen && strings.Contains(a, e) {
		return true
	}
	return false
}

// ExactGrader accepts only a normalized exact match.
type ExactGrader struct{}

func (ExactGrader) Grade(expected, actual string) bool {
	e := Normalize(expected)
	if e == "" {
		return false
	}
	return e == Normalize(actual)
}

// Normalize lowercases, trims, and collapses internal whitespace so that
// formatting differences never fail a grade.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
