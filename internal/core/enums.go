package core

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Gender is the stored gender code. Only M and F are valid.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// Status is the stored membership status.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Neighborhoods is the fixed allow-list of neighborhood values.
// Anything else is dropped before persistence.
var Neighborhoods = []string{
	"أكدال",
	"دار دبيبغ",
	"الأدارسة",
	"الدكارات",
	"سيدي ابراهيم",
	"طارق",
}

// Parsed is the tagged result of parsing a free-form token into an enum.
// Call sites decide whether an unrecognized token is passed through or dropped.
type Parsed[T any] struct {
	value T
	raw   string
	ok    bool
}

func recognized[T any](v T, raw string) Parsed[T] {
	return Parsed[T]{value: v, raw: raw, ok: true}
}

func unrecognized[T any](raw string) Parsed[T] {
	return Parsed[T]{raw: raw}
}

// Recognized returns the canonical value and true when the token matched.
func (p Parsed[T]) Recognized() (T, bool) { return p.value, p.ok }

// Raw returns the original, unmodified input.
func (p Parsed[T]) Raw() string { return p.raw }

var (
	femaleTokens = tokenSet("أنثى", "أنثي", "انثى", "female", "f")
	maleTokens   = tokenSet("ذكر", "ذكرى", "male", "m")

	activeTokens   = tokenSet("نشط", "نشط️", "active")
	inactiveTokens = tokenSet("غير نشط", "غير_نشط", "غير-نشط", "inactive")

	neighborhoodSet = tokenSet(Neighborhoods...)
)

func tokenSet(tokens ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[norm.NFC.String(t)] = struct{}{}
	}
	return set
}

// tokenKey folds a token for synonym lookup: NFC, trimmed, lowercased.
func tokenKey(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

// ParseGender maps Arabic and English gender labels to M or F.
func ParseGender(s string) Parsed[Gender] {
	key := tokenKey(s)
	if _, ok := femaleTokens[key]; ok {
		return recognized(GenderFemale, s)
	}
	if _, ok := maleTokens[key]; ok {
		return recognized(GenderMale, s)
	}
	return unrecognized[Gender](s)
}

// ParseStatus maps Arabic and English status labels to active or inactive.
func ParseStatus(s string) Parsed[Status] {
	key := tokenKey(s)
	if _, ok := activeTokens[key]; ok {
		return recognized(StatusActive, s)
	}
	if _, ok := inactiveTokens[key]; ok {
		return recognized(StatusInactive, s)
	}
	return unrecognized[Status](s)
}

// ParseNeighborhood accepts only values from the Neighborhoods allow-list.
func ParseNeighborhood(s string) Parsed[string] {
	v := norm.NFC.String(strings.TrimSpace(s))
	if _, ok := neighborhoodSet[v]; ok && v != "" {
		return recognized(v, s)
	}
	return unrecognized[string](s)
}

func validGender(g Gender) bool {
	return g == GenderMale || g == GenderFemale
}

func validStatus(s Status) bool {
	return s == StatusActive || s == StatusInactive
}

func validNeighborhood(s string) bool {
	_, ok := neighborhoodSet[s]
	return ok
}
