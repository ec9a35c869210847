// Copyright 2026 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// platetext generates random number plate strings, following the
// grammar of Indian vehicle registration plates:
//
//	{REGION}{DELIM}{DIGITS}{DELIM}{LETTERS}{DELIM}{DIGITS}
//
// One delimiter is chosen per plate and used in every delimiter
// position. All randomness comes from the *rand.Rand passed in, so
// a fixed seed gives a fixed sequence of plates.
package platetext

import (
	"math/rand"
	"strings"
)

// FullFormProb is the probability that the canonical full form is
// chosen rather than one of the truncated variants.
const FullFormProb = 0.7

// Template characters used by Variant.Template
const (
	classRegion = 'R'
	classDelim  = '-'
	classDigit  = '9'
	classLetter = 'A'
)

// Variant is one of the plate templates. In a Template, R is the
// region code, - a delimiter, 9 a digit and A a letter.
type Variant struct {
	Name     string
	Template string
}

// Variants lists the recognised templates; the first is the
// canonical full form.
var Variants = []Variant{
	{"full", "R-99-AA-9999"},
	{"shortseries", "R-9-AA-9999"},
	{"oneletter", "R-99-A-9999"},
	{"shortnumber", "R-99-AA-999"},
}

// Tables holds the alphabets plates are built from. Repeated
// entries in Regions or Delims make those values more likely.
type Tables struct {
	Regions []string
	Digits  string
	Letters string
	Delims  string
}

// DefaultTables returns the standard tables. Populous regions are
// repeated to bias selection towards them, and the space delimiter
// is twice as likely as a full stop.
func DefaultTables() Tables {
	return Tables{
		Regions: []string{
			"AN", "AP", "AP", "AP", "AP", "AR", "AS", "BR", "CG", "CH",
			"DD", "DL", "DL", "DL", "DL", "DL", "DN", "GA", "GJ", "HR",
			"HP", "JH", "JK", "KA", "KL", "LD", "MH", "ML", "MN", "MP",
			"MP", "MP", "MP", "MZ", "NL", "OD", "PB", "PY", "RJ", "SK",
			"TN", "TR", "TS", "UK", "UP", "WB",
		},
		Digits:  "0123456789",
		Letters: "ABCDEFGHIJKLMNOPQRSTUVWXYZ",
		Delims:  "  .",
	}
}

// Generate returns a random plate using the default tables
func Generate(r *rand.Rand) string {
	return GenerateWith(DefaultTables(), r)
}

// GenerateWith returns a random plate built from t. Every field is
// drawn before the variant is chosen, so each plate consumes the same
// amount of randomness whichever variant wins.
func GenerateWith(t Tables, r *rand.Rand) string {
	region := t.Regions[r.Intn(len(t.Regions))]
	delim := t.Delims[r.Intn(len(t.Delims))]
	var digits [6]byte
	for i := range digits {
		digits[i] = t.Digits[r.Intn(len(t.Digits))]
	}
	var letters [2]byte
	for i := range letters {
		letters[i] = t.Letters[r.Intn(len(t.Letters))]
	}

	v := Variants[0]
	if r.Float64() >= FullFormProb {
		v = Variants[1+r.Intn(len(Variants)-1)]
	}

	return fill(v, region, delim, digits[:], letters[:])
}

// fill expands a variant template with the drawn values
func fill(v Variant, region string, delim byte, digits []byte, letters []byte) string {
	var b strings.Builder
	d, l := 0, 0
	for _, c := range v.Template {
		switch c {
		case classRegion:
			b.WriteString(region)
		case classDelim:
			b.WriteByte(delim)
		case classDigit:
			b.WriteByte(digits[d])
			d++
		case classLetter:
			b.WriteByte(letters[l])
			l++
		}
	}
	return b.String()
}

// Match reports which variant s conforms to under the default
// tables, if any.
func Match(s string) (Variant, bool) {
	return MatchWith(DefaultTables(), s)
}

// MatchWith reports which variant s conforms to under t. The region
// must be one of t.Regions and all delimiters must be the same
// character.
func MatchWith(t Tables, s string) (Variant, bool) {
	for _, v := range Variants {
		if matches(t, v, s) {
			return v, true
		}
	}
	return Variant{}, false
}

func matches(t Tables, v Variant, s string) bool {
	i := 0
	var delim byte
	for _, c := range v.Template {
		switch c {
		case classRegion:
			if i+2 > len(s) || !contains(t.Regions, s[i:i+2]) {
				return false
			}
			i += 2
		case classDelim:
			if i >= len(s) || strings.IndexByte(t.Delims, s[i]) == -1 {
				return false
			}
			if delim != 0 && s[i] != delim {
				return false
			}
			delim = s[i]
			i++
		case classDigit:
			if i >= len(s) || strings.IndexByte(t.Digits, s[i]) == -1 {
				return false
			}
			i++
		case classLetter:
			if i >= len(s) || strings.IndexByte(t.Letters, s[i]) == -1 {
				return false
			}
			i++
		}
	}
	return i == len(s)
}

func contains(l []string, s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}
