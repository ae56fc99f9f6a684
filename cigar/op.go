// Package cigar implements the operation/mapping data model (C2) and the
// graph-CIGAR wire codec and human-readable renderer (C9).
//
// One divergence from SAM is preserved deliberately: M here means exact
// match, not match-or-mismatch, matching the wire format this system's
// upstream pipelines already consume (see §4.2, §9 open questions).
package cigar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Kind is one of the six operation kinds in §3.
type Kind int8

const (
	Match Kind = iota
	Mismatch
	Insertion
	Deletion
	SoftClip
	Missing
)

// Code returns the single-character CIGAR code for k.
func (k Kind) Code() byte {
	switch k {
	case Match:
		return 'M'
	case Mismatch:
		return 'X'
	case Insertion:
		return 'I'
	case Deletion:
		return 'D'
	case SoftClip:
		return 'S'
	case Missing:
		return 'N'
	default:
		return '?'
	}
}

func (k Kind) String() string { return string(k.Code()) }

// ConsumesQuery reports whether one unit of k consumes a query base.
func (k Kind) ConsumesQuery() bool {
	switch k {
	case Match, Mismatch, Insertion, SoftClip:
		return true
	default:
		return false
	}
}

// ConsumesRef reports whether one unit of k consumes a reference (node)
// base.
func (k Kind) ConsumesRef() bool {
	switch k {
	case Match, Mismatch, Deletion, Missing:
		return true
	default:
		return false
	}
}

func kindFromCode(c byte) (Kind, bool) {
	switch c {
	case 'M':
		return Match, true
	case 'X':
		return Mismatch, true
	case 'I':
		return Insertion, true
	case 'D':
		return Deletion, true
	case 'S':
		return SoftClip, true
	case 'N':
		return Missing, true
	default:
		return 0, false
	}
}

// Op is a single CIGAR run: a kind and a length >= 1.
type Op struct {
	Kind   Kind
	Length int32
}

func (o Op) String() string { return fmt.Sprintf("%d%c", o.Length, o.Kind.Code()) }

// ErrMalformedCigar is wrapped by every parse failure; callers can match on
// it with errors.Cause (the pkg/errors version in go.mod predates Unwrap, so
// the standard library's errors.Is does not see through the wrapping). Per
// §4.9 this is always a
// *parse* error: the offending read is dropped, not a fatal condition.
var ErrMalformedCigar = errors.New("malformed cigar")

// ParseOps parses a run of "<len><code>" tokens, e.g. "4M1I3M", into Ops.
// It fails with an error wrapping ErrMalformedCigar and containing the
// original string whenever a digit run isn't followed by a known code.
func ParseOps(s string) ([]Op, error) {
	if s == "" {
		return nil, nil
	}
	var ops []Op
	i := 0
	for i < len(s) {
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == start {
			return nil, malformed(s)
		}
		length, err := strconv.ParseInt(s[start:i], 10, 32)
		if err != nil || length <= 0 {
			return nil, malformed(s)
		}
		if i == len(s) {
			return nil, malformed(s)
		}
		kind, ok := kindFromCode(s[i])
		if !ok {
			return nil, malformed(s)
		}
		i++
		ops = append(ops, Op{Kind: kind, Length: int32(length)})
	}
	return ops, nil
}

func malformed(s string) error {
	return errors.Wrapf(ErrMalformedCigar, "%q", s)
}

// RenderOps is the inverse of ParseOps.
func RenderOps(ops []Op) string {
	var b strings.Builder
	for _, op := range ops {
		b.WriteString(op.String())
	}
	return b.String()
}

// QuerySpan returns the total number of query bases consumed by ops.
func QuerySpan(ops []Op) int32 {
	var n int32
	for _, op := range ops {
		if op.Kind.ConsumesQuery() {
			n += op.Length
		}
	}
	return n
}

// RefSpan returns the total number of reference (node) bases consumed by
// ops.
func RefSpan(ops []Op) int32 {
	var n int32
	for _, op := range ops {
		if op.Kind.ConsumesRef() {
			n += op.Length
		}
	}
	return n
}

// SoftClipLen returns the total length of soft-clip runs in ops.
func SoftClipLen(ops []Op) int32 {
	var n int32
	for _, op := range ops {
		if op.Kind == SoftClip {
			n += op.Length
		}
	}
	return n
}
