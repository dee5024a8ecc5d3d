// Package segment models the contiguous time ranges a video's timeline is divided into.
//
// A segment carries its gate state as declared by the backend; the ordered
// sequence for a video is fetched once per registration and stays immutable
// for the lifetime of that session.
package segment

import (
	"github.com/samber/mo"
	"golang.org/x/exp/slices"
)

// EndEpsilon absorbs floating-point and update-granularity jitter when
// deciding whether a position still belongs to a segment.
const EndEpsilon = 0.05

// Segment is one contiguous time range of a video with an associated quiz gate.
type Segment struct {
	ID           string
	Index        int
	TopicTitle   string
	ShortSummary string
	Keywords     []string
	StartSeconds float64
	EndSeconds   float64
	Locked       bool
}

// Sort orders segments by their ordinal index in place.
func Sort(segments []*Segment) {
	slices.SortFunc(segments, func(a, b *Segment) int {
		return a.Index - b.Index
	})
}

// Containing returns the first segment (in index order) whose range contains
// the given time, treating the exclusive end with EndEpsilon tolerance.
func Containing(segments []*Segment, t float64) mo.Option[*Segment] {
	for _, s := range segments {
		if t >= s.StartSeconds && t < s.EndSeconds+EndEpsilon {
			return mo.Some(s)
		}
	}
	return mo.None[*Segment]()
}

// ByIndex returns the segment with the given ordinal index.
func ByIndex(segments []*Segment, index int) mo.Option[*Segment] {
	for _, s := range segments {
		if s.Index == index {
			return mo.Some(s)
		}
	}
	return mo.None[*Segment]()
}

// LastIndex returns the highest ordinal index, or -1 for an empty sequence.
func LastIndex(segments []*Segment) int {
	if len(segments) == 0 {
		return -1
	}
	return segments[len(segments)-1].Index
}
