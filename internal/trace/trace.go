// Package trace records how a roll was produced as a sequence of styled text segments.
package trace

import "strings"

// Style tells a presenter how to draw a segment.
type Style uint8

const (
	Plain Style = iota
	Struck
	Colored
)

func (s Style) String() string {
	switch s {
	case Struck:
		return "struck"
	case Colored:
		return "colored"
	default:
		return "plain"
	}
}

// Segment is a run of text with a single style.
type Segment struct {
	Text  string `json:"text"`
	Style Style  `json:"style"`
}

// Trace is an ordered, left-to-right list of segments.
type Trace []Segment

// Of builds a single plain segment trace.
func Of(text string) Trace { return Trace{{Text: text}} }

func (t *Trace) push(text string, style Style) {
	if text == "" {
		return
	}
	*t = append(*t, Segment{Text: text, Style: style})
}

func (t *Trace) Append(text string)        { t.push(text, Plain) }
func (t *Trace) AppendStruck(text string)  { t.push(text, Struck) }
func (t *Trace) AppendColored(text string) { t.push(text, Colored) }

// Prepend inserts a plain segment at the front.
func (t *Trace) Prepend(text string) {
	if text == "" {
		return
	}
	out := make(Trace, 0, len(*t)+1)
	out = append(out, Segment{Text: text})
	*t = append(out, *t...)
}

// Extend appends every segment of other to t.
func (t *Trace) Extend(other Trace) { *t = append(*t, other...) }

// Concat returns a fresh trace holding t followed by other.
func (t Trace) Concat(other Trace) Trace {
	out := make(Trace, 0, len(t)+len(other))
	out = append(out, t...)
	return append(out, other...)
}

// StrikeAll returns a copy where every segment is struck.
func (t Trace) StrikeAll() Trace {
	out := make(Trace, len(t))
	for i, s := range t {
		out[i] = Segment{Text: s.Text, Style: Struck}
	}
	return out
}

func (t Trace) Len() int { return len(t) }

// String joins the segment texts without styling.
func (t Trace) String() string {
	var b strings.Builder
	for _, s := range t {
		b.WriteString(s.Text)
	}
	return b.String()
}
