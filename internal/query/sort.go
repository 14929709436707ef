package query

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/nhle/mailshelf/internal/model"
)

// Field names a sortable message column.
type Field string

const (
	FieldSubject     Field = "subject"
	FieldSender      Field = "sender"
	FieldDate        Field = "date"
	FieldAttachments Field = "attachments"
	FieldSize        Field = "size"
)

// Fields lists the sortable fields in the order the UI cycles through them.
var Fields = []Field{FieldDate, FieldSubject, FieldSender, FieldAttachments, FieldSize}

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Fields, f) {
		return f, nil
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

// Direction is a sort order.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Sort returns a sorted copy of msgs. The sort is stable, so records that
// compare equal keep their relative order, and msgs itself is not modified.
func Sort(msgs []model.Message, field Field, dir Direction) []model.Message {
	out := slices.Clone(msgs)
	compare := comparator(field)
	slices.SortStableFunc(out, func(a, b model.Message) int {
		c := compare(a, b)
		if dir == Descending {
			return -c
		}
		return c
	})
	return out
}

func comparator(field Field) func(a, b model.Message) int {
	switch field {
	case FieldSender:
		return func(a, b model.Message) int { return cmp.Compare(a.Sender, b.Sender) }
	case FieldDate:
		return func(a, b model.Message) int { return a.Date.Compare(b.Date) }
	case FieldAttachments:
		return func(a, b model.Message) int { return cmp.Compare(a.NumAttachments(), b.NumAttachments()) }
	case FieldSize:
		return func(a, b model.Message) int { return cmp.Compare(a.TotalAttachmentBytes(), b.TotalAttachmentBytes()) }
	default:
		return func(a, b model.Message) int { return cmp.Compare(a.Subject, b.Subject) }
	}
}

// Sorter remembers the last column sorted, like clicking a column header:
// the same field again flips the direction, a new field starts ascending.
type Sorter struct {
	field Field
	dir   Direction
}

// NewSorter returns a sorter with an initial field and direction.
func NewSorter(field Field, dir Direction) *Sorter {
	return &Sorter{field: field, dir: dir}
}

// Toggle selects field and returns the resulting direction.
func (s *Sorter) Toggle(field Field) Direction {
	if s.field == field {
		if s.dir == Ascending {
			s.dir = Descending
		} else {
			s.dir = Ascending
		}
		return s.dir
	}
	s.field = field
	s.dir = Ascending
	return s.dir
}

// Field returns the active field, empty before the first Toggle.
func (s *Sorter) Field() Field { return s.field }

// Direction returns the active direction.
func (s *Sorter) Direction() Direction { return s.dir }

// Apply sorts msgs by the active field. With no field set it returns msgs
// unchanged.
func (s *Sorter) Apply(msgs []model.Message) []model.Message {
	if s.field == "" {
		return msgs
	}
	return Sort(msgs, s.field, s.dir)
}

// Label renders the active sort for status lines, e.g. "date ↓".
func (s *Sorter) Label() string {
	if s.field == "" {
		return "unsorted"
	}
	arrow := "↑"
	if s.dir == Descending {
		arrow = "↓"
	}
	return string(s.field) + " " + arrow
}
