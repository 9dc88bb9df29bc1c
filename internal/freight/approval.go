package freight

import (
	"errors"
	"strings"
)

var (
	ErrNothingSelected = errors.New("freight: no entry selected")
	ErrNoDecision      = errors.New("freight: selected entries have no decision")
)

// ApprovalSheet tracks a manager's per-row selection, decision and note over
// the fetched pending entries. The search query narrows what is visible
// without touching the fetched set.
type ApprovalSheet struct {
	entries   []Entry
	query     string
	selected  map[int]bool
	decisions map[int]Status
	notes     map[int]string
}

func NewApprovalSheet(entries []Entry) *ApprovalSheet {
	return &ApprovalSheet{
		entries:   entries,
		selected:  make(map[int]bool),
		decisions: make(map[int]Status),
		notes:     make(map[int]string),
	}
}

func (s *ApprovalSheet) Len() int { return len(s.entries) }

func (s *ApprovalSheet) Query() string { return s.query }

func (s *ApprovalSheet) SetQuery(q string) {
	s.query = q
}

// Visible returns the entries matching the current query.
func (s *ApprovalSheet) Visible() []Entry {
	return FilterEntries(s.entries, s.query)
}

func (s *ApprovalSheet) Toggle(row int) {
	if s.selected[row] {
		delete(s.selected, row)
		return
	}
	s.selected[row] = true
}

func (s *ApprovalSheet) IsSelected(row int) bool { return s.selected[row] }

// SetDecision records the verdict for row. An empty status clears it.
func (s *ApprovalSheet) SetDecision(row int, status Status) {
	if status == "" {
		delete(s.decisions, row)
		return
	}
	s.decisions[row] = status
}

func (s *ApprovalSheet) Decision(row int) Status { return s.decisions[row] }

func (s *ApprovalSheet) SetObservation(row int, note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		delete(s.notes, row)
		return
	}
	s.notes[row] = note
}

func (s *ApprovalSheet) Observation(row int) string { return s.notes[row] }

// Undecided counts the visible selected rows that still lack a decision.
func (s *ApprovalSheet) Undecided() int {
	n := 0
	for _, e := range s.Visible() {
		if s.selected[e.Row] && s.decisions[e.Row] == "" {
			n++
		}
	}
	return n
}

// Batch collects the visible rows that are both selected and decided.
// Selected rows without a decision are left out.
func (s *ApprovalSheet) Batch() ([]Decision, error) {
	var (
		anySelected bool
		batch       []Decision
	)
	for _, e := range s.Visible() {
		if !s.selected[e.Row] {
			continue
		}
		anySelected = true
		status := s.decisions[e.Row]
		if status == "" {
			continue
		}
		batch = append(batch, Decision{Row: e.Row, Status: status, Observation: s.notes[e.Row]})
	}
	if !anySelected {
		return nil, ErrNothingSelected
	}
	if len(batch) == 0 {
		return nil, ErrNoDecision
	}
	return batch, nil
}

// FilterEntries keeps entries whose displayed fields contain query,
// ignoring case. An empty query keeps everything.
func FilterEntries(entries []Entry, query string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return entries
	}
	var out []Entry
	for _, e := range entries {
		if strings.Contains(e.searchText(), q) {
			out = append(out, e)
		}
	}
	return out
}
