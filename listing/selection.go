package listing

// Selection tracks checked rows of a list view. The zero value is empty and
// ready to use.
type Selection struct {
	selected map[string]struct{}
	last     string
}

// Toggle flips id. With extend set and a previous toggle still in order,
// every id between the two (inclusive, in display order) is selected
// instead.
func (s *Selection) Toggle(id string, order []string, extend bool) {
	if s.selected == nil {
		s.selected = make(map[string]struct{})
	}
	if extend && s.last != "" {
		from, to := indexOf(order, s.last), indexOf(order, id)
		if from >= 0 && to >= 0 {
			if from > to {
				from, to = to, from
			}
			for _, rid := range order[from : to+1] {
				s.selected[rid] = struct{}{}
			}
			s.last = id
			return
		}
	}
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
	} else {
		s.selected[id] = struct{}{}
	}
	s.last = id
}

func indexOf(order []string, id string) int {
	for i, v := range order {
		if v == id {
			return i
		}
	}
	return -1
}

// SelectAll replaces the selection with ids.
func (s *Selection) SelectAll(ids []string) {
	s.selected = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.selected[id] = struct{}{}
	}
	s.last = ""
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.selected = nil
	s.last = ""
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	_, ok := s.selected[id]
	return ok
}

// Len is the number of selected ids.
func (s *Selection) Len() int { return len(s.selected) }

// IDs returns the selected ids in display order. Selected ids missing from
// order are dropped.
func (s *Selection) IDs(order []string) []string {
	var out []string
	for _, id := range order {
		if s.Has(id) {
			out = append(out, id)
		}
	}
	return out
}
