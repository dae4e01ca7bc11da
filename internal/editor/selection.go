package editor

// Selection is the set of selected point ids. Insertion order is kept so that
// "first selected" is deterministic when an anchor has to be picked without a
// direct hit. The selection survives mode transitions and is only cleared
// explicitly or on diagram (re)load.
type Selection struct {
	ids   map[string]int
	order []string
}

func NewSelection() *Selection {
	return &Selection{ids: make(map[string]int)}
}

func (s *Selection) Len() int { return len(s.ids) }

func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Add(id string) {
	if s.Has(id) {
		return
	}
	s.ids[id] = len(s.order)
	s.order = append(s.order, id)
}

func (s *Selection) Remove(id string) {
	if !s.Has(id) {
		return
	}
	delete(s.ids, id)
	order := s.order[:0]
	for _, existing := range s.order {
		if existing != id {
			order = append(order, existing)
		}
	}
	s.order = order
	for i, existing := range s.order {
		s.ids[existing] = i
	}
}

func (s *Selection) Toggle(id string) {
	if s.Has(id) {
		s.Remove(id)
	} else {
		s.Add(id)
	}
}

func (s *Selection) Clear() {
	s.ids = make(map[string]int)
	s.order = s.order[:0]
}

// First returns the earliest-selected id, or "" when empty.
func (s *Selection) First() string {
	if len(s.order) == 0 {
		return ""
	}
	return s.order[0]
}

// IDs returns the selected ids in insertion order. The returned slice is a
// copy.
func (s *Selection) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
