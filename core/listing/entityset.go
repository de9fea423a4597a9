package listing

// entitySet deduplicates entities by exact SourceURL in first-seen order. A
// later duplicate may fill in a name the first sighting lacked.
type entitySet struct {
	order   []string
	byURL   map[string]*Entity
	guessed map[string]bool
}

func newEntitySet() *entitySet {
	return &entitySet{byURL: make(map[string]*Entity), guessed: make(map[string]bool)}
}

func (s *entitySet) Add(sourceURL, name, slug string) {
	if existing, ok := s.byURL[sourceURL]; ok {
		if s.guessed[sourceURL] && name != "" {
			existing.Name = name
			s.guessed[sourceURL] = false
		}
		return
	}
	guessed := name == ""
	if guessed {
		name = slugName(slug)
	}
	s.byURL[sourceURL] = &Entity{Name: name, SourceURL: sourceURL}
	s.guessed[sourceURL] = guessed
	s.order = append(s.order, sourceURL)
}

func (s *entitySet) Len() int {
	return len(s.order)
}

func (s *entitySet) Entities() []Entity {
	out := make([]Entity, 0, len(s.order))
	for _, u := range s.order {
		out = append(out, *s.byURL[u])
	}
	return out
}
