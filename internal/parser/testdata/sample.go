package sample

type Store struct {
	items map[string]int
}

func NewStore() *Store {
	return &Store{items: make(map[string]int)}
}

func (s *Store) Put(key string, value int) {
	s.items[key] = value
}
