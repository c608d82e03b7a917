package entity

import (
	"fmt"
	"reflect"
	"sort"
)

// ComponentStore is the type-erased view the Store keeps of every attached
// component storage, so destroying an entity can strip its components from
// all storages without knowing their value types.
type ComponentStore interface {
	ComponentType() reflect.Type
	Contains(ID) bool
	Discard(ID) bool
	Len() int
	Entities() []ID
}

// Store owns entity identity: creation, destruction, index recycling, tags
// and the parent/child hierarchy. Component values live in the attached
// ComponentStores; resources live elsewhere.
type Store struct {
	generations []uint32
	alive       []bool
	free        []uint32
	recycle     bool
	count       int

	pending map[ID]struct{}

	tags     map[string]map[ID]struct{}
	tagsByID map[ID]map[string]struct{}

	parents  map[ID]ID
	children map[ID][]ID

	stores map[reflect.Type]ComponentStore
}

// Option configures a Store.
type Option func(*Store)

// WithRecycling controls whether destroyed slot indices are reused. It is
// enabled by default; with recycling off indices grow monotonically.
func WithRecycling(enabled bool) Option {
	return func(s *Store) { s.recycle = enabled }
}

// WithCapacity pre-sizes the slot arrays.
func WithCapacity(n int) Option {
	return func(s *Store) {
		s.generations = make([]uint32, 0, n)
		s.alive = make([]bool, 0, n)
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		recycle:  true,
		pending:  make(map[ID]struct{}),
		tags:     make(map[string]map[ID]struct{}),
		tagsByID: make(map[ID]map[string]struct{}),
		parents:  make(map[ID]ID),
		children: make(map[ID][]ID),
		stores:   make(map[reflect.Type]ComponentStore),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create allocates a new entity. With recycling enabled a freed slot index
// is reused under an incremented generation; otherwise a fresh slot is
// appended.
func (s *Store) Create() ID {
	s.count++
	if s.recycle && len(s.free) > 0 {
		idx := s.free[len(s.free)-1]
		s.free = s.free[:len(s.free)-1]
		s.alive[idx] = true
		return ID{Index: idx, Generation: s.generations[idx]}
	}
	idx := uint32(len(s.generations))
	s.generations = append(s.generations, 1)
	s.alive = append(s.alive, true)
	return ID{Index: idx, Generation: 1}
}

// CreateBatch allocates n entities, equivalent to n sequential Creates.
func (s *Store) CreateBatch(n int) []ID {
	ids := make([]ID, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, s.Create())
	}
	return ids
}

// CreateWith allocates a new entity carrying the given tags.
func (s *Store) CreateWith(tags ...string) ID {
	id := s.Create()
	for _, tag := range tags {
		_ = s.Tag(id, tag)
	}
	return id
}

// Alive reports whether the handle refers to a live entity.
func (s *Store) Alive(id ID) bool {
	if id.IsZero() || int(id.Index) >= len(s.generations) {
		return false
	}
	return s.alive[id.Index] && s.generations[id.Index] == id.Generation
}

// Count returns the number of live entities.
func (s *Store) Count() int {
	return s.count
}

func (s *Store) check(id ID) error {
	if id.IsZero() || int(id.Index) >= len(s.generations) {
		return fmt.Errorf("%v: %w", id, ErrNotFound)
	}
	if s.generations[id.Index] != id.Generation {
		return fmt.Errorf("%v: %w", id, ErrStaleHandle)
	}
	if !s.alive[id.Index] {
		return fmt.Errorf("%v: %w", id, ErrNotFound)
	}
	return nil
}

// Destroy removes the entity immediately: its components are stripped from
// every attached storage, its tags are dropped, it is detached from its
// parent, and its own children are orphaned. The slot is recycled under a
// bumped generation so outstanding handles go stale, not dangling.
func (s *Store) Destroy(id ID) error {
	if err := s.check(id); err != nil {
		return err
	}

	for _, cs := range s.stores {
		cs.Discard(id)
	}

	for tag := range s.tagsByID[id] {
		if set := s.tags[tag]; set != nil {
			delete(set, id)
			if len(set) == 0 {
				delete(s.tags, tag)
			}
		}
	}
	delete(s.tagsByID, id)

	if parent, ok := s.parents[id]; ok {
		s.unlinkChild(parent, id)
		delete(s.parents, id)
	}
	for _, child := range s.children[id] {
		delete(s.parents, child)
	}
	delete(s.children, id)

	s.alive[id.Index] = false
	s.generations[id.Index]++
	if s.recycle {
		s.free = append(s.free, id.Index)
	}
	delete(s.pending, id)
	s.count--
	return nil
}

// DestroyDeferred queues the entity for removal at the next Flush, so a
// system can request destruction mid-tick without invalidating iterators
// held by other systems in the same tick.
func (s *Store) DestroyDeferred(id ID) error {
	if err := s.check(id); err != nil {
		return err
	}
	s.pending[id] = struct{}{}
	return nil
}

// Flush destroys every entity queued by DestroyDeferred. The scheduler
// calls it at the end of each frame.
func (s *Store) Flush() {
	for id := range s.pending {
		if s.Alive(id) {
			_ = s.Destroy(id)
		}
	}
	clear(s.pending)
}

// DestroyRecursive destroys the subtree rooted at id: children are
// collected first, then destroyed depth-first. A visited guard keeps the
// collection from looping even if the hierarchy were somehow corrupted.
func (s *Store) DestroyRecursive(id ID) error {
	if err := s.check(id); err != nil {
		return err
	}

	var subtree []ID
	visited := map[ID]struct{}{}
	stack := []ID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[cur]; seen {
			continue
		}
		visited[cur] = struct{}{}
		subtree = append(subtree, cur)
		stack = append(stack, s.children[cur]...)
	}

	// Children before parents.
	for i := len(subtree) - 1; i >= 0; i-- {
		if s.Alive(subtree[i]) {
			_ = s.Destroy(subtree[i])
		}
	}
	return nil
}

// Clear destroys all live entities.
func (s *Store) Clear() {
	for idx := range s.alive {
		if s.alive[idx] {
			_ = s.Destroy(ID{Index: uint32(idx), Generation: s.generations[idx]})
		}
	}
}

// Tag attaches a named tag to the entity.
func (s *Store) Tag(id ID, tag string) error {
	if err := s.check(id); err != nil {
		return err
	}
	if s.tags[tag] == nil {
		s.tags[tag] = make(map[ID]struct{})
	}
	s.tags[tag][id] = struct{}{}
	if s.tagsByID[id] == nil {
		s.tagsByID[id] = make(map[string]struct{})
	}
	s.tagsByID[id][tag] = struct{}{}
	return nil
}

// Untag removes a tag from the entity. Removing an absent tag is a no-op.
func (s *Store) Untag(id ID, tag string) error {
	if err := s.check(id); err != nil {
		return err
	}
	if set := s.tags[tag]; set != nil {
		delete(set, id)
		if len(set) == 0 {
			delete(s.tags, tag)
		}
	}
	if set := s.tagsByID[id]; set != nil {
		delete(set, tag)
	}
	return nil
}

// HasTag reports whether the live entity carries the tag.
func (s *Store) HasTag(id ID, tag string) bool {
	if !s.Alive(id) {
		return false
	}
	_, ok := s.tagsByID[id][tag]
	return ok
}

// WithTag returns the current set of entities carrying the tag, ordered by
// slot index for determinism.
func (s *Store) WithTag(tag string) []ID {
	set := s.tags[tag]
	out := make([]ID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// SetParent links child under parent, keeping both directions of the
// relation consistent. A zero parent detaches the child. Edits that would
// make an entity its own ancestor are rejected with ErrWouldCycle.
func (s *Store) SetParent(child, parent ID) error {
	if err := s.check(child); err != nil {
		return err
	}
	if parent.IsZero() {
		if old, ok := s.parents[child]; ok {
			s.unlinkChild(old, child)
			delete(s.parents, child)
		}
		return nil
	}
	if err := s.check(parent); err != nil {
		return err
	}
	for cur := parent; !cur.IsZero(); cur = s.parents[cur] {
		if cur == child {
			return fmt.Errorf("%v under %v: %w", child, parent, ErrWouldCycle)
		}
	}
	if old, ok := s.parents[child]; ok {
		s.unlinkChild(old, child)
	}
	s.parents[child] = parent
	s.children[parent] = append(s.children[parent], child)
	return nil
}

// Parent returns the entity's parent, if any.
func (s *Store) Parent(id ID) (ID, bool) {
	parent, ok := s.parents[id]
	return parent, ok
}

// Children returns the entity's children in attachment order.
func (s *Store) Children(id ID) []ID {
	kids := s.children[id]
	out := make([]ID, len(kids))
	copy(out, kids)
	return out
}

func (s *Store) unlinkChild(parent, child ID) {
	kids := s.children[parent]
	for i, c := range kids {
		if c == child {
			s.children[parent] = append(kids[:i], kids[i+1:]...)
			break
		}
	}
	if len(s.children[parent]) == 0 {
		delete(s.children, parent)
	}
}

// AttachStorage registers a component storage with the store so destroyed
// entities are stripped from it. Attaching a second storage for the same
// component type replaces the first.
func (s *Store) AttachStorage(cs ComponentStore) {
	s.stores[cs.ComponentType()] = cs
}

// StorageOf returns the attached storage for a component type.
func (s *Store) StorageOf(t reflect.Type) (ComponentStore, bool) {
	cs, ok := s.stores[t]
	return cs, ok
}
