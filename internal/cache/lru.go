package cache

import "container/list"

// recencyList tracks access order for eviction: front is most recently used,
// back is the eviction candidate. It is not safe for concurrent use; the
// owning cache serializes access under its lock. Invariant: the set of IDs
// here always equals the key set of the cache's record map.
type recencyList struct {
	order *list.List
	elems map[string]*list.Element
}

func newRecencyList() *recencyList {
	return &recencyList{
		order: list.New(),
		elems: make(map[string]*list.Element),
	}
}

// Touch marks id as most recently used, inserting it if absent.
func (r *recencyList) Touch(id string) {
	if elem, ok := r.elems[id]; ok {
		r.order.MoveToFront(elem)
		return
	}
	r.elems[id] = r.order.PushFront(id)
}

// Remove drops id from the list. Removing an absent id is a no-op.
func (r *recencyList) Remove(id string) {
	if elem, ok := r.elems[id]; ok {
		r.order.Remove(elem)
		delete(r.elems, id)
	}
}

// Oldest returns the least recently used id, or false when empty.
func (r *recencyList) Oldest() (string, bool) {
	back := r.order.Back()
	if back == nil {
		return "", false
	}
	return back.Value.(string), true
}

// Len returns the number of tracked ids.
func (r *recencyList) Len() int {
	return r.order.Len()
}
