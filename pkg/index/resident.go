package index

import (
	"container/list"
	"sync"

	"github.com/papercomputeco/docqa/pkg/store"
)

// residentSet holds in-memory document state in least-recently-used order.
// Callers hold the document's keyed lock around every call for that id.
type residentSet struct {
	mu    sync.Mutex
	order *list.List
	items map[int64]*list.Element
}

type residentDoc struct {
	id  int64
	doc *store.Document
}

func newResidentSet() *residentSet {
	return &residentSet{
		order: list.New(),
		items: make(map[int64]*list.Element),
	}
}

func (r *residentSet) get(id int64) (*store.Document, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	el, ok := r.items[id]
	if !ok {
		return nil, false
	}
	r.order.MoveToFront(el)
	return el.Value.(*residentDoc).doc, true
}

// put stores doc for id and returns the state it replaced, if any.
func (r *residentSet) put(id int64, doc *store.Document) *store.Document {
	r.mu.Lock()
	defer r.mu.Unlock()

	if el, ok := r.items[id]; ok {
		rd := el.Value.(*residentDoc)
		prev := rd.doc
		rd.doc = doc
		r.order.MoveToFront(el)
		return prev
	}

	r.items[id] = r.order.PushFront(&residentDoc{id: id, doc: doc})
	return nil
}

func (r *residentSet) remove(id int64) *store.Document {
	r.mu.Lock()
	defer r.mu.Unlock()

	el, ok := r.items[id]
	if !ok {
		return nil
	}
	r.order.Remove(el)
	delete(r.items, id)
	return el.Value.(*residentDoc).doc
}

func (r *residentSet) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.order.Len()
}

// oldest returns resident ids from least to most recently used.
func (r *residentSet) oldest() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int64, 0, r.order.Len())
	for el := r.order.Back(); el != nil; el = el.Prev() {
		ids = append(ids, el.Value.(*residentDoc).id)
	}
	return ids
}
