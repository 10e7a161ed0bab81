// Package overlay keeps each user's locally visible booking list: confirmed
// records read from the store plus optimistic pending ones that have not been
// read back yet.
package overlay

import (
	"sort"
	"staybook/pkg/model"
	"sync"
	"time"
)

type Policy int

const (
	// DropMatched hides a pending record once a confirmed one shares its (hotel_id, date).
	DropMatched Policy = iota
	// ReplaceAll discards every pending record.
	ReplaceAll
)

func (p Policy) String() string {
	if p == ReplaceAll {
		return "replace_all"
	}
	return "drop_matched"
}

// Merge returns pending (newest first) followed by confirmed in key order.
// Entries sharing a key appear once, first occurrence wins.
func Merge(confirmed, pending []*model.BookingRecord, policy Policy) []*model.BookingRecord {
	sorted := make([]*model.BookingRecord, 0, len(confirmed))
	sorted = append(sorted, confirmed...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	out := make([]*model.BookingRecord, 0, len(pending)+len(sorted))
	seen := make(map[string]struct{}, len(pending)+len(sorted))
	add := func(r *model.BookingRecord) {
		if _, dup := seen[r.Key]; dup {
			return
		}
		seen[r.Key] = struct{}{}
		out = append(out, r)
	}

	if policy == DropMatched {
		for _, p := range pending {
			if !matchesAny(p, sorted) {
				add(p)
			}
		}
	}
	for _, c := range sorted {
		add(c)
	}
	return out
}

func matchesAny(pending *model.BookingRecord, confirmed []*model.BookingRecord) bool {
	for _, c := range confirmed {
		if pending.SameHotelDay(c) {
			return true
		}
	}
	return false
}

type userState struct {
	pending []*model.BookingRecord
	visible []*model.BookingRecord
	added   map[string]time.Time
}

// Overlay is safe for concurrent use. Records handed in and out are copies.
type Overlay struct {
	mu        sync.Mutex
	users     map[string]*userState
	maxAge    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// New returns an empty overlay. Pending records older than maxAge are
// forgotten; zero keeps them until a refresh drops them.
func New(maxAge time.Duration) *Overlay {
	return &Overlay{
		users:  make(map[string]*userState),
		maxAge: maxAge,
		now:    time.Now,
	}
}

func (o *Overlay) state(userID string) *userState {
	st, ok := o.users[userID]
	if !ok {
		st = &userState{added: make(map[string]time.Time)}
		o.users[userID] = st
	}
	return st
}

// expireLocked drops pending records older than maxAge from st.
func (o *Overlay) expireLocked(st *userState, now time.Time) {
	if o.maxAge <= 0 {
		return
	}
	for key, at := range st.added {
		if now.Sub(at) < o.maxAge {
			continue
		}
		delete(st.added, key)
		st.pending, _ = without(st.pending, key)
		st.visible, _ = without(st.visible, key)
	}
}

// sweepLocked expires pending records for every user, at most once per
// maxAge, and drops users left with nothing.
func (o *Overlay) sweepLocked(now time.Time) {
	if o.maxAge <= 0 || now.Sub(o.lastSweep) < o.maxAge {
		return
	}
	o.lastSweep = now
	for userID, st := range o.users {
		o.expireLocked(st, now)
		if len(st.pending) == 0 && len(st.visible) == 0 {
			delete(o.users, userID)
		}
	}
}

// AddPending puts record at the head of the user's pending and visible lists.
func (o *Overlay) AddPending(userID string, record *model.BookingRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.now()
	o.sweepLocked(now)

	st := o.state(userID)
	st.pending = append([]*model.BookingRecord{copyRecord(record)}, st.pending...)
	st.visible = append([]*model.BookingRecord{copyRecord(record)}, st.visible...)
	st.added[record.Key] = now
}

// Refresh merges confirmed with the pending records, keeps the merged result
// as the visible list and forgets pending records the policy dropped.
func (o *Overlay) Refresh(userID string, confirmed []*model.BookingRecord, policy Policy) []*model.BookingRecord {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.state(userID)
	o.expireLocked(st, o.now())
	merged := Merge(copyAll(confirmed), st.pending, policy)

	kept := st.pending[:0:0]
	for _, r := range merged {
		if model.IsTemporaryKey(r.Key) {
			kept = append(kept, r)
		}
	}
	st.pending = kept
	for key := range st.added {
		if !contains(kept, key) {
			delete(st.added, key)
		}
	}
	st.visible = merged
	return copyAll(merged)
}

// DropPending removes a pending record. It reports whether one was removed.
func (o *Overlay) DropPending(userID, key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.state(userID)
	var found bool
	st.pending, found = without(st.pending, key)
	st.visible, _ = without(st.visible, key)
	delete(st.added, key)
	return found
}

// DropSlot removes every pending record whose booking key is key and returns
// how many were removed.
func (o *Overlay) DropSlot(userID, key string) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.state(userID)
	kept := st.pending[:0:0]
	dropped := 0
	for _, r := range st.pending {
		if model.BookingKey(r.HotelID, r.Date, r.RoomType) == key {
			st.visible, _ = without(st.visible, r.Key)
			delete(st.added, r.Key)
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	st.pending = kept
	return dropped
}

// Remove takes key out of the visible list and returns the removed record
// (nil when absent) plus a func that puts it back at its previous position.
func (o *Overlay) Remove(userID, key string) (*model.BookingRecord, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.state(userID)
	idx := -1
	for i, r := range st.visible {
		if r.Key == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, func() {}
	}

	removed := st.visible[idx]
	st.visible = append(st.visible[:idx:idx], st.visible[idx+1:]...)

	restore := func() {
		o.mu.Lock()
		defer o.mu.Unlock()

		st := o.state(userID)
		for _, r := range st.visible {
			if r.Key == key {
				return
			}
		}
		pos := min(idx, len(st.visible))
		restored := make([]*model.BookingRecord, 0, len(st.visible)+1)
		restored = append(restored, st.visible[:pos]...)
		restored = append(restored, removed)
		restored = append(restored, st.visible[pos:]...)
		st.visible = restored
	}
	return copyRecord(removed), restore
}

func without(records []*model.BookingRecord, key string) ([]*model.BookingRecord, bool) {
	out := records[:0:0]
	found := false
	for _, r := range records {
		if r.Key == key {
			found = true
			continue
		}
		out = append(out, r)
	}
	return out, found
}

func contains(records []*model.BookingRecord, key string) bool {
	for _, r := range records {
		if r.Key == key {
			return true
		}
	}
	return false
}

func copyRecord(r *model.BookingRecord) *model.BookingRecord {
	cp := *r
	return &cp
}

func copyAll(records []*model.BookingRecord) []*model.BookingRecord {
	out := make([]*model.BookingRecord, 0, len(records))
	for _, r := range records {
		out = append(out, copyRecord(r))
	}
	return out
}
