package matchmaker

// WaitList holds participants waiting for an opponent.
//
// The matchmaker calls a WaitList only while holding its own lock, so
// implementations need not be safe for concurrent use.
type WaitList interface {
	Add(p ParticipantID)
	Remove(p ParticipantID) bool
	Exists(p ParticipantID) bool
	// FindMatchingPair picks an opponent for p among the waiting
	// participants. It never returns p itself and does not remove anyone.
	FindMatchingPair(p ParticipantID) (ParticipantID, bool)
	Len() int
}

// SetWaitList is the default WaitList: an unordered set that pairs a caller
// with the smallest waiting id other than its own.
type SetWaitList struct {
	members map[ParticipantID]struct{}
}

// NewSetWaitList returns an empty set.
func NewSetWaitList() *SetWaitList {
	return &SetWaitList{members: make(map[ParticipantID]struct{})}
}

func (w *SetWaitList) Add(p ParticipantID) {
	w.members[p] = struct{}{}
}

func (w *SetWaitList) Remove(p ParticipantID) bool {
	if _, ok := w.members[p]; !ok {
		return false
	}
	delete(w.members, p)
	return true
}

func (w *SetWaitList) Exists(p ParticipantID) bool {
	_, ok := w.members[p]
	return ok
}

func (w *SetWaitList) FindMatchingPair(p ParticipantID) (ParticipantID, bool) {
	var (
		best  ParticipantID
		found bool
	)
	for other := range w.members {
		if other == p {
			continue
		}
		if !found || other < best {
			best, found = other, true
		}
	}
	return best, found
}

func (w *SetWaitList) Len() int {
	return len(w.members)
}
