package notification

// State is the full notification state for one user. Notifications are
// ordered most recent first.
type State struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unreadCount"`
}

// Action is a state transition request.
type Action interface {
	isAction()
}

type (
	// Loaded replaces the list with a previously persisted one.
	Loaded struct{ Notifications []Notification }
	// Added prepends a fully built notification.
	Added struct{ Notification Notification }
	// MarkedRead marks one notification as read.
	MarkedRead struct{ ID string }
	// MarkedAllRead marks every notification as read.
	MarkedAllRead struct{}
	// Removed deletes one notification.
	Removed struct{ ID string }
	// Cleared deletes every notification.
	Cleared struct{}
)

func (Loaded) isAction()        {}
func (Added) isAction()         {}
func (MarkedRead) isAction()    {}
func (MarkedAllRead) isAction() {}
func (Removed) isAction()       {}
func (Cleared) isAction()       {}

// Reduce returns the state that results from applying a to s. s is never
// modified.
func Reduce(s State, a Action) State {
	next, _ := apply(s, a)
	return next
}

// apply also reports whether the action changed anything, so callers can
// skip persistence and fan-out for no-ops.
func apply(s State, a Action) (State, bool) {
	switch a := a.(type) {
	case Loaded:
		list := make([]Notification, len(a.Notifications))
		copy(list, a.Notifications)
		unread := 0
		for _, n := range list {
			if !n.Read {
				unread++
			}
		}
		return State{Notifications: list, UnreadCount: unread}, true

	case Added:
		list := make([]Notification, 0, len(s.Notifications)+1)
		list = append(list, a.Notification)
		list = append(list, s.Notifications...)
		unread := s.UnreadCount
		if !a.Notification.Read {
			unread++
		}
		return State{Notifications: list, UnreadCount: unread}, true

	case MarkedRead:
		i := indexOf(s.Notifications, a.ID)
		if i < 0 || s.Notifications[i].Read {
			return s, false
		}
		list := make([]Notification, len(s.Notifications))
		copy(list, s.Notifications)
		list[i].Read = true
		return State{Notifications: list, UnreadCount: floorZero(s.UnreadCount - 1)}, true

	case MarkedAllRead:
		if s.UnreadCount == 0 && !anyUnread(s.Notifications) {
			return s, false
		}
		list := make([]Notification, len(s.Notifications))
		for i, n := range s.Notifications {
			n.Read = true
			list[i] = n
		}
		return State{Notifications: list, UnreadCount: 0}, true

	case Removed:
		i := indexOf(s.Notifications, a.ID)
		if i < 0 {
			return s, false
		}
		list := make([]Notification, 0, len(s.Notifications)-1)
		list = append(list, s.Notifications[:i]...)
		list = append(list, s.Notifications[i+1:]...)
		unread := s.UnreadCount
		if !s.Notifications[i].Read {
			unread = floorZero(unread - 1)
		}
		return State{Notifications: list, UnreadCount: unread}, true

	case Cleared:
		if len(s.Notifications) == 0 && s.UnreadCount == 0 {
			return s, false
		}
		return State{Notifications: []Notification{}, UnreadCount: 0}, true
	}
	return s, false
}

func indexOf(list []Notification, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func anyUnread(list []Notification) bool {
	for i := range list {
		if !list[i].Read {
			return true
		}
	}
	return false
}

func floorZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
