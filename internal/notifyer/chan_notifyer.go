package notifyer

import (
	"sync/atomic"

	"github.com/ZephyrianDawnstrider/hrms/internal/models"
)

type ChanNotifyer struct {
	eventChan chan models.FailoverEvent
	closed    atomic.Bool
	close     chan struct{}
}

func NewNotifier(buf int) *ChanNotifyer {
	return &ChanNotifyer{
		eventChan: make(chan models.FailoverEvent, buf),
		closed:    atomic.Bool{},
		close:     make(chan struct{}),
	}
}

// NotifyFailover never blocks the request path: when the buffer is full the
// event is dropped, the shared status already carries the transition.
func (n *ChanNotifyer) NotifyFailover(event models.FailoverEvent) bool {
	if n.closed.Load() {
		return false
	}
	select {
	case n.eventChan <- event:
		return true
	case <-n.close:
		return false
	default:
		return false
	}
}

func (n *ChanNotifyer) GetEventChan() chan models.FailoverEvent {
	return n.eventChan
}

func (n *ChanNotifyer) Close() {
	if n.closed.Swap(true) {
		return
	}
	close(n.close)
}
