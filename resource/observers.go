package resource

import "sync"

type observers struct {
	list []Observer
	mu   sync.RWMutex
}

// Subscribe adds an observer for lifecycle events.
func (o *observers) Subscribe(obs Observer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.list = append(o.list, obs)
}

// Unsubscribe removes an observer.
func (o *observers) Unsubscribe(obs Observer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, existing := range o.list {
		if existing == obs {
			o.list = append(o.list[:i], o.list[i+1:]...)
			return
		}
	}
}

func (o *observers) notify(e Event) {
	o.mu.RLock()
	list := o.list
	o.mu.RUnlock()
	for _, obs := range list {
		obs.OnResourceEvent(e)
	}
}
