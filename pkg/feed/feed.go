// Package feed рассылает подписчикам сигналы об изменении коллекции.
// Сигналы схлопываются: медленный подписчик получает только последний снимок.
package feed

import "sync"

type Feed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
	closed bool
}

type subscriber struct {
	notify chan struct{}
	done   chan struct{}
	once   sync.Once
}

func New() *Feed {
	return &Feed{subs: make(map[int]*subscriber)}
}

// Subscribe регистрирует deliver и сразу планирует первую доставку.
// deliver вызывается в отдельной горутине подписчика, последовательно.
// Возвращаемая функция отписки идемпотентна.
func (f *Feed) Subscribe(deliver func()) func() {
	sub := &subscriber{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	sub.notify <- struct{}{}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return func() {}
	}
	id := f.nextID
	f.nextID++
	f.subs[id] = sub
	f.mu.Unlock()

	go func() {
		for {
			select {
			case <-sub.done:
				return
			case <-sub.notify:
				select {
				case <-sub.done:
					return
				default:
				}
				deliver()
			}
		}
	}()

	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
		sub.stop()
	}
}

// Publish сигнализирует всем подписчикам. Не блокируется.
func (f *Feed) Publish() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, sub := range f.subs {
		select {
		case sub.notify <- struct{}{}:
		default:
		}
	}
}

// Len возвращает число активных подписчиков.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.subs)
}

// Close останавливает всех подписчиков; последующие Subscribe ничего не доставляют.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	for id, sub := range f.subs {
		sub.stop()
		delete(f.subs, id)
	}
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}
