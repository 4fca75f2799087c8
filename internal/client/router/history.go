package router

import "sync"

// History - стек посещенных путей
type History struct {
	entries []string
	mu      sync.Mutex
}

// Push добавляет путь в историю
func (h *History) Push(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, path)
}

// Replace заменяет текущую запись. На пустой истории работает как Push.
func (h *History) Replace(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		h.entries = append(h.entries, path)
		return
	}
	h.entries[len(h.entries)-1] = path
}

// Current возвращает текущий путь или пустую строку
func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		return ""
	}
	return h.entries[len(h.entries)-1]
}

// Entries возвращает копию истории, последняя запись - текущая
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}
