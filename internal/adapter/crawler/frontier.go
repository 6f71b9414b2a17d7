package crawler

// Frontier is a FIFO queue of URLs awaiting a visit plus the set of visited
// URLs. A URL enters the queue at most once over the frontier's lifetime.
type Frontier struct {
	queue    []string
	seen     map[string]struct{}
	visited  map[string]struct{}
	visitLog []string
}

func NewFrontier() *Frontier {
	return &Frontier{
		seen:    make(map[string]struct{}),
		visited: make(map[string]struct{}),
	}
}

// Push enqueues u unless it was already enqueued or visited.
func (f *Frontier) Push(u string) bool {
	if _, ok := f.seen[u]; ok {
		return false
	}
	if _, ok := f.visited[u]; ok {
		return false
	}
	f.seen[u] = struct{}{}
	f.queue = append(f.queue, u)
	return true
}

// Pop removes and returns the head of the queue.
func (f *Frontier) Pop() (string, bool) {
	if len(f.queue) == 0 {
		return "", false
	}
	u := f.queue[0]
	f.queue[0] = ""
	f.queue = f.queue[1:]
	return u, true
}

// MarkVisited records u as visited.
func (f *Frontier) MarkVisited(u string) {
	if _, ok := f.visited[u]; ok {
		return
	}
	f.visited[u] = struct{}{}
	f.visitLog = append(f.visitLog, u)
}

func (f *Frontier) Visited(u string) bool {
	_, ok := f.visited[u]
	return ok
}

// Pending returns the number of queued URLs.
func (f *Frontier) Pending() int { return len(f.queue) }

// VisitedCount returns the number of visited URLs.
func (f *Frontier) VisitedCount() int { return len(f.visited) }

// VisitedURLs returns visited URLs in visit order.
func (f *Frontier) VisitedURLs() []string {
	out := make([]string, len(f.visitLog))
	copy(out, f.visitLog)
	return out
}
