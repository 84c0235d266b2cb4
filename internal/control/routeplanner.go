// ABOUTME: Route planner admin surface (spec 6, named but not detailed)
// ABOUTME: Fixed as a minimal in-memory IP rotation status/unmark endpoint, no real IP block acquisition
package control

import (
	"net/http"
	"sync"
	"time"
)

// FailingAddress is one IP the planner has marked unusable, mirroring the
// read-only status record the teacher's ServerTUI serves for its own
// connection table.
type FailingAddress struct {
	Address     string `json:"failingAddress"`
	FailingTime int64  `json:"failingTimestamp"`
}

// RoutePlanner is a plain-data status record; there is no network
// interface to rotate across in this sandboxed node, so "acquisition"
// never actually rotates an address - only the status/unmark bookkeeping
// the admin surface exposes is real.
type RoutePlanner struct {
	mu       sync.Mutex
	class    string
	failing  map[string]int64
}

// NewRoutePlanner builds an idle planner reporting the given strategy class.
func NewRoutePlanner(class string) *RoutePlanner {
	return &RoutePlanner{class: class, failing: make(map[string]int64)}
}

// MarkFailing records address as currently unusable.
func (p *RoutePlanner) MarkFailing(address string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failing[address] = time.Now().UnixMilli()
}

func (p *RoutePlanner) status() routePlannerStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	addrs := make([]FailingAddress, 0, len(p.failing))
	for addr, ts := range p.failing {
		addrs = append(addrs, FailingAddress{Address: addr, FailingTime: ts})
	}
	return routePlannerStatus{
		Class: p.class,
		Details: routePlannerDetails{
			IPBlock:          ipBlockStatus{Type: "Inet6Address", Size: "0"},
			FailingAddresses: addrs,
		},
	}
}

func (p *RoutePlanner) unmark(address string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failing, address)
}

func (p *RoutePlanner) unmarkAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failing = make(map[string]int64)
}

type ipBlockStatus struct {
	Type string `json:"type"`
	Size string `json:"size"`
}

type routePlannerDetails struct {
	IPBlock          ipBlockStatus    `json:"ipBlock"`
	FailingAddresses []FailingAddress `json:"failingAddresses"`
}

type routePlannerStatus struct {
	Class   string              `json:"class"`
	Details routePlannerDetails `json:"details"`
}

func (h *handlers) getRoutePlannerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.routePlanner.status())
}

func (h *handlers) postRoutePlannerUnmark(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Address string `json:"address"`
	}
	if !h.decodeBody(w, r, &body) {
		return
	}
	h.routePlanner.unmark(body.Address)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) postRoutePlannerUnmarkAll(w http.ResponseWriter, r *http.Request) {
	h.routePlanner.unmarkAll()
	w.WriteHeader(http.StatusNoContent)
}
