package attendance

import (
	"context"
	"strings"
	"sync"
)

// PerPage is the roster page size shown to organizers.
const PerPage = 10

// Roster is the in-memory participant list of one schedule. It is the
// state the console renders and the dispatcher updates after a successful
// upstream call.
type Roster struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]Participant
}

// NewRoster copies ps into a roster keeping their order.
func NewRoster(ps []Participant) *Roster {
	r := &Roster{byID: make(map[string]Participant, len(ps))}
	for _, p := range ps {
		if _, dup := r.byID[p.ID]; !dup {
			r.order = append(r.order, p.ID)
		}
		r.byID[p.ID] = p
	}
	return r
}

// Get returns a participant by id.
func (r *Roster) Get(id string) (Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	return p, ok
}

// Update replaces a participant with fn's result.
func (r *Roster) Update(id string, fn func(Participant) Participant) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return Participant{}, false
	}
	p = fn(p)
	r.byID[id] = p
	return p, true
}

// List returns a snapshot in load order.
func (r *Roster) List() []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Participant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Search matches query against name, email and team name, ignoring case.
// An empty query returns everyone.
func (r *Roster) Search(query string) []Participant {
	all := r.List()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all
	}
	out := all[:0]
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Email), q) ||
			(p.TeamName != "" && strings.Contains(strings.ToLower(p.TeamName), q)) {
			out = append(out, p)
		}
	}
	return out
}

// Page is one page of a filtered roster.
type Page struct {
	Items      []Participant `json:"items"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
	Total      int           `json:"total"`
}

// Paginate slices ps into pages of perPage, clamping page into range.
func Paginate(ps []Participant, page, perPage int) Page {
	if perPage <= 0 {
		perPage = PerPage
	}
	total := len(ps)
	pages := (total + perPage - 1) / perPage
	if page < 1 {
		page = 1
	}
	if pages > 0 && page > pages {
		page = pages
	}
	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return Page{
		Items:      append([]Participant{}, ps[start:end]...),
		Page:       page,
		TotalPages: pages,
		Total:      total,
	}
}

// Rosters holds the loaded roster of every schedule the console has opened.
type Rosters struct {
	mu   sync.RWMutex
	byID map[string]*Roster
}

// NewRosters creates an empty cache.
func NewRosters() *Rosters {
	return &Rosters{byID: make(map[string]*Roster)}
}

// Get returns the roster of a schedule if it has been loaded.
func (rs *Rosters) Get(scheduleID string) *Roster {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.byID[scheduleID]
}

// Load replaces the roster of a schedule.
func (rs *Rosters) Load(scheduleID string, ps []Participant) *Roster {
	r := NewRoster(ps)
	rs.mu.Lock()
	rs.byID[scheduleID] = r
	rs.mu.Unlock()
	return r
}

// Ensure returns the loaded roster or fetches one.
func (rs *Rosters) Ensure(ctx context.Context, scheduleID string, fetch func(context.Context) ([]Participant, error)) (*Roster, error) {
	if r := rs.Get(scheduleID); r != nil {
		return r, nil
	}
	ps, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	return rs.Load(scheduleID, ps), nil
}
