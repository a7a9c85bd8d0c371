package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	AssignedTo  *string
	Requester   *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketStore is an optional write-through sink. Save is called inside
// the ticket's critical section (or the insert section for new tickets);
// an error aborts the mutation.
type TicketStore interface {
	Save(ctx context.Context, ticket *domain.Ticket, expectedVersion int64, appended []domain.HistoryEntry) error
	LoadAll(ctx context.Context) ([]*domain.Ticket, error)
}

// MutateFunc changes a private copy of a ticket.
type MutateFunc func(ticket *domain.Ticket) error

// TicketRepository owns the ticket set. Update is the only way to change
// a stored ticket and runs at most one mutation per ticket at a time.
// Insert gives a ticket without a code the next CH- number; numbers are
// consumed only by inserts that commit.
type TicketRepository interface {
	Insert(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	Get(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]*domain.Ticket, error)
	Update(ctx context.Context, id string, mutate MutateFunc) (*domain.Ticket, error)
	Hydrate(ctx context.Context) (int, error)
}

type ticketEntry struct {
	mu     sync.Mutex
	ticket *domain.Ticket
}

type memoryTicketRepository struct {
	// insertMu orders inserts; mu guards the maps and is never held
	// across a store call.
	insertMu sync.Mutex
	mu       sync.RWMutex
	entries  map[string]*ticketEntry
	codes    map[string]string
	sequence int64
	store    TicketStore
}

const (
	// CodePrefix starts every ticket code.
	CodePrefix = "CH-"
	// FirstSequence is the number given to the first ticket code.
	FirstSequence = 101
)

// NewTicketRepository builds the in-memory repository. store may be nil.
func NewTicketRepository(store TicketStore) TicketRepository {
	return &memoryTicketRepository{
		entries:  make(map[string]*ticketEntry),
		codes:    make(map[string]string),
		sequence: FirstSequence - 1,
		store:    store,
	}
}

func (r *memoryTicketRepository) Insert(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	if ticket == nil || ticket.ID == "" {
		return nil, fmt.Errorf("%w: ticket id required", domain.ErrInvalidInput)
	}
	stored := ticket.Clone()
	stored.Version = 1

	r.insertMu.Lock()
	defer r.insertMu.Unlock()

	r.mu.RLock()
	if stored.Code == "" {
		stored.Code = fmt.Sprintf("%s%d", CodePrefix, r.sequence+1)
	}
	_, idTaken := r.entries[stored.ID]
	_, codeTaken := r.codes[stored.Code]
	r.mu.RUnlock()
	if idTaken {
		return nil, fmt.Errorf("%w: ticket %s already exists", domain.ErrVersionConflict, stored.ID)
	}
	if codeTaken {
		return nil, fmt.Errorf("%w: code %s already in use", domain.ErrVersionConflict, stored.Code)
	}

	if r.store != nil {
		if err := r.store.Save(ctx, stored, 0, stored.History); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	r.entries[stored.ID] = &ticketEntry{ticket: stored}
	r.index(stored)
	r.mu.Unlock()
	return stored.Clone(), nil
}

func (r *memoryTicketRepository) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	entry, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.ticket.Clone(), nil
}

func (r *memoryTicketRepository) List(ctx context.Context, filter TicketFilter) ([]*domain.Ticket, error) {
	r.mu.RLock()
	entries := make([]*ticketEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, entry)
	}
	r.mu.RUnlock()

	result := make([]*domain.Ticket, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		snapshot := entry.ticket.Clone()
		entry.mu.Unlock()
		if filter.matches(snapshot) {
			result = append(result, snapshot)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return codeAfter(result[i].Code, result[j].Code)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return paginate(result, filter.Limit, filter.Offset), nil
}

func (r *memoryTicketRepository) Update(ctx context.Context, id string, mutate MutateFunc) (*domain.Ticket, error) {
	entry, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	current := entry.ticket
	working := current.Clone()
	if err := mutate(working); err != nil {
		return nil, err
	}
	if len(working.History) < len(current.History) {
		return nil, fmt.Errorf("%w: history is append-only", domain.ErrInvalidInput)
	}
	working.Version = current.Version + 1

	if r.store != nil {
		appended := working.History[len(current.History):]
		if err := r.store.Save(ctx, working, current.Version, appended); err != nil {
			return nil, err
		}
	}
	entry.ticket = working
	return working.Clone(), nil
}

// Hydrate loads every ticket from the store and advances the code
// sequence past the highest code seen.
func (r *memoryTicketRepository) Hydrate(ctx context.Context) (int, error) {
	if r.store == nil {
		return 0, nil
	}
	tickets, err := r.store.LoadAll(ctx)
	if err != nil {
		return 0, err
	}

	r.insertMu.Lock()
	defer r.insertMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range tickets {
		r.entries[ticket.ID] = &ticketEntry{ticket: ticket}
		r.index(ticket)
	}
	return len(tickets), nil
}

// index records the ticket's code and advances the sequence past it.
// Callers hold mu.
func (r *memoryTicketRepository) index(ticket *domain.Ticket) {
	if ticket.Code == "" {
		return
	}
	r.codes[ticket.Code] = ticket.ID
	if n, ok := parseCodeSequence(ticket.Code); ok && n > r.sequence {
		r.sequence = n
	}
}

func (r *memoryTicketRepository) lookup(id string) (*ticketEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	if !ok {
		if byCode, found := r.codes[id]; found {
			entry, ok = r.entries[byCode]
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTicketNotFound, id)
	}
	return entry, nil
}

func (f TicketFilter) matches(t *domain.Ticket) bool {
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, t.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !containsPriority(f.Priorities, t.Priority) {
		return false
	}
	if f.AssignedTo != nil && (t.AssignedTo == nil || *t.AssignedTo != *f.AssignedTo) {
		return false
	}
	if f.Requester != nil && t.Requester != *f.Requester {
		return false
	}
	if f.CreatedFrom != nil && t.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && t.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	return true
}

func containsStatus(list []domain.TicketStatus, s domain.TicketStatus) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.TicketPriority, p domain.TicketPriority) bool {
	for _, candidate := range list {
		if candidate == p {
			return true
		}
	}
	return false
}

func paginate(tickets []*domain.Ticket, limit, offset int) []*domain.Ticket {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(tickets) {
		return []*domain.Ticket{}
	}
	tickets = tickets[offset:]
	if limit > 0 && limit < len(tickets) {
		tickets = tickets[:limit]
	}
	return tickets
}

// codeAfter orders codes by their number, falling back to string order
// when either has none.
func codeAfter(a, b string) bool {
	na, okA := parseCodeSequence(a)
	nb, okB := parseCodeSequence(b)
	if okA && okB {
		return na > nb
	}
	return a > b
}

func parseCodeSequence(code string) (int64, bool) {
	_, digits, found := strings.Cut(code, "-")
	if !found {
		return 0, false
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
