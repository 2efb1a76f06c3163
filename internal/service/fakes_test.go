package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// fakeTx serializes transactions the way row and advisory locks do in Postgres.
type fakeTx struct {
	mu sync.Mutex
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(ctx)
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	nextID  int64
	tickets map[string]*domain.Ticket
	// staleUpdates forces the next N conditional updates to report a lost race.
	staleUpdates int
	updateCalls  int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) put(t *domain.Ticket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	t.ID = r.nextID
	r.tickets[t.TicketNumber] = t.Clone()
}

func (r *fakeTicketRepo) get(number string) *domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tickets[number].Clone()
}

func (r *fakeTicketRepo) Insert(ctx context.Context, t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[t.TicketNumber]; ok {
		return repository.ErrDuplicateKey
	}
	r.nextID++
	t.ID = r.nextID
	r.tickets[t.TicketNumber] = t.Clone()
	return nil
}

func (r *fakeTicketRepo) Update(ctx context.Context, t *domain.Ticket, expected domain.TicketStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	if r.staleUpdates > 0 {
		r.staleUpdates--
		return false, nil
	}
	stored, ok := r.tickets[t.TicketNumber]
	if !ok || stored.Status != expected {
		return false, nil
	}
	r.tickets[t.TicketNumber] = t.Clone()
	return true, nil
}

func (r *fakeTicketRepo) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[number]
	if !ok || t.DeletedAt != nil {
		return nil, pgx.ErrNoRows
	}
	return t.Clone(), nil
}

func (r *fakeTicketRepo) GetByNumberForUpdate(ctx context.Context, number string) (*domain.Ticket, error) {
	return r.GetByNumber(ctx, number)
}

func (r *fakeTicketRepo) LockNumberSequence(ctx context.Context, prefix string) error {
	return nil
}

func (r *fakeTicketRepo) LastNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	last := ""
	for number := range r.tickets {
		if !strings.HasPrefix(number, prefix) {
			continue
		}
		if len(number) > len(last) || (len(number) == len(last) && number > last) {
			last = number
		}
	}
	return last, nil
}

func (r *fakeTicketRepo) matches(t *domain.Ticket, filter repository.TicketFilter) bool {
	if t.DeletedAt != nil || !filter.Scope.Allows(t) {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(filter.Search)); term != "" {
		item := ""
		if t.ItemName != nil {
			item = *t.ItemName
		}
		haystack := strings.ToLower(strings.Join([]string{t.TicketNumber, t.RequesterName, t.RequestType, t.RequestOption, item}, "\n"))
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	switch filter.Bucket {
	case repository.BucketOpen:
		return t.Status == domain.TicketStatusOpen && !t.CreatedAt.Before(filter.CriticalCutoff)
	case repository.BucketCritical:
		return t.Status == domain.TicketStatusOpen && t.CreatedAt.Before(filter.CriticalCutoff)
	case repository.BucketStatus:
		return t.Status == filter.Status
	}
	return true
}

func (r *fakeTicketRepo) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := []domain.Ticket{}
	for _, t := range r.tickets {
		if r.matches(t, filter) {
			matched = append(matched, *t.Clone())
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		if filter.SortDesc {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	total := len(matched)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if filter.Limit <= 0 || end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *fakeTicketRepo) Counts(ctx context.Context, scope repository.TicketScope, cutoff time.Time) (repository.TicketCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var c repository.TicketCounts
	for _, t := range r.tickets {
		if t.DeletedAt != nil || !scope.Allows(t) {
			continue
		}
		c.Total++
		switch t.Status {
		case domain.TicketStatusOpen:
			if t.CreatedAt.Before(cutoff) {
				c.Critical++
			} else {
				c.Open++
			}
		case domain.TicketStatusOngoing:
			c.Ongoing++
		case domain.TicketStatusResolved:
			c.Resolved++
		case domain.TicketStatusClosed:
			c.Closed++
		case domain.TicketStatusReturned:
			c.Returned++
		case domain.TicketStatusCancelled:
			c.Cancelled++
		}
	}
	return c, nil
}

type fakeLogRepo struct {
	mu      sync.Mutex
	entries []domain.TicketActionLogEntry
}

func (r *fakeLogRepo) Append(ctx context.Context, entry *domain.TicketActionLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = int64(len(r.entries) + 1)
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeLogRepo) ListByTicket(ctx context.Context, number string) ([]domain.TicketActionLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.TicketActionLogEntry{}
	for _, e := range r.entries {
		if e.TicketNumber == number {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeLogRepo) actions(number string) []domain.TicketAction {
	entries, _ := r.ListByTicket(context.Background(), number)
	out := make([]domain.TicketAction, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ActionType)
	}
	return out
}

type fakeInbox struct {
	mu    sync.Mutex
	items []domain.Notification
	err   error
}

func (r *fakeInbox) Create(ctx context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.items = append(r.items, *n)
	return nil
}

func (r *fakeInbox) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Notification{}
	for _, n := range r.items {
		if n.RecipientID != recipientID || (unreadOnly && n.ReadAt != nil) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *fakeInbox) MarkRead(ctx context.Context, recipientID, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id && r.items[i].RecipientID == recipientID && r.items[i].ReadAt == nil {
			r.items[i].ReadAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeInbox) MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.items {
		if r.items[i].RecipientID == recipientID && r.items[i].ReadAt == nil {
			r.items[i].ReadAt = &at
			n++
		}
	}
	return n, nil
}

func (r *fakeInbox) recipients() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.items))
	for _, n := range r.items {
		out = append(out, n.RecipientID)
	}
	return out
}

type publishedMessage struct {
	channel string
	payload domain.PushPayload
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
	failFor  map[string]bool
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, payload domain.PushPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failFor[channel] {
		return errors.New("transport unavailable")
	}
	p.messages = append(p.messages, publishedMessage{channel: channel, payload: payload})
	return nil
}

type fakeTechnicians struct {
	ids []string
	err error
}

func (f fakeTechnicians) ListSupportTechnicians(ctx context.Context) ([]string, error) {
	return f.ids, f.err
}

type fakeDirectory struct {
	employees map[string]domain.Employee
}

func newFakeDirectory(employees ...domain.Employee) *fakeDirectory {
	d := &fakeDirectory{employees: map[string]domain.Employee{}}
	for _, e := range employees {
		d.employees[e.ID] = e
	}
	return d
}

func (d *fakeDirectory) FindEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	e, ok := d.employees[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &e, nil
}

func (d *fakeDirectory) ListApproversFor(ctx context.Context, productLine string) ([]domain.EmployeeRef, error) {
	seen := map[string]bool{}
	refs := []domain.EmployeeRef{}
	for _, e := range d.employees {
		if e.ProductLine != productLine {
			continue
		}
		for _, id := range []*string{e.FirstApproverID, e.SecondApproverID, e.ThirdApproverID} {
			if id == nil || seen[*id] {
				continue
			}
			if approver, ok := d.employees[*id]; ok {
				seen[*id] = true
				refs = append(refs, domain.EmployeeRef{ID: approver.ID, Name: approver.Name, Department: approver.Department, JobTitle: approver.JobTitle})
			}
		}
	}
	return refs, nil
}

func (d *fakeDirectory) ListEmployeesWhereApprover(ctx context.Context, id string) ([]string, error) {
	out := []string{}
	for _, e := range d.employees {
		if ptrEquals(e.FirstApproverID, id) || ptrEquals(e.SecondApproverID, id) || ptrEquals(e.ThirdApproverID, id) {
			out = append(out, e.ID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (d *fakeDirectory) IsSeniorApprover(ctx context.Context, id string) (bool, error) {
	for _, e := range d.employees {
		if ptrEquals(e.SecondApproverID, id) || ptrEquals(e.ThirdApproverID, id) {
			return true, nil
		}
	}
	return false, nil
}

func (d *fakeDirectory) ListByDepartment(ctx context.Context, department string) ([]domain.Employee, error) {
	out := []domain.Employee{}
	for _, e := range d.employees {
		if strings.EqualFold(e.Department, department) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func ptrEquals(p *string, v string) bool {
	return p != nil && *p == v
}

type fakeApproverRepo struct {
	mu     sync.Mutex
	nextID int64
	items  []domain.ApproverAssignment
}

func (r *fakeApproverRepo) Create(ctx context.Context, a *domain.ApproverAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.EmployeeID == a.EmployeeID && existing.Kind == a.Kind {
			return repository.ErrDuplicateKey
		}
	}
	r.nextID++
	a.ID = r.nextID
	r.items = append(r.items, *a)
	return nil
}

func (r *fakeApproverRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.items {
		if a.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeApproverRepo) List(ctx context.Context, kind *domain.ApproverKind) ([]domain.ApproverAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.ApproverAssignment{}
	for _, a := range r.items {
		if kind == nil || a.Kind == *kind {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeApproverRepo) GetByEmployee(ctx context.Context, employeeID string, kind domain.ApproverKind) (*domain.ApproverAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.items {
		if a.EmployeeID == employeeID && a.Kind == kind {
			c := a
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func requester(id string) *domain.Actor {
	return &domain.Actor{EmployeeID: id, Name: "Requester " + id, Department: "Finance", Roles: domain.NewRoleSet(domain.RoleUnknown)}
}

func technician(id string) *domain.Actor {
	return &domain.Actor{EmployeeID: id, Name: "Tech " + id, Department: "MIS", Roles: domain.NewRoleSet(domain.RoleSupportTechnician)}
}

func supervisor(id string) *domain.Actor {
	return &domain.Actor{EmployeeID: id, Name: "Sup " + id, Department: "MIS", Roles: domain.NewRoleSet(domain.RoleMISSupervisor, domain.RoleSupportTechnician)}
}
