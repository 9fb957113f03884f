package controller

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"todo-api/internal/apperr"
	"todo-api/internal/auth"
	"todo-api/internal/models"
	"todo-api/internal/query"
)

var testNow = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

var users = map[string]*models.User{
	"token-u1": {ID: "u1", Email: "ada@example.com", Username: "ada", IsActive: true},
	"token-u2": {ID: "u2", Email: "bob@example.com", Username: "bob", IsActive: true},
}

type fakeAccounts struct {
	changed []auth.PasswordChange
}

func (f *fakeAccounts) Authenticate(_ context.Context, token string) (*models.User, error) {
	u, ok := users[token]
	if !ok {
		return nil, apperr.Authentication("Token is invalid or expired.")
	}
	return u, nil
}

func (f *fakeAccounts) Register(_ context.Context, r auth.Registration) (*models.User, models.TokenPair, error) {
	if r.Password != r.PasswordConfirm {
		return nil, models.TokenPair{}, apperr.Validation("Registration data is invalid.").
			WithField("password_confirm", "Passwords do not match.")
	}
	return &models.User{ID: "u3", Email: r.Email, Username: r.Username},
		models.TokenPair{Access: "a-u3", Refresh: "r-u3"}, nil
}

func (f *fakeAccounts) Login(_ context.Context, email, password string) (*models.User, models.TokenPair, error) {
	if email != "ada@example.com" || password != "correct horse" {
		return nil, models.TokenPair{}, apperr.Authentication("No active account found with the given credentials.")
	}
	return users["token-u1"], models.TokenPair{Access: "a-u1", Refresh: "r-u1"}, nil
}

func (f *fakeAccounts) Logout(_ context.Context, userID, refresh string) error {
	if refresh != "r-"+userID {
		return apperr.Validation("Logout failed.")
	}
	return nil
}

func (f *fakeAccounts) RefreshAccess(_ context.Context, refresh string) (string, error) {
	if refresh != "r-u1" {
		return "", apperr.Authentication("Token is invalid or expired.")
	}
	return "a-u1-next", nil
}

func (f *fakeAccounts) Profile(_ context.Context, userID string) (*models.User, error) {
	for _, u := range users {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, apperr.NotFound("User not found.")
}

func (f *fakeAccounts) UpdateProfile(ctx context.Context, userID string, p models.ProfileUpdate) (*models.User, error) {
	u, err := f.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	cp := *u
	if p.FirstName != nil {
		cp.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		cp.LastName = *p.LastName
	}
	if p.Username != nil {
		cp.Username = *p.Username
	}
	return &cp, nil
}

func (f *fakeAccounts) ChangePassword(_ context.Context, _ string, pc auth.PasswordChange) error {
	f.changed = append(f.changed, pc)
	return nil
}

type fakeTodos struct {
	mu         sync.Mutex
	rows       map[string]*models.Todo
	lastFilter query.TodoFilter
	lastPage   query.Page
	lastOrders []models.TodoOrder
	failWith   error
}

func newFakeTodos() *fakeTodos {
	return &fakeTodos{rows: map[string]*models.Todo{}}
}

func (f *fakeTodos) seed(userID, name string, completed bool) *models.Todo {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &models.Todo{
		ID:         uuid.New().String(),
		UserID:     userID,
		Name:       name,
		Completed:  completed,
		Priority:   models.PriorityMedium,
		OrderIndex: len(f.rows) + 1,
		CreatedAt:  testNow,
		UpdatedAt:  testNow,
		Categories: []models.Category{},
	}
	t.ApplyCompletion(nil, testNow)
	f.rows[t.ID] = t
	return t
}

func (f *fakeTodos) owned(userID, id string) (*models.Todo, error) {
	t, ok := f.rows[id]
	if !ok || t.UserID != userID {
		return nil, apperr.NotFound("Not found.")
	}
	return t, nil
}

func (f *fakeTodos) List(_ context.Context, filter query.TodoFilter, page query.Page) ([]models.Todo, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, 0, f.failWith
	}
	f.lastFilter, f.lastPage = filter, page
	var out []models.Todo
	for _, t := range f.rows {
		if t.UserID == filter.UserID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, len(out), nil
}

func (f *fakeTodos) Get(_ context.Context, userID, id string) (*models.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.owned(userID, id)
	if err != nil {
		return nil, err
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTodos) Create(_ context.Context, userID string, in models.TodoInput) (*models.Todo, error) {
	t := f.seed(userID, in.Name, in.Completed)
	f.mu.Lock()
	defer f.mu.Unlock()
	t.Description = in.Description
	t.Priority = in.Priority
	t.DueDate = in.DueDate
	if in.OrderIndex != nil {
		t.OrderIndex = *in.OrderIndex
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTodos) Update(_ context.Context, userID, id string, p models.TodoPatch) (*models.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.owned(userID, id)
	if err != nil {
		return nil, err
	}
	prev := t.Completed
	p.Apply(t)
	t.ApplyCompletion(&prev, testNow)
	cp := *t
	return &cp, nil
}

func (f *fakeTodos) Toggle(ctx context.Context, userID, id string) (*models.Todo, error) {
	f.mu.Lock()
	t, err := f.owned(userID, id)
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	flipped := !t.Completed
	return f.Update(ctx, userID, id, models.TodoPatch{Completed: &flipped})
}

func (f *fakeTodos) Delete(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.owned(userID, id); err != nil {
		return err
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeTodos) Reorder(_ context.Context, userID string, orders []models.TodoOrder) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastOrders = orders
	var n int64
	for _, o := range orders {
		if t, err := f.owned(userID, o.ID); err == nil {
			t.OrderIndex = o.OrderIndex
			n++
		}
	}
	return n, nil
}

func (f *fakeTodos) BulkUpdate(_ context.Context, userID string, ids []string, action models.BulkAction) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, id := range ids {
		t, err := f.owned(userID, id)
		if err != nil {
			continue
		}
		n++
		switch action {
		case models.BulkDelete:
			delete(f.rows, id)
		case models.BulkComplete:
			ts := testNow
			t.Completed, t.CompletedAt = true, &ts
		case models.BulkIncomplete:
			t.Completed, t.CompletedAt = false, nil
		}
	}
	return n, nil
}

func (f *fakeTodos) ClearCompleted(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, t := range f.rows {
		if t.UserID == userID && t.Completed {
			delete(f.rows, id)
			n++
		}
	}
	return n, nil
}

type fakeCategories struct {
	rows map[string]*models.Category
}

func (f *fakeCategories) List(_ context.Context, userID string) ([]models.Category, error) {
	var out []models.Category
	for _, c := range f.rows {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCategories) Get(_ context.Context, userID, id string) (*models.Category, error) {
	c, ok := f.rows[id]
	if !ok || c.UserID != userID {
		return nil, apperr.NotFound("Not found.")
	}
	return c, nil
}

func (f *fakeCategories) Create(_ context.Context, userID string, in models.CategoryInput) (*models.Category, error) {
	for _, c := range f.rows {
		if c.UserID == userID && c.Name == *in.Name {
			return nil, apperr.Conflict("A category with this name already exists.").
				WithField("name", "A category with this name already exists.")
		}
	}
	c := &models.Category{ID: uuid.New().String(), UserID: userID, Name: *in.Name, Color: models.DefaultCategoryColor}
	if in.Color != nil {
		c.Color = *in.Color
	}
	f.rows[c.ID] = c
	return c, nil
}

func (f *fakeCategories) Update(ctx context.Context, userID, id string, in models.CategoryInput) (*models.Category, error) {
	c, err := f.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Color != nil {
		c.Color = *in.Color
	}
	return c, nil
}

func (f *fakeCategories) Delete(ctx context.Context, userID, id string) error {
	if _, err := f.Get(ctx, userID, id); err != nil {
		return err
	}
	delete(f.rows, id)
	return nil
}

type fakeStats struct {
	invalidated []string
}

func (f *fakeStats) Get(_ context.Context, userID string) (*models.Stats, error) {
	return &models.Stats{
		TotalTodos:      4,
		CompletedTodos:  2,
		PendingTodos:    2,
		CompletionRate:  50,
		CategoriesStats: map[string]models.CategoryStats{},
	}, nil
}

func (f *fakeStats) Invalidate(_ context.Context, userID string) {
	f.invalidated = append(f.invalidated, userID)
}

type fakeEvents struct {
	events []models.TodoEvent
	err    error
}

func (f *fakeEvents) PublishTodoEvent(_ context.Context, ev models.TodoEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

var errBoom = errors.New("connection reset by peer")
