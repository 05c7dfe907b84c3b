package autopilot

import (
	"context"
	"fmt"
	"sync"
	"time"

	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/generator"
	"github.com/unclebandit/autobuzz-backend/internal/model"
	"github.com/unclebandit/autobuzz-backend/internal/publisher"
	"github.com/unclebandit/autobuzz-backend/internal/repository"
)

type fakeGenres struct {
	genres []model.Genre
	err    error
}

func (f *fakeGenres) Create(ctx context.Context, g *model.Genre) error { return nil }
func (f *fakeGenres) ListByUser(ctx context.Context, userID string) ([]model.Genre, error) {
	return f.genres, f.err
}
func (f *fakeGenres) Delete(ctx context.Context, userID, id string) error { return nil }

type fakeAccounts struct {
	accounts []model.SnsAccount
	err      error
}

func (f *fakeAccounts) Create(ctx context.Context, a *model.SnsAccount) error { return nil }
func (f *fakeAccounts) ListByUser(ctx context.Context, userID string) ([]model.SnsAccount, error) {
	return f.accounts, f.err
}
func (f *fakeAccounts) Delete(ctx context.Context, userID, id string) error { return nil }

type fakeSchedules struct {
	schedules []model.Schedule
}

func (f *fakeSchedules) Create(ctx context.Context, s *model.Schedule) error { return nil }
func (f *fakeSchedules) ListByUser(ctx context.Context, userID string) ([]model.Schedule, error) {
	return f.schedules, nil
}
func (f *fakeSchedules) Delete(ctx context.Context, userID, id string) error { return nil }

// fakePosts enforces forward-only transitions like the SQL guard does.
type fakePosts struct {
	mu        sync.Mutex
	seq       int
	posts     map[string]*model.Post
	createErr func(p *model.Post) error
	updateErr error
}

func newFakePosts() *fakePosts {
	return &fakePosts{posts: make(map[string]*model.Post)}
}

func (f *fakePosts) Create(ctx context.Context, p *model.Post) error {
	if f.createErr != nil {
		if err := f.createErr(p); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	p.ID = fmt.Sprintf("post-%d", f.seq)
	cp := *p
	f.posts[p.ID] = &cp
	return nil
}

func (f *fakePosts) UpdateStatus(ctx context.Context, id string, status model.PostStatus, lastError string, postedAt *time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok || !p.Status.CanTransition(status) {
		return repository.ErrInvalidTransition
	}
	p.Status = status
	p.LastError = lastError
	p.PostedAt = postedAt
	return nil
}

func (f *fakePosts) GetByID(ctx context.Context, userID, id string) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, appErrors.NewNotFound("post", id)
	}
	cp := *p
	return &cp, nil
}

func (f *fakePosts) ListByUser(ctx context.Context, userID string) ([]model.Post, error) {
	return nil, nil
}
func (f *fakePosts) ListRecent(ctx context.Context, userID string, limit int) ([]model.Post, error) {
	return nil, nil
}
func (f *fakePosts) CountByUser(ctx context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts), nil
}
func (f *fakePosts) Delete(ctx context.Context, userID, id string) error { return nil }

type fakeStatusRepo struct {
	mu       sync.Mutex
	enabled  map[string]bool
	setErr   error
	setCalls int
	runs     []string
}

func newFakeStatusRepo() *fakeStatusRepo {
	return &fakeStatusRepo{enabled: make(map[string]bool)}
}

func (f *fakeStatusRepo) Get(ctx context.Context, userID string) (*model.AutopilotStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &model.AutopilotStatus{UserID: userID, Enabled: f.enabled[userID]}, nil
}

func (f *fakeStatusRepo) SetEnabled(ctx context.Context, userID string, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	if f.setErr != nil {
		return f.setErr
	}
	f.enabled[userID] = enabled
	return nil
}

func (f *fakeStatusRepo) RecordRun(ctx context.Context, userID string, at time.Time, message string, trigger model.RunTrigger) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, message)
	return nil
}

func (f *fakeStatusRepo) ListEnabledOwners(ctx context.Context) ([]string, error) {
	return nil, nil
}

type fakeTrends struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func (f *fakeTrends) Collect(ctx context.Context, keywords []string) (*model.TrendData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[fmt.Sprint(keywords)]++
	if f.err != nil {
		return nil, f.err
	}
	return &model.TrendData{TopKeywords: keywords}, nil
}

type generatorFunc func(ctx context.Context, req generator.Request) (string, error)

func (f generatorFunc) Generate(ctx context.Context, req generator.Request) (string, error) {
	return f(ctx, req)
}

func echoGenerator() generatorFunc {
	return func(ctx context.Context, req generator.Request) (string, error) {
		return fmt.Sprintf("%s on %s", req.Genre, req.Platform), nil
	}
}

type fakePublisher struct {
	mu      sync.Mutex
	calls   int
	publish func(call int, content string) (*publisher.Delivery, error)
}

func (f *fakePublisher) Publish(ctx context.Context, content string, account model.SnsAccount) (*publisher.Delivery, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	if f.publish == nil {
		return &publisher.Delivery{ExternalID: fmt.Sprintf("ext-%d", n)}, nil
	}
	return f.publish(n, content)
}
