package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/generator"
	"github.com/unclebandit/autobuzz-backend/internal/model"
	"github.com/unclebandit/autobuzz-backend/internal/repository"
)

// Mock repositories

type MockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMockUserRepo() *MockUserRepo { return &MockUserRepo{users: map[string]*model.User{}} }

func (m *MockUserRepo) Create(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return appErrors.ErrEmailTaken
	}
	u.ID = fmt.Sprintf("user-%d", len(m.users)+1)
	m.users[u.Email] = u
	return nil
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, appErrors.NewNotFound("user", email)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, appErrors.NewNotFound("user", id)
}

type MockPostRepo struct {
	posts     []model.Post
	createErr error
	countErr  error
}

func (m *MockPostRepo) Create(ctx context.Context, p *model.Post) error {
	if m.createErr != nil {
		return m.createErr
	}
	p.ID = fmt.Sprintf("post-%d", len(m.posts)+1)
	m.posts = append(m.posts, *p)
	return nil
}

func (m *MockPostRepo) UpdateStatus(ctx context.Context, id string, status model.PostStatus, lastError string, postedAt *time.Time) error {
	return nil
}

func (m *MockPostRepo) GetByID(ctx context.Context, userID, id string) (*model.Post, error) {
	for i := range m.posts {
		if m.posts[i].ID == id && m.posts[i].UserID == userID {
			return &m.posts[i], nil
		}
	}
	return nil, appErrors.NewNotFound("post", id)
}

func (m *MockPostRepo) ListByUser(ctx context.Context, userID string) ([]model.Post, error) {
	var out []model.Post
	for _, p := range m.posts {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockPostRepo) ListRecent(ctx context.Context, userID string, limit int) ([]model.Post, error) {
	out, _ := m.ListByUser(ctx, userID)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockPostRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	out, _ := m.ListByUser(ctx, userID)
	return len(out), nil
}

func (m *MockPostRepo) Delete(ctx context.Context, userID, id string) error {
	if _, err := m.GetByID(ctx, userID, id); err != nil {
		return err
	}
	return nil
}

type MockLinkRepo struct {
	links    map[string]*model.ShortLink
	taken    int
	clicks   map[string]int
	clickErr error
}

func newMockLinkRepo() *MockLinkRepo {
	return &MockLinkRepo{links: map[string]*model.ShortLink{}, clicks: map[string]int{}}
}

func (m *MockLinkRepo) Create(ctx context.Context, l *model.ShortLink) error {
	if _, ok := m.links[l.ShortCode]; ok {
		m.taken++
		return fmt.Errorf("insert: %w", repository.ErrShortCodeTaken)
	}
	l.ID = "link-" + l.ShortCode
	m.links[l.ShortCode] = l
	return nil
}

func (m *MockLinkRepo) GetByCode(ctx context.Context, code string) (*model.ShortLink, error) {
	if l, ok := m.links[code]; ok {
		return l, nil
	}
	return nil, appErrors.NewNotFound("link", code)
}

func (m *MockLinkRepo) RecordClick(ctx context.Context, linkID string) error {
	if m.clickErr != nil {
		return m.clickErr
	}
	m.clicks[linkID]++
	return nil
}

func (m *MockLinkRepo) CountClicksByUser(ctx context.Context, userID string) (int, error) {
	total := 0
	for _, l := range m.links {
		if l.UserID == userID {
			total += m.clicks[l.ID]
		}
	}
	return total, nil
}

type MockAffiliateRepo struct {
	accounts []model.AffiliateAccount
	offers   []model.AffiliateOffer
	revenue  float64
}

func (m *MockAffiliateRepo) CreateAccount(ctx context.Context, a *model.AffiliateAccount) error {
	a.ID = fmt.Sprintf("acct-%d", len(m.accounts)+1)
	m.accounts = append(m.accounts, *a)
	return nil
}

func (m *MockAffiliateRepo) ListAccounts(ctx context.Context, userID string) ([]model.AffiliateAccount, error) {
	return m.accounts, nil
}

func (m *MockAffiliateRepo) CreateOffer(ctx context.Context, o *model.AffiliateOffer) error {
	o.ID = fmt.Sprintf("offer-%d", len(m.offers)+1)
	m.offers = append(m.offers, *o)
	return nil
}

func (m *MockAffiliateRepo) ListOffers(ctx context.Context, userID string) ([]model.AffiliateOffer, error) {
	return m.offers, nil
}

func (m *MockAffiliateRepo) DeleteOffer(ctx context.Context, userID, id string) error { return nil }

func (m *MockAffiliateRepo) RecordRevenue(ctx context.Context, userID string, amount float64) error {
	m.revenue += amount
	return nil
}

func (m *MockAffiliateRepo) TotalRevenue(ctx context.Context, userID string) (float64, error) {
	return m.revenue, nil
}

type MockSnsAccountRepo struct {
	created []model.SnsAccount
}

func (m *MockSnsAccountRepo) Create(ctx context.Context, a *model.SnsAccount) error {
	a.ID = fmt.Sprintf("sns-%d", len(m.created)+1)
	m.created = append(m.created, *a)
	return nil
}

func (m *MockSnsAccountRepo) ListByUser(ctx context.Context, userID string) ([]model.SnsAccount, error) {
	return m.created, nil
}

func (m *MockSnsAccountRepo) Delete(ctx context.Context, userID, id string) error { return nil }

type MockGenreRepo struct {
	created []model.Genre
}

func (m *MockGenreRepo) Create(ctx context.Context, g *model.Genre) error {
	g.ID = fmt.Sprintf("genre-%d", len(m.created)+1)
	m.created = append(m.created, *g)
	return nil
}

func (m *MockGenreRepo) ListByUser(ctx context.Context, userID string) ([]model.Genre, error) {
	return m.created, nil
}

func (m *MockGenreRepo) Delete(ctx context.Context, userID, id string) error { return nil }

type MockScheduleRepo struct {
	created []model.Schedule
}

func (m *MockScheduleRepo) Create(ctx context.Context, s *model.Schedule) error {
	s.ID = fmt.Sprintf("schedule-%d", len(m.created)+1)
	m.created = append(m.created, *s)
	return nil
}

func (m *MockScheduleRepo) ListByUser(ctx context.Context, userID string) ([]model.Schedule, error) {
	return m.created, nil
}

func (m *MockScheduleRepo) Delete(ctx context.Context, userID, id string) error { return nil }

// Mock collaborators

type MockTrendSource struct {
	keywords [][]string
	err      error
}

func (m *MockTrendSource) Collect(ctx context.Context, keywords []string) (*model.TrendData, error) {
	m.keywords = append(m.keywords, keywords)
	if m.err != nil {
		return nil, m.err
	}
	return &model.TrendData{TopKeywords: []string{"AI"}}, nil
}

type MockGenerator struct {
	last generator.Request
	err  error
}

func (m *MockGenerator) Generate(ctx context.Context, req generator.Request) (string, error) {
	m.last = req
	if m.err != nil {
		return "", m.err
	}
	return "generated for " + req.Genre, nil
}

// MockTokens issues the user ID as the token.
type MockTokens struct{}

func (MockTokens) Issue(userID string) (string, error) { return "tok:" + userID, nil }

func (MockTokens) Validate(token string) (string, error) {
	if len(token) > 4 && token[:4] == "tok:" {
		return token[4:], nil
	}
	return "", errors.New("bad token")
}
