package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/logging"
	"github.com/unclebandit/autobuzz-backend/internal/model"
	"github.com/unclebandit/autobuzz-backend/internal/repository"
)

func newAuth() (*AuthService, *MockUserRepo) {
	users := newMockUserRepo()
	s := NewAuthService(users, MockTokens{}, logging.NewTestLogger())
	s.BcryptCost = bcrypt.MinCost
	return s, users
}

func TestRegisterHashesPasswordAndNormalizesEmail(t *testing.T) {
	s, users := newAuth()

	u, err := s.Register(context.Background(), "  Alice@Example.com ", "password123")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	stored := users.users["alice@example.com"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "password123", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password123")))
}

func TestRegisterRejectsDuplicatesAndShortPasswords(t *testing.T) {
	s, _ := newAuth()
	ctx := context.Background()

	_, err := s.Register(ctx, "a@example.com", "password123")
	require.NoError(t, err)

	_, err = s.Register(ctx, "A@example.com", "password456")
	assert.ErrorIs(t, err, appErrors.ErrEmailTaken)

	_, err = s.Register(ctx, "b@example.com", "short")
	var verr *appErrors.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestLogin(t *testing.T) {
	s, _ := newAuth()
	ctx := context.Background()
	u, err := s.Register(ctx, "a@example.com", "password123")
	require.NoError(t, err)

	tok, err := s.Login(ctx, "A@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "tok:"+u.ID, tok)

	_, err = s.Login(ctx, "a@example.com", "wrong-password")
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = s.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthenticate(t *testing.T) {
	s, _ := newAuth()

	id, err := s.Authenticate(context.Background(), "tok:user-7")
	require.NoError(t, err)
	assert.Equal(t, "user-7", id)

	_, err = s.Authenticate(context.Background(), "garbage")
	var aerr *appErrors.AuthError
	assert.ErrorAs(t, err, &aerr)
}

func TestConnectAccountValidatesPlatform(t *testing.T) {
	repo := &MockSnsAccountRepo{}
	s := &AccountService{Accounts: repo}
	ctx := context.Background()

	_, err := s.Connect(ctx, "u1", model.Platform("instagram"), ConnectAccountInput{AccessToken: "t"})
	require.Error(t, err)
	assert.Equal(t, "対応していないプラットフォームです", err.Error())

	_, err = s.Connect(ctx, "u1", model.PlatformX, ConnectAccountInput{})
	assert.Error(t, err)

	acct, err := s.Connect(ctx, "u1", model.PlatformX, ConnectAccountInput{AccessToken: " t ", AccessTokenSecret: "s", AccountName: "@me"})
	require.NoError(t, err)
	assert.Equal(t, "t", acct.AccessToken)
	assert.Len(t, repo.created, 1)
}

func TestGenreCreateNormalizesKeywords(t *testing.T) {
	repo := &MockGenreRepo{}
	s := &GenreService{Genres: repo}

	g, err := s.Create(context.Background(), "u1", " テクノロジー ", []string{"AI", " AI", "", "副業"})
	require.NoError(t, err)
	assert.Equal(t, "テクノロジー", g.Name)
	assert.Equal(t, []string{"AI", "副業"}, g.Keywords)

	_, err = s.Create(context.Background(), "u1", "  ", nil)
	assert.Error(t, err)
}

func TestScheduleCreate(t *testing.T) {
	s := &ScheduleService{Schedules: &MockScheduleRepo{}}
	ctx := context.Background()

	sch, err := s.Create(ctx, "u1", "9:05", "")
	require.NoError(t, err)
	assert.Equal(t, "09:05", sch.Time)
	assert.Equal(t, model.FrequencyDaily, sch.Frequency)

	_, err = s.Create(ctx, "u1", "25:00", model.FrequencyDaily)
	assert.Error(t, err)

	_, err = s.Create(ctx, "u1", "09:00", model.Frequency("hourly"))
	assert.Error(t, err)
}

func TestGeneratePostUsesGenreTrends(t *testing.T) {
	posts := &MockPostRepo{}
	trends := &MockTrendSource{}
	gen := &MockGenerator{}
	s := &PostService{Posts: posts, Source: trends, Generator: gen, Logger: logging.NewTestLogger()}

	p, err := s.Generate(context.Background(), "u1", model.PlatformThreads, "美容")
	require.NoError(t, err)
	assert.Equal(t, model.PostDraft, p.Status)
	assert.Equal(t, "generated for 美容", p.Content)
	assert.Equal(t, [][]string{{"美容"}}, trends.keywords)
	assert.NotNil(t, gen.last.Trends)
	assert.Len(t, posts.posts, 1)
}

func TestGeneratePostDegradesWithoutTrends(t *testing.T) {
	gen := &MockGenerator{}
	s := &PostService{
		Posts:     &MockPostRepo{},
		Source:    &MockTrendSource{err: errors.New("feeds down")},
		Generator: gen,
		Logger:    logging.NewTestLogger(),
	}

	_, err := s.Generate(context.Background(), "u1", model.PlatformX, "")
	require.NoError(t, err)
	assert.Nil(t, gen.last.Trends)
}

func TestGeneratePostGeneratorFailure(t *testing.T) {
	posts := &MockPostRepo{}
	s := &PostService{
		Posts:     posts,
		Source:    &MockTrendSource{},
		Generator: &MockGenerator{err: errors.New("quota")},
		Logger:    logging.NewTestLogger(),
	}

	_, err := s.Generate(context.Background(), "u1", model.PlatformX, "")
	var cf *appErrors.CollaboratorFailure
	assert.ErrorAs(t, err, &cf)
	assert.Empty(t, posts.posts)

	_, err = s.Generate(context.Background(), "u1", model.Platform("tiktok"), "")
	var verr *appErrors.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestPostGetIsOwnerScoped(t *testing.T) {
	posts := &MockPostRepo{posts: []model.Post{{ID: "p1", UserID: "u1"}}}
	s := &PostService{Posts: posts}

	_, err := s.Get(context.Background(), "u2", "p1")
	var nf *appErrors.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestShortenRetriesOnCollision(t *testing.T) {
	links := newMockLinkRepo()
	s := NewLinkService(links, logging.NewTestLogger())
	codes := []string{"AAAAAAAA", "AAAAAAAA", "BBBBBBBB"}
	s.newCode = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}
	ctx := context.Background()

	first, err := s.Shorten(ctx, "u1", "https://example.com/a")
	require.NoError(t, err)
	second, err := s.Shorten(ctx, "u1", "https://example.com/b")
	require.NoError(t, err)

	assert.Equal(t, "AAAAAAAA", first.ShortCode)
	assert.Equal(t, "BBBBBBBB", second.ShortCode)
	assert.Equal(t, 1, links.taken)
}

func TestShortenGivesUpAfterRepeatedCollisions(t *testing.T) {
	links := newMockLinkRepo()
	links.links["SAMECODE"] = &model.ShortLink{}
	s := NewLinkService(links, logging.NewTestLogger())
	s.newCode = func() (string, error) { return "SAMECODE", nil }

	_, err := s.Shorten(context.Background(), "u1", "https://example.com")
	assert.ErrorIs(t, err, repository.ErrShortCodeTaken)
	assert.Equal(t, maxCodeAttempts, links.taken)
}

func TestShortenRejectsBadURL(t *testing.T) {
	s := NewLinkService(newMockLinkRepo(), logging.NewTestLogger())
	_, err := s.Shorten(context.Background(), "u1", "javascript:alert(1)")
	assert.Error(t, err)
}

func TestResolveRecordsClick(t *testing.T) {
	links := newMockLinkRepo()
	s := NewLinkService(links, logging.NewTestLogger())
	link, err := s.Shorten(context.Background(), "u1", "https://example.com")
	require.NoError(t, err)

	got, err := s.Resolve(context.Background(), link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", got.OriginalURL)
	assert.Equal(t, 1, links.clicks[link.ID])

	links.clickErr = errors.New("db down")
	_, err = s.Resolve(context.Background(), link.ShortCode)
	assert.NoError(t, err)

	_, err = s.Resolve(context.Background(), "missing")
	var nf *appErrors.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestRandomShortCode(t *testing.T) {
	code, err := randomShortCode()
	require.NoError(t, err)
	assert.Len(t, code, shortCodeLength)
	for _, r := range code {
		assert.True(t, strings.ContainsRune(shortCodeAlphabet, r))
	}
}

func TestAffiliateStats(t *testing.T) {
	links := newMockLinkRepo()
	links.links["c1"] = &model.ShortLink{ID: "l1", UserID: "u1"}
	links.clicks["l1"] = 6
	aff := &MockAffiliateRepo{revenue: 1200}
	posts := &MockPostRepo{posts: []model.Post{{ID: "1", UserID: "u1"}, {ID: "2", UserID: "u1"}, {ID: "3", UserID: "u1"}}}
	s := &AffiliateService{Affiliates: aff, Links: links, Posts: posts}

	_, err := s.CreateOffer(context.Background(), "u1", "Gadget", "https://asp.example/x", "テクノロジー")
	require.NoError(t, err)

	stats, err := s.Stats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 6, stats.TotalClicks)
	assert.Equal(t, 1200.0, stats.TotalRevenue)
	assert.InDelta(t, 2.0, stats.CTR, 1e-9)
	assert.Len(t, stats.Offers, 1)
}

func TestAffiliateOfferValidation(t *testing.T) {
	s := &AffiliateService{Affiliates: &MockAffiliateRepo{}}
	_, err := s.CreateOffer(context.Background(), "u1", "", "https://asp.example", "")
	assert.Error(t, err)
	_, err = s.CreateOffer(context.Background(), "u1", "Gadget", "not a url", "")
	assert.Error(t, err)
	_, err = s.CreateAccount(context.Background(), "u1", " ", "tag-22")
	assert.Error(t, err)
}

func TestDashboardStats(t *testing.T) {
	posts := &MockPostRepo{}
	for i := 0; i < 12; i++ {
		posts.posts = append(posts.posts, model.Post{ID: string(rune('a' + i)), UserID: "u1"})
	}
	s := &DashboardService{Posts: posts, Links: newMockLinkRepo(), Affiliates: &MockAffiliateRepo{}}

	stats, err := s.Stats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalPosts)
	assert.Len(t, stats.RecentPosts, recentPostsLimit)
	assert.Zero(t, stats.CTR)
}

func TestDashboardEmptyAndFailure(t *testing.T) {
	s := &DashboardService{Posts: &MockPostRepo{}, Links: newMockLinkRepo(), Affiliates: &MockAffiliateRepo{}}
	stats, err := s.Stats(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, stats.RecentPosts)
	assert.Zero(t, stats.CTR)

	s.Posts = &MockPostRepo{countErr: errors.New("db down")}
	_, err = s.Stats(context.Background(), "u1")
	assert.Error(t, err)
}
