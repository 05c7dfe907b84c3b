package autopilot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/generator"
	"github.com/unclebandit/autobuzz-backend/internal/logging"
	"github.com/unclebandit/autobuzz-backend/internal/metrics"
	"github.com/unclebandit/autobuzz-backend/internal/model"
	"github.com/unclebandit/autobuzz-backend/internal/notify"
	"github.com/unclebandit/autobuzz-backend/internal/publisher"
	"github.com/unclebandit/autobuzz-backend/internal/repository"
	"github.com/unclebandit/autobuzz-backend/internal/trend"
)

// ErrSkipped is returned by RunScheduled when autopilot is off or no schedule
// is due. It is the normal outcome of most ticks.
var ErrSkipped = errors.New("autopilot: no schedule due")

// Dependencies are the collaborators of a run. Offers and Notifier are optional.
type Dependencies struct {
	Genres     repository.GenreRepositoryInterface
	Accounts   repository.SnsAccountRepositoryInterface
	Schedules  repository.ScheduleRepositoryInterface
	Posts      repository.PostRepositoryInterface
	Offers     repository.AffiliateRepositoryInterface
	Status     *StatusStore
	Trends     trend.Source
	Generator  generator.Generator
	Publishers publisher.Registry
	Locker     RunLocker
	Notifier   notify.Notifier
	Logger     logging.Logger
}

type Options struct {
	Concurrency int
	CallTimeout time.Duration
	Retries     int
	RetryDelay  time.Duration
	Location    *time.Location
	Now         func() time.Time
}

type Orchestrator struct {
	deps   Dependencies
	opts   Options
	policy callPolicy
}

func NewOrchestrator(deps Dependencies, opts Options) *Orchestrator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 30 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if deps.Locker == nil {
		deps.Locker = NewLocalRunLocker()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NopNotifier{}
	}
	return &Orchestrator{
		deps:   deps,
		opts:   opts,
		policy: callPolicy{timeout: opts.CallTimeout, retries: opts.Retries, backoff: opts.RetryDelay},
	}
}

// RunNow runs every genre/platform pair of the owner immediately, regardless
// of the enabled flag.
func (o *Orchestrator) RunNow(ctx context.Context, ownerID string) (*model.RunResult, error) {
	return o.run(ctx, ownerID, model.TriggerManual)
}

// RunScheduled runs only when autopilot is enabled and a schedule admits now
// at minute resolution in the configured location. Otherwise it returns ErrSkipped.
func (o *Orchestrator) RunScheduled(ctx context.Context, ownerID string, now time.Time) (*model.RunResult, error) {
	status, err := o.deps.Status.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !status.Enabled {
		metrics.AutopilotRuns.WithLabelValues(string(model.TriggerScheduled), "skipped").Inc()
		return nil, ErrSkipped
	}

	schedules, err := o.deps.Schedules.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, appErrors.NewPersistence("list schedules", err)
	}
	local := now.In(o.opts.Location)
	due := false
	for _, s := range schedules {
		if s.Admits(local) {
			due = true
			break
		}
	}
	if !due {
		metrics.AutopilotRuns.WithLabelValues(string(model.TriggerScheduled), "skipped").Inc()
		return nil, ErrSkipped
	}
	return o.run(ctx, ownerID, model.TriggerScheduled)
}

type pair struct {
	genreIdx int
	genre    model.Genre
	platform model.Platform
	account  model.SnsAccount
}

func (o *Orchestrator) run(ctx context.Context, ownerID string, trigger model.RunTrigger) (*model.RunResult, error) {
	log := o.deps.Logger.WithFields(logrus.Fields{"owner_id": ownerID, "trigger": trigger})

	release, err := o.deps.Locker.Acquire(ctx, ownerID)
	if err != nil {
		metrics.AutopilotRuns.WithLabelValues(string(trigger), "rejected").Inc()
		return nil, err
	}
	defer release()

	started := o.opts.Now()
	result := &model.RunResult{Trigger: trigger, StartedAt: started, Items: []model.RunItem{}}

	genres, err := o.deps.Genres.ListByUser(ctx, ownerID)
	if err != nil {
		metrics.AutopilotRuns.WithLabelValues(string(trigger), "failed").Inc()
		return nil, appErrors.NewPersistence("list genres", err)
	}
	accounts, err := o.deps.Accounts.ListByUser(ctx, ownerID)
	if err != nil {
		metrics.AutopilotRuns.WithLabelValues(string(trigger), "failed").Inc()
		return nil, appErrors.NewPersistence("list accounts", err)
	}
	platforms := platformAccounts(accounts)

	if len(genres) == 0 || len(platforms) == 0 {
		result.Message = emptyConfigurationMessage(len(genres) == 0, len(platforms) == 0)
		log.Info(result.Message)
		o.finish(ctx, ownerID, result)
		return result, nil
	}

	var offers []model.AffiliateOffer
	if o.deps.Offers != nil {
		if offers, err = o.deps.Offers.ListOffers(ctx, ownerID); err != nil {
			log.WithError(err).Warn("Affiliate offers unavailable, generating without offers")
			offers = nil
		}
	}

	pairs := make([]pair, 0, len(genres)*len(platforms))
	trends := make([]*genreTrends, len(genres))
	for gi, g := range genres {
		trends[gi] = &genreTrends{keywords: trendKeywords(g)}
		for _, pa := range platforms {
			pairs = append(pairs, pair{genreIdx: gi, genre: g, platform: pa.Platform, account: pa})
		}
	}

	log.WithField("pairs", len(pairs)).Info("Autopilot run started")

	slots := make([]*model.RunItem, len(pairs))
	var wg errgroup.Group
	wg.SetLimit(o.opts.Concurrency)
	for i, p := range pairs {
		if ctx.Err() != nil {
			break
		}
		wg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			offer := model.PickOffer(offers, p.genre.Name)
			if item, done := o.processPair(ctx, ownerID, p, trends[p.genreIdx], offer); done {
				slots[i] = &item
			}
			return nil
		})
	}
	_ = wg.Wait()

	for _, item := range slots {
		if item == nil {
			continue
		}
		result.Items = append(result.Items, *item)
		switch item.Status {
		case model.ItemPosted:
			result.Posted++
		case model.ItemDraft:
			result.Drafts++
		default:
			result.Errors++
		}
		metrics.AutopilotItems.WithLabelValues(string(item.Platform), string(item.Status)).Inc()
	}
	result.Truncated = len(result.Items) < len(pairs)
	result.Message = summaryMessage(result, len(pairs))

	o.finish(ctx, ownerID, result)
	log.WithFields(logrus.Fields{
		"posted":    result.Posted,
		"drafts":    result.Drafts,
		"errors":    result.Errors,
		"truncated": result.Truncated,
	}).Info("Autopilot run finished")
	return result, nil
}

// processPair returns done=false when cancellation interrupted the pair before
// it reached an outcome. Effects already applied stay in place.
func (o *Orchestrator) processPair(ctx context.Context, ownerID string, p pair, gt *genreTrends, offer *model.AffiliateOffer) (model.RunItem, bool) {
	item := model.RunItem{Platform: p.platform, Genre: p.genre.Name}
	log := o.deps.Logger.WithFields(logrus.Fields{"owner_id": ownerID, "genre": p.genre.Name, "platform": p.platform})

	trendData := gt.get(ctx, func(ctx context.Context) (*model.TrendData, error) {
		return call(ctx, o.policy, "trends", nil, func(ctx context.Context) (*model.TrendData, error) {
			return o.deps.Trends.Collect(ctx, gt.keywords)
		})
	})
	if trendData == nil {
		log.Warn("Trend context unavailable, generating from genre only")
	}
	if ctx.Err() != nil {
		return item, false
	}

	content, err := call(ctx, o.policy, "generator", nil, func(ctx context.Context) (string, error) {
		return o.deps.Generator.Generate(ctx, generator.Request{
			Platform: p.platform,
			Genre:    p.genre.Name,
			Trends:   trendData,
			Offer:    offer,
		})
	})
	if err != nil {
		if ctx.Err() != nil {
			return item, false
		}
		log.WithError(err).Warn("Content generation failed")
		return failed(item, err), true
	}

	post := &model.Post{
		UserID:   ownerID,
		Platform: p.platform,
		Genre:    p.genre.Name,
		Content:  content,
		Status:   model.PostPending,
	}
	if err := o.deps.Posts.Create(ctx, post); err != nil {
		if ctx.Err() != nil {
			return item, false
		}
		metrics.CollaboratorFailures.WithLabelValues("store").Inc()
		log.WithError(err).Error("Failed to persist generated post")
		return failed(item, appErrors.NewPersistence("save post", err)), true
	}
	item.PostID = post.ID
	item.Content = content

	pub, ok := o.deps.Publishers.For(p.platform)
	if !ok || !p.account.HasCredentials() {
		return o.settle(ctx, log, item, post.ID, model.PostDraft, "", nil), true
	}

	delivery, err := call(ctx, o.policy, "publisher", publisher.IsRetryable, func(ctx context.Context) (*publisher.Delivery, error) {
		return pub.Publish(ctx, content, p.account)
	})
	switch {
	case err == nil:
		postedAt := o.opts.Now().UTC()
		log.WithField("external_id", delivery.ExternalID).Info("Post published")
		return o.settle(ctx, log, item, post.ID, model.PostPosted, "", &postedAt), true
	case errors.Is(err, publisher.ErrNotConfigured):
		return o.settle(ctx, log, item, post.ID, model.PostDraft, "", nil), true
	default:
		log.WithError(err).Warn("Publish failed, keeping post as draft")
		settled := o.settle(ctx, log, item, post.ID, model.PostDraft, err.Error(), nil)
		if ctx.Err() != nil {
			return settled, false
		}
		if settled.Status == model.ItemDraft {
			settled.Status = model.ItemError
			settled.Error = err.Error()
		}
		return settled, true
	}
}

// settle moves the pending post to its final status. The write ignores caller
// cancellation so a published post is never left pending.
func (o *Orchestrator) settle(ctx context.Context, log *logrus.Entry, item model.RunItem, postID string, status model.PostStatus, lastError string, postedAt *time.Time) model.RunItem {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.CallTimeout)
	defer cancel()

	if err := o.deps.Posts.UpdateStatus(writeCtx, postID, status, lastError, postedAt); err != nil {
		metrics.CollaboratorFailures.WithLabelValues("store").Inc()
		log.WithError(err).WithField("post_id", postID).Error("Failed to update post status")
		item.Status = model.ItemError
		item.Error = appErrors.NewPersistence("update post status", err).Error()
		return item
	}
	if status == model.PostPosted {
		item.Status = model.ItemPosted
	} else {
		item.Status = model.ItemDraft
	}
	return item
}

func (o *Orchestrator) finish(ctx context.Context, ownerID string, result *model.RunResult) {
	result.FinishedAt = o.opts.Now()

	outcome := "ok"
	if result.Truncated {
		outcome = "truncated"
	}
	metrics.AutopilotRuns.WithLabelValues(string(result.Trigger), outcome).Inc()
	metrics.AutopilotRunDuration.WithLabelValues(string(result.Trigger)).Observe(result.FinishedAt.Sub(result.StartedAt).Seconds())

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.CallTimeout)
	defer cancel()
	log := o.deps.Logger.WithField("owner_id", ownerID)
	if err := o.deps.Status.RecordRun(writeCtx, ownerID, result); err != nil {
		log.WithError(err).Error("Failed to record autopilot run")
	}
	if err := o.deps.Notifier.RunCompleted(writeCtx, ownerID, result); err != nil {
		log.WithError(err).Warn("Run notification failed")
	}
}

func failed(item model.RunItem, err error) model.RunItem {
	item.Status = model.ItemError
	item.Content = err.Error()
	item.Error = err.Error()
	return item
}

// genreTrends fetches trend context at most once per genre per run.
type genreTrends struct {
	keywords []string
	once     sync.Once
	data     *model.TrendData
}

func (g *genreTrends) get(ctx context.Context, fetch func(context.Context) (*model.TrendData, error)) *model.TrendData {
	g.once.Do(func() {
		data, err := fetch(ctx)
		if err == nil {
			g.data = data
		}
	})
	return g.data
}

func trendKeywords(g model.Genre) []string {
	if len(g.Keywords) > 0 {
		return g.Keywords
	}
	return []string{g.Name}
}

// platformAccounts keeps the first account of each platform, in account order.
func platformAccounts(accounts []model.SnsAccount) []model.SnsAccount {
	seen := make(map[model.Platform]bool, len(accounts))
	out := make([]model.SnsAccount, 0, len(accounts))
	for _, a := range accounts {
		if seen[a.Platform] || !a.Platform.Valid() {
			continue
		}
		seen[a.Platform] = true
		out = append(out, a)
	}
	return out
}

func emptyConfigurationMessage(noGenres, noAccounts bool) string {
	switch {
	case noGenres && noAccounts:
		return "ジャンルとSNSアカウントが未設定のため、処理する組み合わせがありません"
	case noGenres:
		return "ジャンルが未設定のため、処理する組み合わせがありません"
	default:
		return "SNSアカウントが未連携のため、処理する組み合わせがありません"
	}
}

func summaryMessage(r *model.RunResult, planned int) string {
	msg := fmt.Sprintf("%d件の組み合わせを処理しました（投稿 %d / 下書き %d / エラー %d）",
		len(r.Items), r.Posted, r.Drafts, r.Errors)
	if r.Truncated {
		msg += fmt.Sprintf("。キャンセルにより %d件中 %d件で中断しました", planned, len(r.Items))
	}
	return msg
}
