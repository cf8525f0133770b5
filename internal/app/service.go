// Package service wires the scoring engine together: evidence collection,
// aggregation, role matching, persistence, and the asynchronous recompute
// pipeline.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	jobqueue "github.com/okian/skillscope/internal/adapters/mq/queue"
	workerpool "github.com/okian/skillscope/internal/adapters/mq/worker"
	"github.com/okian/skillscope/internal/adapters/repository"
	"github.com/okian/skillscope/internal/domain/match"
	"github.com/okian/skillscope/internal/domain/model"
	"github.com/okian/skillscope/internal/domain/roles"
	"github.com/okian/skillscope/internal/domain/rules"
	"github.com/okian/skillscope/internal/domain/scoring"
	"github.com/okian/skillscope/pkg/logger"
	"github.com/okian/skillscope/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultQueueSize        = 10000
	defaultMinCompatibility = 60.0
	defaultMatchLimit       = 10
)

// Service implements the engine operations over a repository.Store.
type Service struct {
	mu sync.RWMutex

	store repository.Store

	// Core components, built on Start.
	matcher    *match.Matcher
	certs      *rules.CertMapper
	courses    *rules.CourseMapper
	collector  *scoring.Collector
	aggregator *scoring.Aggregator
	engine     *roles.Engine
	jobQueue   jobqueue.Queue
	workerPool *workerpool.Pool

	// Configuration.
	embedder         match.Embedder
	workerCount      int
	queueSize        int
	rulesPath        string
	minCompatibility float64
	matchLimit       int
	matcherOpts      []match.Option
	aggregatorOpts   []scoring.AggregatorOption
	engineOpts       []roles.Option

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEmbedder sets the embedding backend for semantic matching. Without
// one the extractor runs in degraded mode (exact and fuzzy only).
func WithEmbedder(e match.Embedder) Option {
	return func(s *Service) {
		s.embedder = e
	}
}

// WithWorkerCount sets the number of recompute workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the recompute queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithRuleTablesPath overrides the embedded mapping tables.
func WithRuleTablesPath(path string) Option {
	return func(s *Service) {
		s.rulesPath = path
	}
}

// WithMinCompatibility sets the default role matching cutoff.
func WithMinCompatibility(min float64) Option {
	return func(s *Service) {
		if min >= 0 && min <= 100 {
			s.minCompatibility = min
		}
	}
}

// WithMatchLimit caps the number of roles returned by FindMatchingRoles.
func WithMatchLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.matchLimit = limit
		}
	}
}

// WithMatcherOptions forwards options to the skill extractor.
func WithMatcherOptions(opts ...match.Option) Option {
	return func(s *Service) {
		s.matcherOpts = append(s.matcherOpts, opts...)
	}
}

// WithAggregatorOptions forwards options to the score aggregator.
func WithAggregatorOptions(opts ...scoring.AggregatorOption) Option {
	return func(s *Service) {
		s.aggregatorOpts = append(s.aggregatorOpts, opts...)
	}
}

// WithEngineOptions forwards options to the role matching engine.
func WithEngineOptions(opts ...roles.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// New constructs a Service over the given store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:            store,
		queueSize:        defaultQueueSize,
		minCompatibility: defaultMinCompatibility,
		matchLimit:       defaultMatchLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the engine components from the catalog and starts the
// recompute pipeline. Safe to call once; later calls are no-ops.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting scoring engine...")

	vocab, err := s.store.Skills(ctx)
	if err != nil {
		return fmt.Errorf("load skill catalog: %w", err)
	}

	matcherOpts := s.matcherOpts
	if s.embedder != nil {
		matcherOpts = append(matcherOpts, match.WithEmbedder(s.embedder))
	}
	s.matcher, err = match.New(vocab, matcherOpts...)
	if err != nil {
		return fmt.Errorf("build matcher: %w", err)
	}
	if s.embedder != nil {
		// Warm vocabulary embeddings up front; a failure here degrades to
		// lexical matching instead of blocking startup.
		if err := s.matcher.Warm(ctx); err != nil {
			s.logger.Warn(ctx, "embedding warmup failed, semantic matching degraded", logger.Error(err))
			metrics.RecordEmbeddingFallback()
		}
	}

	tables, err := rules.LoadTables(s.rulesPath)
	if err != nil {
		return fmt.Errorf("load mapping tables: %w", err)
	}
	s.certs = rules.NewCertMapper(tables, vocab)
	s.courses = rules.NewCourseMapper(tables, vocab)

	s.collector = scoring.NewCollector(s.store, s.store, s.matcher, s.certs, s.courses)
	s.aggregator = scoring.NewAggregator(s.aggregatorOpts...)
	s.engine = roles.New(s.engineOpts...)

	s.jobQueue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
		jobqueue.WithBufferSize(s.queueSize),
	)
	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "scoring engine started",
		logger.Int("skills", len(vocab)),
		logger.Int("queueSize", s.queueSize),
		logger.Bool("semantic", s.embedder != nil),
	)
	return nil
}

// Stop gracefully shuts down the recompute pipeline.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping scoring engine...")

	if s.jobQueue != nil {
		_ = s.jobQueue.Close()
	}
	if s.workerPool != nil {
		_ = s.workerPool.Shutdown(ctx)
	}

	s.started = false
	s.logger.Info(ctx, "scoring engine stopped")
}

// AggregateAllSkills collects the student's evidence and aggregates it into
// per-skill scores without persisting anything.
func (s *Service) AggregateAllSkills(ctx context.Context, studentID string) (map[string]model.SkillScore, error) {
	if _, err := s.store.Student(ctx, studentID); err != nil {
		return nil, fmt.Errorf("student %s: %w", studentID, err)
	}

	evidence, err := s.collector.Collect(ctx, studentID)
	if err != nil {
		metrics.RecordScoringError()
		return nil, err
	}
	metrics.RecordExtraction()
	for _, e := range evidence {
		metrics.RecordEvidence(string(e.Source))
	}
	return s.aggregator.Aggregate(studentID, evidence), nil
}

// UpdateStudentSkillScores recomputes and persists the student's skill
// scores, returning how many skills were scored.
func (s *Service) UpdateStudentSkillScores(ctx context.Context, studentID string) (int, error) {
	start := time.Now()
	defer func() {
		metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))
	}()

	scores, err := s.AggregateAllSkills(ctx, studentID)
	if err != nil {
		return 0, err
	}
	if err := s.store.UpsertSkillScores(ctx, studentID, scores); err != nil {
		metrics.RecordScoringError()
		return 0, fmt.Errorf("persist scores: %w", err)
	}
	metrics.RecordSkillsScored(len(scores))
	return len(scores), nil
}

// Recompute rebuilds one student's skill scores and cached role matches
// from scratch. Implements the worker pool's Recomputer contract.
func (s *Service) Recompute(ctx context.Context, studentID string) error {
	count, err := s.UpdateStudentSkillScores(ctx, studentID)
	if err != nil {
		return err
	}
	scores, err := s.store.SkillScoresByStudent(ctx, studentID)
	if err != nil {
		return err
	}

	matches, err := s.computeRoleMatches(ctx, studentID, scores)
	if err != nil {
		return err
	}
	if err := s.store.ReplaceRoleMatches(ctx, studentID, matches); err != nil {
		return fmt.Errorf("persist role matches: %w", err)
	}

	s.logger.Debug(ctx, "student recomputed",
		logger.String("student_id", studentID),
		logger.Int("skills", count),
		logger.Int("roles", len(matches)),
	)
	return nil
}

// computeRoleMatches scores the student against every role in the catalog.
func (s *Service) computeRoleMatches(ctx context.Context, studentID string, scores map[string]model.SkillScore) ([]*model.RoleMatch, error) {
	start := time.Now()
	defer func() {
		metrics.RecordMatchingLatency(float64(time.Since(start).Milliseconds()))
	}()

	roleList, err := s.store.Roles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	skillsByID, err := s.skillsByID(ctx)
	if err != nil {
		return nil, err
	}

	var matches []*model.RoleMatch
	for _, role := range roleList {
		m := s.engine.Compatibility(studentID, scores, role, skillsByID)
		if m == nil {
			continue
		}
		metrics.RecordRoleMatch()
		if m.Disqualified() {
			metrics.RecordRoleDisqualification()
		}
		matches = append(matches, m)
	}
	s.engine.Rank(matches)
	return matches, nil
}

// ExtractSkills runs the free-text extractor against one input. Exposed
// for ad-hoc analysis of resume or project text.
func (s *Service) ExtractSkills(ctx context.Context, text string, source model.SourceKind) ([]model.SkillMatch, error) {
	matches, err := s.matcher.Match(ctx, text, source, match.WithBulletSplit())
	if err != nil {
		return nil, err
	}
	metrics.RecordExtraction()
	for _, m := range matches {
		metrics.RecordSkillMatch(m.MatchType)
	}
	return matches, nil
}

// MapCertification maps a certification title to catalog skills through the
// rule tables.
func (s *Service) MapCertification(ctx context.Context, title, provider string) ([]model.SkillMatch, error) {
	return s.certs.Map(ctx, title, provider)
}

// MapCourse maps a course's code, name, and syllabus to catalog skills.
func (s *Service) MapCourse(ctx context.Context, code, name, syllabus string) ([]model.SkillMatch, error) {
	return s.courses.Map(ctx, code, name, syllabus)
}

// SkillScores returns the student's persisted skill scores.
func (s *Service) SkillScores(ctx context.Context, studentID string) (map[string]model.SkillScore, error) {
	return s.store.SkillScoresByStudent(ctx, studentID)
}

// FindMatchingRoles ranks roles for a student from their persisted scores.
// Disqualified roles and roles under minCompatibility are dropped; at most
// limit results are returned. Zero arguments select the configured defaults.
func (s *Service) FindMatchingRoles(ctx context.Context, studentID string, minCompatibility float64, limit int) ([]*model.RoleMatch, error) {
	if minCompatibility <= 0 {
		minCompatibility = s.minCompatibility
	}
	if limit <= 0 {
		limit = s.matchLimit
	}

	scores, err := s.store.SkillScoresByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	all, err := s.computeRoleMatches(ctx, studentID, scores)
	if err != nil {
		return nil, err
	}
	// Refresh the cached set wholesale before filtering for the caller.
	if err := s.store.ReplaceRoleMatches(ctx, studentID, all); err != nil {
		return nil, fmt.Errorf("persist role matches: %w", err)
	}

	matches := make([]*model.RoleMatch, 0, len(all))
	for _, m := range all {
		if m.Disqualified() || m.Compatibility < minCompatibility {
			continue
		}
		matches = append(matches, m)
		if len(matches) >= limit {
			break
		}
	}
	return matches, nil
}

// RoleGaps reports what stands between a student and one role.
func (s *Service) RoleGaps(ctx context.Context, studentID, roleID string) (*model.GapReport, error) {
	role, err := s.store.RoleByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	scores, err := s.store.SkillScoresByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	skillsByID, err := s.skillsByID(ctx)
	if err != nil {
		return nil, err
	}

	m := s.engine.Compatibility(studentID, scores, role, skillsByID)
	if m == nil {
		return nil, fmt.Errorf("role %s: %w", roleID, ErrNoRequirements)
	}
	return s.engine.Gaps(m), nil
}

// RoleMatches returns the student's cached role matches.
func (s *Service) RoleMatches(ctx context.Context, studentID string) ([]*model.RoleMatch, error) {
	return s.store.RoleMatchesByStudent(ctx, studentID)
}

// EnqueueRecompute submits a recompute job for asynchronous processing.
// Returns false if the queue rejected the job.
func (s *Service) EnqueueRecompute(ctx context.Context, studentID string, done chan error) bool {
	return s.jobQueue.Enqueue(ctx, jobqueue.Job{StudentID: studentID, Done: done})
}

// RecomputeStudents recomputes a batch of students through the worker pool
// and waits for all of them. One student's failure never aborts the rest.
func (s *Service) RecomputeStudents(ctx context.Context, studentIDs []string) model.BatchResult {
	result := model.BatchResult{Errors: make(map[string]error)}

	replies := make(map[string]chan error, len(studentIDs))
	for _, id := range studentIDs {
		done := make(chan error, 1)
		if !s.EnqueueRecompute(ctx, id, done) {
			result.Errors[id] = ErrQueueRejected
			continue
		}
		replies[id] = done
	}

	for id, done := range replies {
		select {
		case err := <-done:
			if err != nil {
				result.Errors[id] = err
			} else {
				result.Recomputed++
			}
		case <-ctx.Done():
			result.Errors[id] = ctx.Err()
		}
	}
	return result
}

func (s *Service) skillsByID(ctx context.Context) (map[string]model.Skill, error) {
	skills, err := s.store.Skills(ctx)
	if err != nil {
		return nil, fmt.Errorf("load skill catalog: %w", err)
	}
	byID := make(map[string]model.Skill, len(skills))
	for _, skill := range skills {
		byID[skill.ID] = skill
	}
	return byID, nil
}
