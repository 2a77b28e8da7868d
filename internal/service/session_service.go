package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"invoicerecon/internal/cache"
	"invoicerecon/internal/domain"
	"invoicerecon/internal/logger"
	"invoicerecon/internal/reconcile"
)

// SessionService manages processing sessions. A session owns a result
// cache that lives until the session is deleted.
type SessionService interface {
	Create(ctx context.Context) (*domain.SessionInfo, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.SessionInfo, error)
	List(ctx context.Context) ([]domain.SessionInfo, error)
	// AddDocuments processes docs within the session and returns the
	// summary of this call. Names already processed in the session are
	// served from its cache.
	AddDocuments(ctx context.Context, id uuid.UUID, docs []domain.SourceDocument) (*reconcile.BatchSummary, error)
	// Summary aggregates every result recorded in the session so far.
	Summary(ctx context.Context, id uuid.UUID) (*reconcile.BatchSummary, error)
	// Delete runs the configured cleanup hooks and then discards the
	// session. A failing hook leaves the session in place.
	Delete(ctx context.Context, id uuid.UUID) error
}

// DeleteHook releases resources held outside the service for a session.
type DeleteHook func(ctx context.Context, id uuid.UUID) error

// SessionOption customizes a SessionService.
type SessionOption func(*sessionService)

// OnDelete registers a hook run before a session is discarded.
func OnDelete(hook DeleteHook) SessionOption {
	return func(s *sessionService) { s.onDelete = append(s.onDelete, hook) }
}

type session struct {
	id        uuid.UUID
	createdAt time.Time

	// run serializes batch runs within the session.
	run sync.Mutex

	mu        sync.Mutex
	updatedAt time.Time
	results   *cache.ResultCache
}

func (s *session) info() *domain.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &domain.SessionInfo{
		ID:            s.id,
		DocumentCount: s.results.Len(),
		CreatedAt:     s.createdAt,
		UpdatedAt:     s.updatedAt,
	}
}

func (s *session) touch(now time.Time) {
	s.mu.Lock()
	s.updatedAt = now
	s.mu.Unlock()
}

type sessionService struct {
	batch    BatchService
	log      logrus.FieldLogger
	now      func() time.Time
	onDelete []DeleteHook

	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
}

// NewSessionService creates a new in-memory SessionService implementation.
func NewSessionService(batch BatchService, log logrus.FieldLogger, opts ...SessionOption) SessionService {
	s := &sessionService{
		batch:    batch,
		log:      logger.Component(log, "session"),
		now:      func() time.Time { return time.Now().UTC() },
		sessions: make(map[uuid.UUID]*session),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *sessionService) Create(_ context.Context) (*domain.SessionInfo, error) {
	now := s.now()
	sess := &session{
		id:        uuid.New(),
		createdAt: now,
		updatedAt: now,
		results:   cache.NewResultCache(),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.log.WithField("session_id", sess.id).Info("sessionService.Create: session created")
	return sess.info(), nil
}

func (s *sessionService) lookup(id uuid.UUID) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

func (s *sessionService) Get(_ context.Context, id uuid.UUID) (*domain.SessionInfo, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return sess.info(), nil
}

func (s *sessionService) List(_ context.Context) ([]domain.SessionInfo, error) {
	s.mu.RLock()
	out := make([]domain.SessionInfo, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, *sess.info())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *sessionService) AddDocuments(ctx context.Context, id uuid.UUID, docs []domain.SourceDocument) (*reconcile.BatchSummary, error) {
	if len(docs) == 0 {
		return nil, domain.ErrNoDocuments
	}
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	sess.run.Lock()
	defer sess.run.Unlock()

	log := s.log.WithField("session_id", id)
	summary, err := s.batch.Process(ctx, sess.results, docs, func(processed, total int, name string) {
		log.WithField("document", name).Infof("processing file %d of %d", processed, total)
	})
	sess.touch(s.now())
	if err != nil {
		log.WithError(err).Warn("sessionService.AddDocuments: batch interrupted")
		return summary, err
	}
	return summary, nil
}

func (s *sessionService) Summary(_ context.Context, id uuid.UUID) (*reconcile.BatchSummary, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	results := sess.results.Results()
	summary := reconcile.NewBatchSummary(len(results))
	for _, r := range results {
		summary.Add(r, true)
	}
	return summary, nil
}

func (s *sessionService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.lookup(id); err != nil {
		return err
	}
	for _, hook := range s.onDelete {
		if err := hook(ctx, id); err != nil {
			s.log.WithError(err).WithField("session_id", id).Error("sessionService.Delete: cleanup failed")
			return fmt.Errorf("cleaning up session %s: %w", id, err)
		}
	}

	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return domain.ErrSessionNotFound
	}
	s.log.WithField("session_id", id).Info("sessionService.Delete: session discarded")
	return nil
}
