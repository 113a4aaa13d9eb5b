package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/osvaldoandrade/imagegenie/internal/backend"
	"github.com/osvaldoandrade/imagegenie/internal/events"
	"github.com/osvaldoandrade/imagegenie/internal/metrics"
	"github.com/osvaldoandrade/imagegenie/internal/providers"
	"github.com/osvaldoandrade/imagegenie/internal/repository"
	"github.com/osvaldoandrade/imagegenie/internal/sink"
	"github.com/osvaldoandrade/imagegenie/internal/tracing"
	"github.com/osvaldoandrade/imagegenie/pkg/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/semaphore"
)

type GenerationService interface {
	SubmitBatch(ctx context.Context, req domain.BatchRequest) (domain.BatchID, error)
	CancelBatch(id domain.BatchID) error
	PollStatus(id domain.BatchID) (domain.BatchStatus, error)
	// Wait blocks until the batch is resolved or ctx ends.
	Wait(ctx context.Context, id domain.BatchID) (domain.BatchStatus, error)
	Tasks(id domain.BatchID) ([]domain.GenerationTask, error)
	Latest() (domain.BatchID, bool)
	LatestStatus() (domain.BatchStatus, bool)
	Subscribe() (<-chan domain.Event, func())
}

type GenerationOptions struct {
	MaxConcurrency int
	DefaultTimeout time.Duration
	MinTimeout     time.Duration
	Now            func() time.Time
}

type generationService struct {
	backend    backend.Client
	downloader providers.Downloader
	store      providers.ImageStore
	images     repository.ImageRepository
	sink       *sink.Sink
	bus        *events.Bus
	token      backend.TokenSource
	logger     *slog.Logger

	pool           *semaphore.Weighted
	defaultTimeout time.Duration
	minTimeout     time.Duration
	now            func() time.Time

	// root outlives batches; abandoned backend calls run under it.
	root context.Context

	mu      sync.Mutex
	batches map[domain.BatchID]*batch
	latest  *batch
}

func NewGenerationService(
	client backend.Client,
	downloader providers.Downloader,
	store providers.ImageStore,
	images repository.ImageRepository,
	results *sink.Sink,
	bus *events.Bus,
	token backend.TokenSource,
	logger *slog.Logger,
	opts GenerationOptions,
) GenerationService {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 10
	}
	if opts.MinTimeout <= 0 {
		opts.MinTimeout = 10 * time.Second
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = 180 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	if bus == nil {
		bus = events.NewBus(0)
	}
	if token == nil {
		token = func() string { return "" }
	}
	return &generationService{
		backend:        client,
		downloader:     downloader,
		store:          store,
		images:         images,
		sink:           results,
		bus:            bus,
		token:          token,
		logger:         logger,
		pool:           semaphore.NewWeighted(int64(opts.MaxConcurrency)),
		defaultTimeout: opts.DefaultTimeout,
		minTimeout:     opts.MinTimeout,
		now:            opts.Now,
		root:           context.Background(),
		batches:        map[domain.BatchID]*batch{},
	}
}

// batch owns its task table; mu orders cancellation against commits.
// remaining counts tasks whose terminal side effects have not been announced.
type batch struct {
	id      domain.BatchID
	req     domain.BatchRequest
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	tasks     []*domain.GenerationTask
	settled   map[*domain.GenerationTask]bool
	remaining int
	done      chan struct{}
}

type finished struct {
	ref   *domain.GenerationTask
	task  domain.GenerationTask
	state domain.TaskState
}

// statusLocked reports a terminal task as running until it has settled, so a
// resolved status implies every file, row and event of the batch is done.
func (b *batch) statusLocked() domain.BatchStatus {
	st := domain.BatchStatus{ID: b.id, Total: len(b.tasks)}
	for _, t := range b.tasks {
		state := t.State
		if state.Terminal() && !b.settled[t] {
			state = domain.StateRunning
		}
		if state == domain.StateCompleted && t.Error != "" {
			st.Failed++
		}
		switch state {
		case domain.StateQueued:
			st.Queued++
		case domain.StateRunning:
			st.Running++
		case domain.StateCompleted:
			st.Completed++
		case domain.StateCanceled:
			st.Canceled++
		case domain.StateTimeout:
			st.Timeout++
		}
	}
	return st
}

// transitionLocked applies next if legal.
func (b *batch) transitionLocked(t *domain.GenerationTask, next domain.TaskState, at time.Time) bool {
	if !t.State.CanTransition(next) {
		return false
	}
	t.State = next
	switch {
	case next == domain.StateRunning:
		t.StartedAt = at
	case next.Terminal():
		t.FinishedAt = at
	}
	return true
}

// settle records that t finished its side effects and reports whether it was
// the last task of the batch.
func (b *batch) settle(t *domain.GenerationTask) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.settled[t] {
		return false
	}
	b.settled[t] = true
	b.remaining--
	return b.remaining == 0
}

func (b *batch) resolved() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining == 0
}

func (s *generationService) SubmitBatch(ctx context.Context, req domain.BatchRequest) (domain.BatchID, error) {
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		return "", domain.ErrEmptyPrompt
	}
	if len(req.Models) == 0 {
		return "", domain.ErrNoModels
	}
	if req.ReplicatesPerModel == 0 {
		req.ReplicatesPerModel = 1
	}
	if req.ReplicatesPerModel < 1 {
		return "", domain.ErrInvalidReplicates
	}
	if strings.TrimSpace(s.token()) == "" {
		return "", domain.ErrMissingToken
	}
	timeout := req.TaskTimeout
	if timeout == 0 {
		timeout = s.defaultTimeout
	}
	if timeout < s.minTimeout {
		timeout = s.minTimeout
	}
	req.TaskTimeout = timeout
	if strings.TrimSpace(req.UserID) == "" {
		req.UserID = domain.AnonymousUserID
	}

	s.mu.Lock()
	if s.latest != nil && !s.latest.resolved() {
		s.mu.Unlock()
		return "", domain.ErrBatchInProgress
	}

	now := s.now()
	bctx, cancel := context.WithCancel(s.root)
	b := &batch{
		id:      domain.BatchID(uuid.NewString()),
		req:     req,
		timeout: timeout,
		ctx:     bctx,
		cancel:  cancel,
		settled: map[*domain.GenerationTask]bool{},
		done:    make(chan struct{}),
	}
	for mi, m := range req.Models {
		for k := 1; k <= req.ReplicatesPerModel; k++ {
			name := m.Name
			if req.ReplicatesPerModel > 1 {
				name = fmt.Sprintf("%s (Image %d)", m.Name, k)
			}
			label := name
			if req.Anonymize {
				label = fmt.Sprintf("Image %d", mi*req.ReplicatesPerModel+k)
			}
			b.tasks = append(b.tasks, &domain.GenerationTask{
				Name:        name,
				Label:       label,
				ModelName:   m.Name,
				ModelID:     m.ID,
				Prompt:      req.Prompt,
				State:       domain.StateQueued,
				SubmittedAt: now,
			})
		}
	}
	b.remaining = len(b.tasks)
	s.batches = map[domain.BatchID]*batch{b.id: b}
	s.latest = b
	s.mu.Unlock()

	if s.sink != nil {
		s.sink.Clear()
	}
	metrics.BatchSubmittedTotal.Inc()
	s.logger.Info(fmt.Sprintf("Starting generation with prompt: %s", truncate(req.Prompt, 50)),
		"batch", b.id, "tasks", len(b.tasks), "timeout", timeout.String())

	for _, t := range b.tasks {
		s.logger.Info("Queuing model: "+t.Name, "batch", b.id)
		go s.runTask(b, t)
	}
	return b.id, nil
}

func (s *generationService) runTask(b *batch, t *domain.GenerationTask) {
	if err := s.pool.Acquire(b.ctx, 1); err != nil {
		return
	}
	defer s.pool.Release(1)

	b.mu.Lock()
	ok := b.transitionLocked(t, domain.StateRunning, s.now())
	snap := *t
	b.mu.Unlock()
	if !ok {
		return
	}

	ctx, span := tracing.Tracer().Start(b.ctx, "generation.task")
	span.SetAttributes(
		attribute.String("imagegenie.batch", string(b.id)),
		attribute.String("imagegenie.task", snap.Name),
		attribute.String("imagegenie.model_id", snap.ModelID),
	)
	defer span.End()
	started := time.Now()

	s.logger.Info("Starting generation with "+snap.Name+"...", "batch", b.id)

	type result struct {
		out backend.Output
		err error
	}
	resCh := make(chan result, 1)
	callCtx, callCancel := context.WithTimeout(s.root, 2*b.timeout)
	go func() {
		defer callCancel()
		out, err := s.backend.Run(callCtx, snap.ModelID, map[string]any{"prompt": snap.Prompt})
		resCh <- result{out: out, err: err}
	}()

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	var res result
	select {
	case res = <-resCh:
	case <-timer.C:
		if !s.finish(b, t, domain.StateTimeout, "") {
			return
		}
		span.SetStatus(codes.Error, "timeout")
		s.observe(snap.ModelName, "timeout", started)
		s.logger.Warn(fmt.Sprintf("Generation with %s timed out after %d seconds", snap.Name, int(b.timeout.Seconds())), "batch", b.id)
		return
	case <-b.ctx.Done():
		s.logger.Info("Generation with "+snap.Name+" was canceled", "batch", b.id)
		s.observe(snap.ModelName, "canceled", started)
		return
	}

	rec, payload, err := s.fetch(ctx, snap, res.out, res.err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if s.finish(b, t, domain.StateCompleted, err.Error()) {
			s.observe(snap.ModelName, "failed", started)
			s.logger.Warn(fmt.Sprintf("Failed to generate image with %s: %v", snap.Name, err), "batch", b.id)
		}
		return
	}

	if !s.isRunning(b, t) {
		s.logger.Info("Discarding result of "+snap.Name+" after cancellation", "batch", b.id)
		return
	}
	rec.CreatedAt = s.now()
	rec.FilePath = s.save(ctx, b, rec, payload)

	fin, ok := s.commit(b, t, rec)
	if !ok {
		s.discard(rec.FilePath)
		s.logger.Info("Discarding result of "+snap.Name+" after cancellation", "batch", b.id)
		return
	}
	s.observe(snap.ModelName, "succeeded", started)
	s.logger.Info(fmt.Sprintf("Image generated by %s and saved at %s", snap.Name, rec.FilePath), "batch", b.id)
	s.persist(ctx, b, rec)
	s.announce(b, fin)
}

// fetch normalizes the backend output and downloads the referenced image.
func (s *generationService) fetch(ctx context.Context, t domain.GenerationTask, out backend.Output, runErr error) (domain.GeneratedImage, providers.Payload, error) {
	if runErr != nil {
		return domain.GeneratedImage{}, providers.Payload{}, fmt.Errorf("backend: %w", runErr)
	}
	ref, err := out.ImageReference()
	if err != nil {
		return domain.GeneratedImage{}, providers.Payload{}, err
	}
	s.logger.Debug("Downloading image from "+t.Name+"...", "url", ref)
	p, err := s.downloader.Fetch(ctx, ref)
	if err != nil {
		metrics.DownloadFailuresTotal.Inc()
		return domain.GeneratedImage{}, providers.Payload{}, err
	}
	bounds := p.Image.Bounds()
	return domain.GeneratedImage{
		Name:      t.Name,
		Label:     t.Label,
		ModelName: t.ModelName,
		ModelID:   t.ModelID,
		Prompt:    t.Prompt,
		Format:    p.Format,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		Image:     p.Image,
	}, p, nil
}

func (s *generationService) isRunning(b *batch, t *domain.GenerationTask) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return t.State == domain.StateRunning
}

// save writes the image file; a failed write leaves the record without a path.
func (s *generationService) save(ctx context.Context, b *batch, rec domain.GeneratedImage, p providers.Payload) string {
	if s.store == nil {
		return ""
	}
	path, err := s.store.Save(ctx, rec.ModelName, rec.Prompt, p, rec.CreatedAt)
	if err != nil {
		if ctx.Err() == nil {
			metrics.PersistenceErrorsTotal.WithLabelValues("file").Inc()
			s.logger.Error("Error saving image for "+rec.Name+": "+err.Error(), "batch", b.id)
		}
		return ""
	}
	return path
}

func (s *generationService) discard(path string) {
	if s.store == nil || path == "" {
		return
	}
	if err := s.store.Remove(path); err != nil {
		s.logger.Warn("Could not remove discarded image " + path + ": " + err.Error())
	}
}

// commit completes t and emits the record only if t is still running.
func (s *generationService) commit(b *batch, t *domain.GenerationTask, rec domain.GeneratedImage) (finished, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t.State != domain.StateRunning {
		return finished{}, false
	}
	b.transitionLocked(t, domain.StateCompleted, s.now())
	if s.sink != nil {
		s.sink.AppendOrReplace(rec)
	}
	return finished{ref: t, task: *t, state: domain.StateCompleted}, true
}

// finish moves t to a terminal state; it reports false when t was already terminal.
func (s *generationService) finish(b *batch, t *domain.GenerationTask, state domain.TaskState, diagnostic string) bool {
	b.mu.Lock()
	ok := b.transitionLocked(t, state, s.now())
	if ok && diagnostic != "" {
		t.Error = diagnostic
	}
	snap := *t
	b.mu.Unlock()
	if !ok {
		return false
	}
	s.announce(b, finished{ref: t, task: snap, state: state})
	return true
}

// announce publishes a terminal task and resolves the batch after the last one.
func (s *generationService) announce(b *batch, fin finished) {
	at := s.now()
	s.bus.Publish(domain.Event{
		Type:    domain.EventTaskFinished,
		BatchID: b.id,
		Task:    fin.task.Name,
		State:   fin.state,
		Message: fin.task.Error,
		At:      at,
	})
	if !b.settle(fin.ref) {
		return
	}
	b.cancel()
	b.mu.Lock()
	st := b.statusLocked()
	b.mu.Unlock()
	s.bus.Publish(domain.Event{Type: domain.EventBatchResolved, BatchID: b.id, Message: st.Summary(), At: at})
	s.logger.Info(st.Summary(), "batch", b.id)
	close(b.done)
}

func (s *generationService) persist(ctx context.Context, b *batch, rec domain.GeneratedImage) {
	if s.images == nil || rec.FilePath == "" {
		return
	}
	err := s.images.Save(context.WithoutCancel(ctx), domain.ImageEntity{
		ImageID:   uuid.NewString(),
		UserID:    b.req.UserID,
		FilePath:  rec.FilePath,
		Prompt:    rec.Prompt,
		ModelName: rec.ModelName,
		ModelID:   rec.ModelID,
		CreatedAt: rec.CreatedAt.UTC(),
	})
	if err != nil {
		metrics.PersistenceErrorsTotal.WithLabelValues("database").Inc()
		s.logger.Error("Error saving image to database: "+err.Error(), "batch", b.id)
	}
}

func (s *generationService) observe(model, outcome string, started time.Time) {
	metrics.TaskFinishedTotal.WithLabelValues(model, outcome).Inc()
	metrics.TaskDurationSeconds.WithLabelValues(model, outcome).Observe(time.Since(started).Seconds())
}

func (s *generationService) CancelBatch(id domain.BatchID) error {
	b, err := s.lookup(id)
	if err != nil {
		return err
	}

	var fins []finished
	b.mu.Lock()
	at := s.now()
	for _, t := range b.tasks {
		if b.transitionLocked(t, domain.StateCanceled, at) {
			fins = append(fins, finished{ref: t, task: *t, state: domain.StateCanceled})
		}
	}
	b.mu.Unlock()
	b.cancel()

	if len(fins) > 0 {
		s.logger.Info(fmt.Sprintf("Canceled %d pending generation(s)", len(fins)), "batch", b.id)
	}
	for _, fin := range fins {
		s.announce(b, fin)
	}
	return nil
}

func (s *generationService) PollStatus(id domain.BatchID) (domain.BatchStatus, error) {
	b, err := s.lookup(id)
	if err != nil {
		return domain.BatchStatus{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statusLocked(), nil
}

func (s *generationService) Wait(ctx context.Context, id domain.BatchID) (domain.BatchStatus, error) {
	b, err := s.lookup(id)
	if err != nil {
		return domain.BatchStatus{}, err
	}
	select {
	case <-b.done:
	case <-ctx.Done():
		return domain.BatchStatus{}, ctx.Err()
	}
	return s.PollStatus(id)
}

func (s *generationService) Tasks(id domain.BatchID) ([]domain.GenerationTask, error) {
	b, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.GenerationTask, len(b.tasks))
	for i, t := range b.tasks {
		out[i] = *t
	}
	return out, nil
}

func (s *generationService) Latest() (domain.BatchID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return "", false
	}
	return s.latest.id, true
}

func (s *generationService) LatestStatus() (domain.BatchStatus, bool) {
	id, ok := s.Latest()
	if !ok {
		return domain.BatchStatus{}, false
	}
	st, err := s.PollStatus(id)
	return st, err == nil
}

func (s *generationService) Subscribe() (<-chan domain.Event, func()) {
	return s.bus.Subscribe()
}

func (s *generationService) lookup(id domain.BatchID) (*batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[id]
	if !ok {
		return nil, domain.ErrBatchNotFound
	}
	return b, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
