package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"journal/pkg/logger"

	"github.com/go-co-op/gocron"
)

type Schedule int

const (
	EveryMinute Schedule = iota
	Hourly
	Daily // 02:00 UTC
)

// Job is a unit of scheduled work
type Job interface {
	Name() string
	// Execute receives the scheduler's context, cancelled on Stop
	Execute(ctx context.Context) error
	Schedule() Schedule
}

// JobStatus is the outcome of a job's most recent run. LastRun is nil until the job
// has run once.
type JobStatus struct {
	Name       string     `json:"name"`
	LastRun    *time.Time `json:"lastRun,omitempty"`
	DurationMS int64      `json:"durationMs"`
	LastError  string     `json:"lastError,omitempty"`
	Runs       int        `json:"runs"`
	Failures   int        `json:"failures"`
}

type SchedulerService struct {
	scheduler *gocron.Scheduler
	jobs      []Job
	status    map[string]*JobStatus
	log       logger.Logger
	started   bool
	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewSchedulerService() *SchedulerService {
	scheduler := gocron.NewScheduler(time.UTC)
	// A tick that lands while the previous run is still going is skipped
	scheduler.SingletonModeAll()

	ctx, cancel := context.WithCancel(context.Background())

	return &SchedulerService{
		scheduler: scheduler,
		jobs:      make([]Job, 0),
		status:    make(map[string]*JobStatus),
		log:       logger.New("scheduler"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *SchedulerService) executeJob(job Job) {
	log := s.log.Function("executeJob").With("job", job.Name())

	started := time.Now()
	err := job.Execute(s.ctx)
	elapsed := time.Since(started)

	if err != nil {
		log.Er("Job execution failed", err, "duration", elapsed)
	} else {
		log.Debug("Job execution finished", "duration", elapsed)
	}

	s.recordRun(job.Name(), started, elapsed, err)
}

func (s *SchedulerService) recordRun(name string, started time.Time, elapsed time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.status[name]
	if !ok {
		status = &JobStatus{Name: name}
		s.status[name] = status
	}

	runAt := started.UTC()
	status.LastRun = &runAt
	status.DurationMS = elapsed.Milliseconds()
	status.Runs++
	status.LastError = ""
	if err != nil {
		status.LastError = err.Error()
		status.Failures++
	}
}

func (s *SchedulerService) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.Function("AddJob")

	run := func() { s.executeJob(job) }

	var err error
	switch job.Schedule() {
	case EveryMinute:
		_, err = s.scheduler.Every(1).Minute().Do(run)
	case Hourly:
		_, err = s.scheduler.Every(1).Hour().Do(run)
	case Daily:
		_, err = s.scheduler.Every(1).Day().At("02:00").Do(run)
	default:
		err = fmt.Errorf("unknown schedule %d", job.Schedule())
	}
	if err != nil {
		return log.Err("failed to register job with scheduler", err, "job", job.Name())
	}

	s.jobs = append(s.jobs, job)
	if _, ok := s.status[job.Name()]; !ok {
		s.status[job.Name()] = &JobStatus{Name: job.Name()}
	}
	log.Info("Job registered", "job", job.Name())

	return nil
}

func (s *SchedulerService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.Function("Start")

	if s.started {
		return nil
	}

	if len(s.jobs) == 0 {
		log.Info("No jobs registered, scheduler will not start")
		return nil
	}

	s.scheduler.StartAsync()
	s.started = true

	for _, job := range s.scheduler.Jobs() {
		log.Info("Job scheduled", "nextRun", job.NextRun())
	}

	log.Info("Scheduler started", "jobCount", len(s.jobs))
	return nil
}

func (s *SchedulerService) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.cancel()
	s.scheduler.Stop()
	s.started = false

	s.log.Function("Stop").Info("Scheduler stopped")
	return nil
}

func (s *SchedulerService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func (s *SchedulerService) GetJobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Status returns a copy of every registered job's last-run record in registration order
func (s *SchedulerService) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]JobStatus, 0, len(s.jobs))
	for _, job := range s.jobs {
		if status, ok := s.status[job.Name()]; ok {
			statuses = append(statuses, *status)
		}
	}
	return statuses
}
