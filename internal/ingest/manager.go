// Package ingest runs model parsing as background jobs against a session,
// with a bounded worker pool and pollable per-session job state.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ifc-analysis/backend/internal/models"
	"github.com/ifc-analysis/backend/internal/session"
)

// ErrSaturated is returned by Start when the admission queue is full.
var ErrSaturated = errors.New("fila de processamento cheia; tente novamente em instantes")

// ModelParser is the external collaborator that turns a model file into a
// structured index. Implementations delete the input file on success.
type ModelParser interface {
	Parse(path string) (*models.ModelIndex, error)
}

type task struct {
	sessionID string
	jobID     string
	epoch     int64
	filePath  string
	filename  string
}

// Manager owns the ingestion worker pool. Start never blocks on parsing: it
// records the queued job on the session and hands the file to a worker.
type Manager struct {
	sessions *session.Store
	parser   ModelParser
	queue    chan task
	wg       sync.WaitGroup
}

// NewManager creates a manager with the given pool size and admission queue
// capacity and starts its workers.
func NewManager(sessions *session.Store, parser ModelParser, workers, queueSize int) *Manager {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = workers
	}

	m := &Manager{
		sessions: sessions,
		parser:   parser,
		queue:    make(chan task, queueSize),
	}
	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker()
	}
	return m
}

// Start resets the session for a new model file, records a queued job and
// enqueues the parse. It returns the new job id without waiting for parsing.
// When the queue is saturated the job is marked failed, the temp file is
// removed and ErrSaturated is returned.
func (m *Manager) Start(sessionID, filePath, filename string) (string, error) {
	jobID := uuid.New().String()
	var epoch int64

	ok := m.sessions.Update(sessionID, func(s *models.Session) {
		s.JobEpoch++
		epoch = s.JobEpoch
		s.JobID = jobID
		s.JobStatus = models.JobStatusQueued
		s.JobProgress = 0
		s.JobMessage = "Novo arquivo recebido"
		s.ModelIndex = nil
		s.Filename = ""
		if s.Report != nil && s.Report.Store != nil {
			s.Report.Store.Close()
		}
		s.Report = nil
	})
	if !ok {
		return "", fmt.Errorf("sessão não encontrada")
	}

	t := task{sessionID: sessionID, jobID: jobID, epoch: epoch, filePath: filePath, filename: filename}
	select {
	case m.queue <- t:
		log.Info().Str("session", sessionID).Str("job", jobID).Str("file", filename).Msg("ingestion queued")
		return jobID, nil
	default:
		os.Remove(filePath)
		m.commit(t, func(s *models.Session) {
			s.JobStatus = models.JobStatusError
			s.JobProgress = 0
			s.JobMessage = ErrSaturated.Error()
		})
		return "", ErrSaturated
	}
}

// Poll returns the session's current job state. A job id other than the one
// currently recorded on the session is reported as not found, stale ids
// included.
func (m *Manager) Poll(sessionID, jobID string) (models.JobState, bool) {
	sess, ok := m.sessions.Get(sessionID)
	if !ok || sess.JobID != jobID {
		return models.JobState{}, false
	}
	return models.JobState{
		Status:   sess.JobStatus,
		Progress: sess.JobProgress,
		Message:  sess.JobMessage,
	}, true
}

// Close stops accepting work and waits for in-flight jobs to finish.
func (m *Manager) Close() {
	close(m.queue)
	m.wg.Wait()
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for t := range m.queue {
		m.process(t)
	}
}

func (m *Manager) process(t task) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("job", t.jobID).Interface("panic", r).Msg("ingestion panicked")
			m.failJob(t, fmt.Sprintf("erro no processamento: %v", r))
		}
	}()

	m.commit(t, func(s *models.Session) {
		s.JobStatus = models.JobStatusRunning
		s.JobProgress = 10
		s.JobMessage = "Processando IFC..."
	})

	index, err := m.parser.Parse(t.filePath)
	if err != nil {
		log.Error().Err(err).Str("job", t.jobID).Msg("ingestion failed")
		m.failJob(t, fmt.Sprintf("erro no processamento: %v", err))
		return
	}

	committed := m.commit(t, func(s *models.Session) {
		s.ModelIndex = index
		s.Filename = t.filename
		s.JobStatus = models.JobStatusDone
		s.JobProgress = 100
		s.JobMessage = "Processamento concluído"
	})
	if !committed {
		log.Warn().Str("job", t.jobID).Msg("discarding result of superseded job")
		return
	}

	log.Info().Str("job", t.jobID).Int("elements", len(index.Elements)).Msg("ingestion done")
}

func (m *Manager) failJob(t task, message string) {
	if err := os.Remove(t.filePath); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", t.filePath).Msg("could not remove temp file")
	}
	m.commit(t, func(s *models.Session) {
		s.JobStatus = models.JobStatusError
		s.JobProgress = 0
		s.JobMessage = message
	})
}

// commit applies fn to the session only if it still carries the job's epoch,
// so a superseded job can never overwrite a newer upload's state. Returns
// false when the session is gone or the job is stale.
func (m *Manager) commit(t task, fn func(*models.Session)) bool {
	current := false
	m.sessions.Update(t.sessionID, func(s *models.Session) {
		if s.JobEpoch != t.epoch || s.JobID != t.jobID {
			return
		}
		current = true
		fn(s)
	})
	return current
}
