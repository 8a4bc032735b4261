package api

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/ifc-analysis/backend/internal/models"
)

// mockSessionStore is an unlocked map-backed SessionStore for handler tests.
type mockSessionStore struct {
	sessions map[string]*models.Session
	nextID   int
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[string]*models.Session)}
}

func (m *mockSessionStore) Create() string {
	m.nextID++
	id := fmt.Sprintf("sess-%d", m.nextID)
	m.sessions[id] = models.NewSession(id)
	return id
}

func (m *mockSessionStore) Get(id string) (models.Session, bool) {
	sess, ok := m.sessions[id]
	if !ok {
		return models.Session{}, false
	}
	return *sess, true
}

func (m *mockSessionStore) Update(id string, fn func(*models.Session)) bool {
	sess, ok := m.sessions[id]
	if !ok {
		return false
	}
	fn(sess)
	return true
}

func (m *mockSessionStore) Delete(id string) bool {
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// seed registers a pre-populated session and returns its id.
func (m *mockSessionStore) seed(sess *models.Session) string {
	m.nextID++
	id := fmt.Sprintf("sess-%d", m.nextID)
	sess.ID = id
	m.sessions[id] = sess
	return id
}

type startCall struct {
	sessionID string
	filePath  string
	filename  string
}

// mockJobManager records Start calls and answers Poll from a canned state.
type mockJobManager struct {
	starts   []startCall
	startErr error
	jobID    string

	pollState models.JobState
	pollOK    bool
}

func (m *mockJobManager) Start(sessionID, filePath, filename string) (string, error) {
	m.starts = append(m.starts, startCall{sessionID, filePath, filename})
	if m.startErr != nil {
		return "", m.startErr
	}
	if m.jobID == "" {
		m.jobID = "job-1"
	}
	return m.jobID, nil
}

func (m *mockJobManager) Poll(sessionID, jobID string) (models.JobState, bool) {
	return m.pollState, m.pollOK
}

// mockValidator returns a canned report or error.
type mockValidator struct {
	report *models.Report
	err    error

	gotSessionID string
	gotFilename  string
	gotData      []byte
}

func (m *mockValidator) RunValidation(sessionID string, data []byte, filename string) (*models.Report, error) {
	m.gotSessionID = sessionID
	m.gotData = data
	m.gotFilename = filename
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

// mockIssueSource tracks Close calls on a report's issue store.
type mockIssueSource struct {
	issues []models.ValidationResult
	closed bool
}

func (m *mockIssueSource) Query(entity, reason string, page, pageSize int) ([]models.ValidationResult, int, error) {
	return m.issues, len(m.issues), nil
}

func (m *mockIssueSource) Close() error {
	m.closed = true
	return nil
}

// newTestContext builds an echo context around req, returning the recorder.
func newTestContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// multipartUpload builds a multipart body with a single "file" part.
func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

// requireAPIError asserts err is an APIError with the given HTTP status.
func requireAPIError(t *testing.T, err error, status int) *APIError {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok, "expected *APIError, got %T: %v", err, err)
	require.Equal(t, status, apiErr.Status)
	return apiErr
}
