package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/missionctl/taskrelay/internal/config"
	"github.com/missionctl/taskrelay/internal/domain"
	"github.com/missionctl/taskrelay/internal/handler"
	"github.com/missionctl/taskrelay/internal/handler/dto"
	"github.com/missionctl/taskrelay/internal/notify"
	"github.com/missionctl/taskrelay/internal/relay"
	"github.com/missionctl/taskrelay/internal/store"
	"github.com/stretchr/testify/suite"
)

const (
	testToken           = "test-token"
	operatorChatID      = int64(7548763122)
	strangerChatID      = int64(4242)
	testWebhookSecret   = "hook-secret"
	webhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"
)

type HandlerTestSuite struct {
	suite.Suite
	store   *store.MemoryStore
	issuer  *relay.Issuer
	mux     *http.ServeMux
	handler *handler.Handler
	clock   int64
}

func (s *HandlerTestSuite) SetupTest() {
	s.store = store.NewMemoryStore()
	s.issuer = relay.NewIssuer(s.store, notify.Discard)
	correlator := relay.NewCorrelator(s.store, []int64{operatorChatID})

	s.clock = 1000
	tick := func() int64 {
		now := s.clock
		s.clock++
		return now
	}
	s.issuer.Now = tick
	correlator.Now = tick

	s.handler = handler.New(s.store, s.issuer, correlator, &config.Relay{
		APIToken:      testToken,
		WebhookSecret: testWebhookSecret,
	})

	s.mux = http.NewServeMux()
	s.handler.RegisterRoutes(s.mux)
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

// makeRequest performs an authenticated dashboard request.
func (s *HandlerTestSuite) makeRequest(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var bodyReader *bytes.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	} else {
		bodyReader = bytes.NewReader([]byte{})
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	return w
}

// postWebhook delivers a Telegram-shaped update to the webhook endpoint.
func (s *HandlerTestSuite) postWebhook(chatID int64, text string) *httptest.ResponseRecorder {
	payload := fmt.Sprintf(
		`{"update_id":1,"message":{"message_id":10,"date":1700000000,"chat":{"id":%d,"type":"private"},"text":%q}}`,
		chatID, text,
	)
	req := httptest.NewRequest(http.MethodPost, "/webhook/telegram", bytes.NewReader([]byte(payload)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(webhookSecretHeader, testWebhookSecret)

	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) decodeTask(w *httptest.ResponseRecorder) dto.TaskDetail {
	var detail dto.TaskDetail
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&detail))
	return detail
}

// --- Dashboard API ---

func (s *HandlerTestSuite) TestSubmitTask() {
	w := s.makeRequest(http.MethodPost, "/api/v1/tasks", testToken, dto.SubmitTaskRequest{
		Handler: "sage",
		Request: "Run SEO audit",
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	task := s.decodeTask(w)
	s.Equal("sage-1000", task.ID)
	s.Equal("Sage", task.HandlerName)
	s.Equal("pending", task.Status)
	s.Equal(int64(1000), task.CreatedAt)

	stored, err := s.store.Get(s.T().Context(), task.ID)
	s.Require().NoError(err)
	s.Equal(domain.TaskStatusPending, stored.Status)
}

func (s *HandlerTestSuite) TestSubmitTaskRequiresAuth() {
	w := s.makeRequest(http.MethodPost, "/api/v1/tasks", "", dto.SubmitTaskRequest{
		Handler: "sage",
		Request: "Run SEO audit",
	})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.makeRequest(http.MethodPost, "/api/v1/tasks", "wrong-token", dto.SubmitTaskRequest{
		Handler: "sage",
		Request: "Run SEO audit",
	})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlerTestSuite) TestSubmitTaskValidation() {
	w := s.makeRequest(http.MethodPost, "/api/v1/tasks", testToken, dto.SubmitTaskRequest{
		Handler: "sage",
		Request: "",
	})
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.makeRequest(http.MethodPost, "/api/v1/tasks", testToken, dto.SubmitTaskRequest{
		Handler: "intern",
		Request: "do something",
	})
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	// No task was created by either rejected submission.
	s.Empty(s.issuer.Tasks())
}

func (s *HandlerTestSuite) TestGetTask() {
	created := s.decodeTask(s.makeRequest(http.MethodPost, "/api/v1/tasks", testToken, dto.SubmitTaskRequest{
		Handler: "dev",
		Request: "Fix the contact form",
	}))

	w := s.makeRequest(http.MethodGet, "/api/v1/tasks/"+created.ID, testToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(created.ID, s.decodeTask(w).ID)
}

func (s *HandlerTestSuite) TestGetTaskNotFound() {
	w := s.makeRequest(http.MethodGet, "/api/v1/tasks/dev-999", testToken, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestGetTaskRejectsMalformedID() {
	w := s.makeRequest(http.MethodGet, "/api/v1/tasks/not-an-id", testToken, nil)
	s.Require().Equal(http.StatusBadRequest, w.Code)

	var resp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
	s.Equal("INVALID_REQUEST", resp.Error.Code)
	s.Contains(resp.Error.Message, "invalid task id")
}

func (s *HandlerTestSuite) TestListTasks() {
	s.makeRequest(http.MethodPost, "/api/v1/tasks", testToken, dto.SubmitTaskRequest{Handler: "dev", Request: "one"})
	s.makeRequest(http.MethodPost, "/api/v1/tasks", testToken, dto.SubmitTaskRequest{Handler: "pixel", Request: "two"})

	w := s.makeRequest(http.MethodGet, "/api/v1/tasks", testToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var list dto.TasksListResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&list))
	s.Equal(2, list.Total)
	s.Equal("pixel", list.Tasks[0].Handler, "newest first")
}

// --- Webhook ---

func (s *HandlerTestSuite) TestWebhookRejectsNonPost() {
	req := httptest.NewRequest(http.MethodGet, "/webhook/telegram", nil)
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	s.Equal(http.StatusMethodNotAllowed, w.Code)
}

func (s *HandlerTestSuite) TestWebhookRejectsBadSecret() {
	req := httptest.NewRequest(http.MethodPost, "/webhook/telegram", bytes.NewReader([]byte(`{}`)))
	req.Header.Set(webhookSecretHeader, "wrong")
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlerTestSuite) TestWebhookAcknowledgesEmptyUpdate() {
	req := httptest.NewRequest(http.MethodPost, "/webhook/telegram", bytes.NewReader([]byte(`{"update_id":1}`)))
	req.Header.Set(webhookSecretHeader, testWebhookSecret)
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)
	var ack dto.WebhookAck
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&ack))
	s.True(ack.OK)
}

func (s *HandlerTestSuite) TestWebhookIgnoresUnauthorizedSender() {
	w := s.postWebhook(strangerChatID, "sage-1000 hijacked")
	s.Equal(http.StatusOK, w.Code)

	_, err := s.store.Get(s.T().Context(), "sage-1000")
	s.ErrorIs(err, domain.ErrTaskNotFound)
}

func (s *HandlerTestSuite) TestWebhookAcknowledgesWhenNoTaskID() {
	w := s.postWebhook(operatorChatID, "Looks great, thanks!")
	s.Equal(http.StatusOK, w.Code)

	var ack dto.WebhookAck
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&ack))
	s.True(ack.OK)
	s.Equal("no task id found in message", ack.Message)
}

func (s *HandlerTestSuite) TestWebhookCompletesTaskAndPollSurfacesOnce() {
	created := s.decodeTask(s.makeRequest(http.MethodPost, "/api/v1/tasks", testToken, dto.SubmitTaskRequest{
		Handler: "sage",
		Request: "Run SEO audit",
	}))

	w := s.postWebhook(operatorChatID, created.ID+" Audit complete, see attached")
	s.Require().Equal(http.StatusOK, w.Code)

	var ack dto.WebhookAck
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&ack))
	s.True(ack.OK)
	s.Equal(created.ID, ack.TaskID)
	s.Equal("response saved", ack.Message)

	// First poll surfaces the completion.
	pollW := s.makeRequest(http.MethodPost, "/api/v1/tasks/poll", testToken, nil)
	s.Require().Equal(http.StatusOK, pollW.Code)
	var poll dto.PollResponse
	s.Require().NoError(json.NewDecoder(pollW.Body).Decode(&poll))
	s.Require().Equal(1, poll.Count)
	s.Equal(created.ID, poll.Completed[0].ID)
	s.Equal("Audit complete, see attached", poll.Completed[0].Response.Content)

	// Second poll returns nothing for this task.
	pollW = s.makeRequest(http.MethodPost, "/api/v1/tasks/poll", testToken, nil)
	s.Require().NoError(json.NewDecoder(pollW.Body).Decode(&poll))
	s.Equal(0, poll.Count)
}

func (s *HandlerTestSuite) TestHealthz() {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestSkillMd() {
	req := httptest.NewRequest(http.MethodGet, "/skill.md", nil)
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "task")
}
