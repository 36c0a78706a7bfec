package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
	"github.com/opsdeck/helpdesk-backend/internal/core/mocks"
	"github.com/opsdeck/helpdesk-backend/internal/core/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type projectHandlerFixture struct {
	projectRepo *mocks.MockProjectRepository
	broadcaster *mocks.MockEventBroadcaster
	router      http.Handler
}

func newProjectHandlerFixture() *projectHandlerFixture {
	f := &projectHandlerFixture{
		projectRepo: new(mocks.MockProjectRepository),
		broadcaster: new(mocks.MockEventBroadcaster),
	}
	f.broadcaster.On("Broadcast", mock.AnythingOfType("domain.Event")).Return(nil).Maybe()

	svc := services.NewProjectService(f.projectRepo, f.broadcaster, testLogger())
	handler := NewProjectHandler(svc, NewErrorHandler(testLogger()), testLogger())
	f.router = handler.Router()
	return f
}

func newStoredTask(t *testing.T, projectID uuid.UUID) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(domain.TaskParams{
		ProjectID: projectID,
		Title:     "Wire up staging",
	})
	require.NoError(t, err)
	return task
}

func TestProjectHandler_TaskRoutesNestUnderProject(t *testing.T) {
	projectID := uuid.New()

	t.Run("PATCH updates a task", func(t *testing.T) {
		f := newProjectHandlerFixture()
		task := newStoredTask(t, projectID)

		f.projectRepo.On("GetTaskByID", mock.Anything, task.ID).Return(task, nil)
		call := f.projectRepo.On("UpdateTask", mock.Anything, mock.AnythingOfType("*domain.Task"))
		call.Run(func(args mock.Arguments) {
			call.ReturnArguments = mock.Arguments{args.Get(1), nil}
		})

		req := httptest.NewRequest(http.MethodPatch,
			"/"+projectID.String()+"/tasks/"+task.ID.String(),
			strings.NewReader(`{"status":"done"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		f.projectRepo.AssertCalled(t, "UpdateTask", mock.Anything, mock.Anything)
	})

	t.Run("DELETE removes a task", func(t *testing.T) {
		f := newProjectHandlerFixture()
		taskID := uuid.New()

		f.projectRepo.On("DeleteTask", mock.Anything, taskID).Return(nil)

		req := httptest.NewRequest(http.MethodDelete,
			"/"+projectID.String()+"/tasks/"+taskID.String(), nil)
		rec := httptest.NewRecorder()

		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("rejects a malformed project segment", func(t *testing.T) {
		f := newProjectHandlerFixture()
		taskID := uuid.New()

		req := httptest.NewRequest(http.MethodDelete,
			"/not-a-uuid/tasks/"+taskID.String(), nil)
		rec := httptest.NewRecorder()

		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		f.projectRepo.AssertNotCalled(t, "DeleteTask", mock.Anything, mock.Anything)
	})

	t.Run("no flat task route exists", func(t *testing.T) {
		f := newProjectHandlerFixture()

		req := httptest.NewRequest(http.MethodDelete, "/tasks/"+uuid.NewString(), nil)
		rec := httptest.NewRecorder()

		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
