package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/espe-ciber/sentinel-console/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 2*time.Second, testLogger(), WithRetry(0, 0))
}

func TestClient_Login_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/usuarios/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var creds models.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "alice", creds.Username)
		assert.Equal(t, "pw", creds.Password)

		w.Write([]byte(`{"user":{"username":"alice","role":"admin","email":"a@x.org"}}`))
	})

	user, err := c.Login(context.Background(), models.Credentials{Username: "alice", Password: "pw"})

	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.True(t, user.IsAdmin())
}

func TestClient_Login_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Invalid credentials"}`))
	})

	_, err := c.Login(context.Background(), models.Credentials{Username: "alice", Password: "bad"})

	var se *models.ServerError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Equal(t, "Invalid credentials", se.Message)
	assert.True(t, IsRejected(err))
	assert.Equal(t, http.StatusUnauthorized, StatusFor(err))
}

func TestClient_Login_MissingUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := c.Login(context.Background(), models.Credentials{Username: "a", Password: "b"})

	var se *models.ServerError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, StatusFor(err))
	assert.True(t, IsMalformed(err))
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url, time.Second, testLogger(), WithRetry(0, 0))
	_, err := c.ListUsers(context.Background())

	assert.True(t, IsUnreachable(err))
	assert.Equal(t, http.StatusBadGateway, StatusFor(err))
}

func TestClient_GetRetriesOnlyConnectionFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, time.Second, testLogger(), WithRetry(3, time.Millisecond))
	_, err := c.ListHistory(context.Background())

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "a 5xx answer is not retried")
	assert.Equal(t, http.StatusBadGateway, StatusFor(err))
}

func TestClient_Predict_SendsActorHeader(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predecir", r.URL.Path)
		assert.Equal(t, "alice", r.Header.Get("usuario"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello there", body["mensaje"])

		w.Write([]byte(`{"clasificacion":"Normal","probabilidad":0.97}`))
	})

	out, err := c.Predict(context.Background(), "alice", "hello there")

	require.NoError(t, err)
	assert.Equal(t, []string{"clasificacion", "probabilidad"}, out.Keys())
	assert.Equal(t, "Normal", out.String("clasificacion"))
}

func TestClient_UserPathsAreEscaped(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/usuarios/a%2Fb", r.URL.EscapedPath())
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.DeleteUser(context.Background(), "a/b"))
}

func TestClient_UpdateUser_OmitsBlankPassword(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, hasPassword := body["password"]
		assert.False(t, hasPassword)
		assert.Equal(t, "user", body["role"])
	})

	err := c.UpdateUser(context.Background(), "bob", models.UserInput{Username: "bob", Email: "b@x.org", Role: "user"})
	require.NoError(t, err)
}

func TestClient_ListAudit_SkipsUndecodableRecords(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auditoria", r.URL.Path)
		w.Write([]byte(`[
			{"usuario":"admin","accion":"login","fecha":"2024-01-01T10:00:00"},
			{"usuario":"admin","accion":"login","fecha":"not a date"},
			{"usuario_actor":"bob","accion":"prediction","fecha":"2024-01-02 08:00:00"}
		]`))
	})

	records, err := c.ListAudit(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "bob", records[1].ActorUser)
	assert.Equal(t, models.ActionPrediction, records[1].Action)
}

func TestClient_MalformedJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"username":`))
	})

	_, err := c.ListUsers(context.Background())

	var se *models.ServerError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "malformed backend response", se.Message)
	assert.True(t, IsMalformed(err))
	assert.False(t, IsMalformed(&models.ServerError{Op: "login", StatusCode: http.StatusBadGateway}))
}

func TestMessageFor(t *testing.T) {
	err := &models.ServerError{Op: "create_user", StatusCode: 409, Message: "User already exists"}
	assert.Equal(t, "User already exists", MessageFor(err, "fallback"))
	assert.Equal(t, "fallback", MessageFor(errors.New("x"), "fallback"))
	assert.True(t, IsRejected(err))
	assert.False(t, IsNotFound(err))
	assert.True(t, IsNotFound(&models.ServerError{StatusCode: 404}))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "boom", errorMessage([]byte(`{"error":" boom "}`)))
	assert.Equal(t, "detail", errorMessage([]byte(`{"message":"detail"}`)))
	assert.Equal(t, "", errorMessage([]byte(`<html>502</html>`)))
}
