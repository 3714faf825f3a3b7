package gateway_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"quizhost/internal/database"
	"quizhost/internal/database/migrations"
	"quizhost/internal/gateway"
	"quizhost/internal/persistence"
	"quizhost/internal/quiz"
	"quizhost/internal/quizstore"
)

// setupTestServer mirrors the teacher's routes_test.go setupTestServer:
// a real httptest server in front of the full gateway stack, backed
// here by a real Postgres container instead of the teacher's in-memory
// sqlite, since the adapter underneath is pgx-only.
func setupTestServer(t *testing.T) (*httptest.Server, *gateway.GameDispatch) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres-backed test in -short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	connStr := stdlib.RegisterConnConfig(pool.Config().ConnConfig)
	sqlDB, err := sql.Open("pgx", connStr)
	require.NoError(t, err)
	defer sqlDB.Close()

	goose.SetBaseFS(migrations.FS)
	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(sqlDB, "."), fmt.Sprintf("running migrations"))

	db, err := database.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	adapter := persistence.NewPgAdapter(db.Pool())
	quizzes := quizstore.New(db.Pool())
	pins := gateway.NewPinIndex()
	dispatch := gateway.NewGameDispatch(adapter, pins)
	t.Cleanup(dispatch.StopAll)

	srv := gateway.NewServer(db, adapter, quizzes, dispatch, pins, []string{"*"})
	httpSrv := httptest.NewServer(srv.RegisterRoutes())
	t.Cleanup(httpSrv.Close)

	return httpSrv, dispatch
}

func TestHandleHealthReportsUp(t *testing.T) {
	httpSrv, _ := setupTestServer(t)

	resp, err := http.Get(httpSrv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "up", body["status"])
}

func TestHandleCreateQuizThenGetRoundTrips(t *testing.T) {
	httpSrv, _ := setupTestServer(t)

	q := quiz.Quiz{
		Title: "Capitals",
		Questions: []quiz.Question{
			{Id: "q1", Text: "Capital of France?", Answers: [4]string{"Paris", "Lyon", "Nice", "Dijon"}, CorrectIndices: []int{0}, TimerSeconds: 10},
		},
	}
	raw, err := json.Marshal(q)
	require.NoError(t, err)

	resp, err := http.Post(httpSrv.URL+"/quizzes", "application/json", strings.NewReader(string(raw)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created quiz.Quiz
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEmpty(t, created.Id)

	getResp, err := http.Get(httpSrv.URL + "/quizzes/" + created.Id)
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	var loaded quiz.Quiz
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&loaded))
	require.Equal(t, "Capitals", loaded.Title)
}

func TestHandleCreateGameThenWebSocketJoinFlow(t *testing.T) {
	httpSrv, _ := setupTestServer(t)

	resp, err := http.Post(httpSrv.URL+"/games", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	gameID := created["gameId"]
	require.NotEmpty(t, gameID)
	require.Len(t, created["gamePin"], 6)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/ws/" + gameID + "?host=true"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var msg map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &msg))

	var msgType string
	require.NoError(t, json.Unmarshal(msg["type"], &msgType))
	require.Equal(t, "game_state", msgType)
}

func TestHandleJoinByPinRedirectsToWebSocketBootstrap(t *testing.T) {
	httpSrv, _ := setupTestServer(t)

	resp, err := http.Post(httpSrv.URL+"/games", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	gameID := created["gameId"]
	pin := created["gamePin"]
	require.NotEmpty(t, gameID)
	require.NotEmpty(t, pin)

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	redirectResp, err := client.Get(httpSrv.URL + "/join/" + pin)
	require.NoError(t, err)
	defer redirectResp.Body.Close()

	require.Equal(t, http.StatusFound, redirectResp.StatusCode)
	require.Equal(t, "/ws/"+gameID+"?host=false", redirectResp.Header.Get("Location"))
}

func TestHandleJoinByPinUnknownPinReturnsNotFound(t *testing.T) {
	httpSrv, _ := setupTestServer(t)

	resp, err := http.Get(httpSrv.URL + "/join/000000")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// TestHandleWebSocketHostFalseConnectsAsPlayer guards against the
// query parameter being parsed as a loose truthy check: "?host=false"
// (and any value other than the literal "true") must be admitted as a
// player, never as a host.
func TestHandleWebSocketHostFalseConnectsAsPlayer(t *testing.T) {
	httpSrv, _ := setupTestServer(t)

	resp, err := http.Post(httpSrv.URL+"/games", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	gameID := created["gameId"]
	require.NotEmpty(t, gameID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/ws/" + gameID + "?host=false"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// drain the initial game_state push before sending a host-only message
	_, _, err = conn.Read(ctx)
	require.NoError(t, err)

	env, err := json.Marshal(struct {
		Type    string `json:"type"`
		Payload any    `json:"payload"`
	}{Type: "host_start_game", Payload: map[string]any{}})
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, env))

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var msg map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	var msgType string
	require.NoError(t, json.Unmarshal(msg["type"], &msgType))
	require.Equal(t, "error", msgType, "a ?host=false connection must be rejected as non-host for a host-only message")

	var payload map[string]string
	require.NoError(t, json.Unmarshal(msg["payload"], &payload))
	require.Contains(t, payload["message"], "FORBIDDEN")
}
