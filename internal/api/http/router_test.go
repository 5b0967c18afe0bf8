package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	api "github.com/mind-engage/mindengage-qbank/internal/api/http"
	auth "github.com/mind-engage/mindengage-qbank/internal/auth/middleware"
	"github.com/mind-engage/mindengage-qbank/internal/db"
	"github.com/mind-engage/mindengage-qbank/internal/editor"
	"github.com/mind-engage/mindengage-qbank/internal/question"
	"github.com/mind-engage/mindengage-qbank/internal/storage"
	syncx "github.com/mind-engage/mindengage-qbank/internal/sync"
)

type harness struct {
	t   *testing.T
	srv *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	blobs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)

	reg := editor.NewRegistry(time.Hour, nil)
	t.Cleanup(reg.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h, err := db.Open(ctx, db.DriverSQLite, filepath.Join(t.TempDir(), "qbank.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	store := question.NewSQLStore(h, syncx.NewEventRepo("test"))

	r := api.NewRouter(api.Deps{
		Store:           store,
		Events:          store,
		Sessions:        reg,
		Blobs:           blobs,
		Auth:            auth.NewAuthService("test-secret"),
		Creds:           auth.Credentials{AdminUser: "admin", AdminPassHash: string(hash), DevLogin: true},
		Log:             zaptest.NewLogger(t),
		CORSOrigins:     []string{"http://localhost:3000"},
		EnableLocalAuth: true,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &harness{t: t, srv: srv}
}

func (h *harness) do(method, path, token string, body any, out any) int {
	h.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, rd)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(h.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (h *harness) login(user, pass, role string) string {
	h.t.Helper()
	var out struct {
		Token string `json:"access_token"`
	}
	code := h.do("POST", "/auth/login", "", map[string]string{"username": user, "password": pass, "role": role}, &out)
	require.Equal(h.t, http.StatusOK, code)
	return out.Token
}

func TestAuthoringFlow(t *testing.T) {
	h := newHarness(t)
	tok := h.login("ana", "ana", "editor")

	var view editor.View
	require.Equal(t, http.StatusCreated, h.do("POST", "/sessions", tok, nil, &view))
	base := "/sessions/" + view.ID

	require.Equal(t, http.StatusOK, h.do("PUT", base+"/question", tok, map[string]string{"text": "$a+b$ equals $c$"}, &view))
	assert.Equal(t, "F1 equals F2", view.Modified)

	require.Equal(t, http.StatusOK, h.do("PUT", base+"/segments/F1", tok, map[string]string{"text": "a-b"}, &view))
	assert.Equal(t, "$a-b$ equals $c$", view.Final)
	assert.Equal(t, http.StatusNotFound, h.do("PUT", base+"/segments/F9", tok, map[string]string{"text": "x"}, nil))

	// answers missing -> validation error
	assert.Equal(t, http.StatusBadRequest, h.do("POST", base+"/submit", tok, nil, nil))

	for _, l := range question.Labels {
		require.Equal(t, http.StatusOK, h.do("PUT", base+"/answers/"+l, tok, map[string]string{"text": "$" + l + "$"}, &view))
	}
	assert.Equal(t, []string{"D"}, view.Answers[3].Math)
	assert.Equal(t, http.StatusNotFound, h.do("PUT", base+"/answers/E", tok, map[string]string{"text": "x"}, nil))

	var saved question.Question
	require.Equal(t, http.StatusCreated, h.do("POST", base+"/submit", tok, nil, &saved))
	assert.Equal(t, int64(1), saved.ID)
	assert.Equal(t, "$a-b$ equals $c$", saved.Question)
	assert.Equal(t, "$C$", saved.C)

	require.Equal(t, http.StatusOK, h.do("GET", base, tok, nil, &view))
	assert.Empty(t, view.Question, "form is cleared after a save")

	var list []question.Question
	require.Equal(t, http.StatusOK, h.do("GET", "/questions", tok, nil, &list))
	require.Len(t, list, 1)

	var got question.Question
	require.Equal(t, http.StatusOK, h.do("GET", "/questions/1", tok, nil, &got))
	assert.Equal(t, saved.Question, got.Question)
	assert.Equal(t, http.StatusNotFound, h.do("GET", "/questions/7", tok, nil, nil))
	assert.Equal(t, http.StatusBadRequest, h.do("GET", "/questions/abc", tok, nil, nil))

	assert.Equal(t, http.StatusNoContent, h.do("DELETE", base, tok, nil, nil))
	assert.Equal(t, http.StatusNotFound, h.do("GET", base, tok, nil, nil))
}

func TestPermissions(t *testing.T) {
	h := newHarness(t)
	viewer := h.login("vic", "vic", "viewer")
	editorTok := h.login("ana", "ana", "editor")
	admin := h.login("admin", "s3cret", "")

	assert.Equal(t, http.StatusUnauthorized, h.do("GET", "/questions", "", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, h.do("GET", "/questions", "not-a-jwt", nil, nil))
	assert.Equal(t, http.StatusForbidden, h.do("POST", "/sessions", viewer, nil, nil))
	assert.Equal(t, http.StatusOK, h.do("GET", "/questions", viewer, nil, nil))

	assert.Equal(t, http.StatusUnauthorized, h.do("POST", "/auth/login", "", map[string]string{"username": "admin", "password": "wrong"}, nil))
	assert.Equal(t, http.StatusUnauthorized, h.do("POST", "/auth/login", "", map[string]string{"username": "x", "password": "x", "role": "admin"}, nil))

	// seed one question through a session
	var view editor.View
	require.Equal(t, http.StatusCreated, h.do("POST", "/sessions", admin, nil, &view))
	base := "/sessions/" + view.ID
	h.do("PUT", base+"/question", admin, map[string]string{"text": "q"}, nil)
	for _, l := range question.Labels {
		h.do("PUT", base+"/answers/"+l, admin, map[string]string{"text": l}, nil)
	}
	require.Equal(t, http.StatusCreated, h.do("POST", base+"/submit", admin, nil, nil))

	assert.Equal(t, http.StatusForbidden, h.do("DELETE", "/questions/1", editorTok, nil, nil))
	assert.Equal(t, http.StatusNoContent, h.do("DELETE", "/questions/1", admin, nil, nil))
	assert.Equal(t, http.StatusNotFound, h.do("DELETE", "/questions/1", admin, nil, nil))
}

func TestSessionsArePrivate(t *testing.T) {
	h := newHarness(t)
	ana := h.login("ana", "ana", "editor")
	bob := h.login("bob", "bob", "editor")

	var view editor.View
	require.Equal(t, http.StatusCreated, h.do("POST", "/sessions", ana, nil, &view))
	base := "/sessions/" + view.ID

	assert.Equal(t, http.StatusNotFound, h.do("GET", base, bob, nil, nil))
	assert.Equal(t, http.StatusNotFound, h.do("PUT", base+"/question", bob, map[string]string{"text": "x"}, nil))
	assert.Equal(t, http.StatusNotFound, h.do("POST", base+"/submit", bob, nil, nil))
	assert.Equal(t, http.StatusNotFound, h.do("DELETE", base, bob, nil, nil))
	assert.Equal(t, http.StatusOK, h.do("GET", base, ana, nil, nil))
}

func TestApplyAndUpdate(t *testing.T) {
	h := newHarness(t)
	tok := h.login("ana", "ana", "editor")
	viewer := h.login("vic", "vic", "viewer")

	var view editor.View
	require.Equal(t, http.StatusCreated, h.do("POST", "/sessions", tok, nil, &view))
	base := "/sessions/" + view.ID
	h.do("PUT", base+"/question", tok, map[string]string{"text": "Find F1 where $x$"}, nil)
	require.Equal(t, http.StatusOK, h.do("PUT", base+"/segments/F1", tok, map[string]string{"text": "y"}, nil))
	require.Equal(t, http.StatusOK, h.do("PUT", base+"/apply", tok, nil, &view))
	assert.Equal(t, "Find F1 where $y$", view.Question)
	assert.Equal(t, "y", view.Segments[0].Original)

	for _, l := range question.Labels {
		h.do("PUT", base+"/answers/"+l, tok, map[string]string{"text": l}, nil)
	}
	var saved question.Question
	require.Equal(t, http.StatusCreated, h.do("POST", base+"/submit", tok, nil, &saved))
	assert.Equal(t, "Find F1 where $y$", saved.Question)

	edit := question.Question{Question: "$z$", A: "a", B: "b", C: "c", D: "d"}
	var got question.Question
	require.Equal(t, http.StatusOK, h.do("PUT", "/questions/1", tok, edit, &got))
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, saved.CreatedAt, got.CreatedAt)
	require.Equal(t, http.StatusOK, h.do("GET", "/questions/1", tok, nil, &got))
	assert.Equal(t, "$z$", got.Question)

	edit.B = " "
	assert.Equal(t, http.StatusBadRequest, h.do("PUT", "/questions/1", tok, edit, nil))
	edit.B = "b"
	assert.Equal(t, http.StatusNotFound, h.do("PUT", "/questions/9", tok, edit, nil))
	assert.Equal(t, http.StatusForbidden, h.do("PUT", "/questions/1", viewer, edit, nil))
}

func TestEventFeed(t *testing.T) {
	h := newHarness(t)
	admin := h.login("admin", "s3cret", "")
	editorTok := h.login("ana", "ana", "editor")

	var view editor.View
	require.Equal(t, http.StatusCreated, h.do("POST", "/sessions", admin, nil, &view))
	base := "/sessions/" + view.ID
	h.do("PUT", base+"/question", admin, map[string]string{"text": "$q$"}, nil)
	for _, l := range question.Labels {
		h.do("PUT", base+"/answers/"+l, admin, map[string]string{"text": l}, nil)
	}
	require.Equal(t, http.StatusCreated, h.do("POST", base+"/submit", admin, nil, nil))
	require.Equal(t, http.StatusNoContent, h.do("DELETE", "/questions/1", admin, nil, nil))

	var events []syncx.Event
	require.Equal(t, http.StatusOK, h.do("GET", "/events", admin, nil, &events))
	require.Len(t, events, 2)
	assert.Equal(t, syncx.TypeQuestionCreated, events[0].Type)
	assert.Equal(t, syncx.TypeQuestionDeleted, events[1].Type)

	require.Equal(t, http.StatusOK, h.do("GET", "/events?after="+strconv.FormatInt(events[0].Seq, 10), admin, nil, &events))
	require.Len(t, events, 1)
	assert.Equal(t, "1", events[0].Key)

	assert.Equal(t, http.StatusBadRequest, h.do("GET", "/events?after=x", admin, nil, nil))
	assert.Equal(t, http.StatusForbidden, h.do("GET", "/events", editorTok, nil, nil))
}

func TestCodecEndpoints(t *testing.T) {
	h := newHarness(t)

	var ex struct {
		Modified string `json:"modified"`
		Map      []struct {
			Token   string `json:"token"`
			Content string `json:"content"`
		} `json:"map"`
	}
	require.Equal(t, http.StatusOK, h.do("POST", "/latex/extract", "", map[string]string{"text": "$a$ b $c"}, &ex))
	assert.Equal(t, "F1 b $c", ex.Modified)
	require.Len(t, ex.Map, 1)
	assert.Equal(t, "a", ex.Map[0].Content)

	var out struct {
		Final string `json:"final"`
	}
	body := map[string]any{"modified": "F1 F2", "map": map[string]string{"F1": "F2", "F2": "y"}}
	require.Equal(t, http.StatusOK, h.do("POST", "/latex/reconstruct", "", body, &out))
	assert.Equal(t, "$F2$ $y$", out.Final)

	body["legacy"] = true
	require.Equal(t, http.StatusOK, h.do("POST", "/latex/reconstruct", "", body, &out))
	assert.Equal(t, "$$y$$ $y$", out.Final)
}

func TestExports(t *testing.T) {
	h := newHarness(t)
	tok := h.login("ana", "ana", "editor")

	var exp struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	require.Equal(t, http.StatusCreated, h.do("POST", "/exports", tok, nil, &exp))
	assert.Equal(t, 0, exp.Count)

	var list []question.Question
	require.Equal(t, http.StatusOK, h.do("GET", "/exports/"+exp.Name, tok, nil, &list))
	assert.Empty(t, list)
	assert.Equal(t, http.StatusNotFound, h.do("GET", "/exports/missing.json", tok, nil, nil))
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusOK, h.do("GET", "/healthz", "", nil, nil))
	assert.Equal(t, http.StatusOK, h.do("GET", "/readyz", "", nil, nil))
}
