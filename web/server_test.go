// ABOUTME: Tests for the collections API server
// ABOUTME: Drives the echo routes over httptest, directly and through the remote client
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/innkeep/auth"
	"github.com/harperreed/innkeep/collection"
	"github.com/harperreed/innkeep/logging"
	"github.com/harperreed/innkeep/models"
	"github.com/harperreed/innkeep/remote"
	"github.com/harperreed/innkeep/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testEnv struct {
	server *httptest.Server
	store  *collection.MemoryStore
	issuer *auth.Issuer
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()

	dir := auth.NewFileDirectory(filepath.Join(t.TempDir(), "members.json"))
	_, err := dir.Add("frontdesk", "1234")
	require.NoError(t, err)

	store := collection.NewMemoryStore()
	issuer := auth.NewIssuer(testSecret, time.Hour)
	srv, err := NewServer(Options{
		Store:         store,
		Authenticator: &auth.LocalAuthenticator{Directory: dir, Issuer: issuer},
		Validator:     auth.NewJWTValidator(testSecret),
		Logger:        logging.Discard(),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{server: ts, store: store, issuer: issuer}
}

func (e *testEnv) token(t *testing.T) string {
	t.Helper()
	token, _, err := e.issuer.Issue(auth.Member{ID: "m1", Nickname: "frontdesk"})
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestAPIRequiresToken(t *testing.T) {
	env := setupServer(t)

	resp, body := env.do(t, http.MethodGet, "/api/collections/rooms", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "missing token", body["error"])

	resp, body = env.do(t, http.MethodGet, "/api/collections/rooms", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid token", body["error"])
}

func TestAPILogin(t *testing.T) {
	env := setupServer(t)

	resp, body := env.do(t, http.MethodPost, "/api/login", "", `{"nickname":"frontdesk","passcode":"1234"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])

	resp, body = env.do(t, http.MethodPost, "/api/login", "", `{"nickname":"frontdesk","passcode":"0000"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid nickname or passcode", body["error"])
}

func TestAPIUnknownCollection(t *testing.T) {
	env := setupServer(t)

	resp, body := env.do(t, http.MethodGet, "/api/collections/ballrooms", env.token(t), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "unknown collection ballrooms", body["error"])
	assert.Equal(t, models.CodeUnknownCollection, body["code"])

	resp, body = env.do(t, http.MethodDelete, "/api/collections/rooms/missing", env.token(t), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Nil(t, body["code"])
}

func TestAPICreateListUpdateDelete(t *testing.T) {
	env := setupServer(t)
	token := env.token(t)

	resp, body := env.do(t, http.MethodPost, "/api/collections/rooms", token,
		`{"_id":"r1","itemName":"Garden Suite","itemPrice":189.50}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "r1", body[models.KeyID])
	assert.NotEmpty(t, body[models.KeyCreatedAt])

	resp, _ = env.do(t, http.MethodPost, "/api/collections/rooms", token, `{"_id":"r1"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/collections/rooms", token, `{"itemName":"No id"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/api/collections/rooms?limit=1", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["totalCount"])

	resp, _ = env.do(t, http.MethodPut, "/api/collections/rooms/r1", token, `{"itemName":"Garden Suite Deluxe"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res, err := env.store.GetAll(context.Background(), models.CollectionRooms, models.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"itemName": "Garden Suite Deluxe"}, res.Items[0].Fields)

	resp, _ = env.do(t, http.MethodPut, "/api/collections/rooms/r1", token, `{"_id":"r2"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, "/api/collections/rooms/r1", token, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = env.do(t, http.MethodDelete, "/api/collections/rooms/r1", token, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "record not found", body["error"])
}

func TestAPIRejectsBadLimit(t *testing.T) {
	env := setupServer(t)

	resp, _ := env.do(t, http.MethodGet, "/api/collections/rooms?limit=-1", env.token(t), "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDashboard(t *testing.T) {
	env := setupServer(t)
	for i := 0; i < 3; i++ {
		_, err := env.store.Create(context.Background(), models.CollectionGuests, models.NewRecord(fmt.Sprintf("g%d", i)))
		require.NoError(t, err)
	}

	resp, err := http.Get(env.server.URL + "/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Hotel Dashboard")
	assert.Contains(t, string(page), "Housekeeping")
	assert.Contains(t, string(page), `<div class="count">3</div>`)
}

func TestRemoteClientEndToEnd(t *testing.T) {
	ctx := context.Background()
	env := setupServer(t)

	client := remote.New(env.server.URL, 5*time.Second, nil)
	session := auth.NewSession(client, nil)

	_, err := client.GetAll(ctx, models.CollectionRooms, models.ListOptions{})
	assert.ErrorIs(t, err, remote.ErrUnauthorized)

	err = session.Login(ctx, "frontdesk", "0000")
	assert.ErrorIs(t, err, auth.ErrBadCredentials)

	require.NoError(t, session.Login(ctx, "frontdesk", "1234"))
	member, ok := session.CurrentMember()
	require.True(t, ok)
	assert.Equal(t, "frontdesk", member.Nickname)
	client.SetTokenSource(session)

	rooms := collection.New(client, models.CollectionRooms, collection.Options{Logger: logging.Discard()})
	require.NoError(t, rooms.Load(ctx))

	created, err := rooms.Create(ctx, models.Room{ID: "r1", Name: "Garden Suite", RoomType: "Suite", Status: models.RoomAvailable, MaxOccupancy: 2}.ToRecord())
	require.NoError(t, err)
	require.NotNil(t, created.CreatedAt)

	_, err = client.Create(ctx, models.CollectionRooms, models.NewRecord("r1"))
	assert.ErrorIs(t, err, collection.ErrDuplicateID)

	update := created.Clone()
	update.Set("roomStatus", models.RoomOccupied)
	_, err = rooms.Update(ctx, update)
	require.NoError(t, err)

	reloaded := collection.New(client, models.CollectionRooms, collection.Options{Logger: logging.Discard()})
	require.NoError(t, reloaded.Load(ctx))
	entry, ok := reloaded.Get("r1")
	require.True(t, ok)
	assert.Equal(t, models.RoomOccupied, entry.Record.String("roomStatus"))
	assert.Equal(t, json.Number("2"), entry.Record.Fields["maxOccupancy"])

	counts, err := collection.Summarize(ctx, client, models.Collections...)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[models.CollectionRooms])
	assert.Equal(t, 0, counts[models.CollectionPayments])

	require.NoError(t, rooms.Delete(ctx, "r1"))
	err = client.Delete(ctx, models.CollectionRooms, "r1")
	assert.ErrorIs(t, err, models.ErrRecordNotFound)

	// A misspelled collection is not mistaken for an already deleted record.
	ballrooms := collection.New(client, "ballrooms", collection.Options{Logger: logging.Discard()})
	err = ballrooms.Delete(ctx, "r1")
	assert.ErrorIs(t, err, models.ErrUnknownCollection)
	assert.NotErrorIs(t, err, models.ErrRecordNotFound)
}

func TestErrorMapper(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"not found", fmt.Errorf("rooms/x: %w", models.ErrRecordNotFound), http.StatusNotFound, "record not found"},
		{"duplicate", collection.ErrDuplicateID, http.StatusConflict, "duplicate id"},
		{"missing id", collection.ErrMissingID, http.StatusBadRequest, "record id is required"},
		{"bad token", auth.ErrInvalidToken, http.StatusUnauthorized, "invalid token"},
		{"validation", validation.New("itemName", "Name is required"), http.StatusUnprocessableEntity, "Name is required"},
		{"deadline wins", fmt.Errorf("%w: %w", context.DeadlineExceeded, models.ErrRecordNotFound), http.StatusGatewayTimeout, "request timeout"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := storeErrors.Map(tt.err)
			assert.Equal(t, tt.status, info.Status)
			assert.Equal(t, tt.msg, info.Message)
		})
	}
}
