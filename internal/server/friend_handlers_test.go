package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type friendRequestBody struct {
	ID   uint `json:"id"`
	User struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

func TestFriendRequestFlow(t *testing.T) {
	app, _ := newTestApp(t)
	alice, aliceID := signup(t, app, "alice")
	bob, bobID := signup(t, app, "bob1")
	carol, _ := signup(t, app, "carol")

	res := do(t, app, http.MethodPost, "/api/friend-requests", alice, map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "SELF_REQUEST", res.errorCode(t))

	res = do(t, app, http.MethodPost, "/api/friend-requests", alice, map[string]string{"username": "ghost"})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "NOT_FOUND", res.errorCode(t))

	res = do(t, app, http.MethodPost, "/api/friend-requests", alice, map[string]string{"username": "bob1"})
	require.Equal(t, http.StatusCreated, res.Status)
	var sent friendRequestBody
	res.decode(t, &sent)
	assert.Equal(t, bobID, sent.User.ID)

	res = do(t, app, http.MethodPost, "/api/friend-requests", bob, map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusConflict, res.Status)
	assert.Equal(t, "DUPLICATE_REQUEST_RECEIVED", res.errorCode(t))

	var received []friendRequestBody
	do(t, app, http.MethodGet, "/api/friend-requests/received", bob, nil).decode(t, &received)
	require.Len(t, received, 1)
	assert.Equal(t, aliceID, received[0].User.ID)

	acceptPath := fmt.Sprintf("/api/friend-requests/%d/accept", sent.ID)
	assert.Equal(t, http.StatusForbidden, do(t, app, http.MethodPost, acceptPath, alice, nil).Status)
	assert.Equal(t, http.StatusForbidden, do(t, app, http.MethodPost, acceptPath, carol, nil).Status)
	require.Equal(t, http.StatusOK, do(t, app, http.MethodPost, acceptPath, bob, nil).Status)
	assert.Equal(t, http.StatusBadRequest, do(t, app, http.MethodPost, acceptPath, bob, nil).Status)

	var friends []struct {
		ID uint `json:"id"`
	}
	do(t, app, http.MethodGet, "/api/friends", alice, nil).decode(t, &friends)
	require.Len(t, friends, 1)
	assert.Equal(t, bobID, friends[0].ID)

	res = do(t, app, http.MethodDelete, fmt.Sprintf("/api/friends/%d", aliceID), bob, nil)
	require.Equal(t, http.StatusOK, res.Status)
	do(t, app, http.MethodGet, "/api/friends", alice, nil).decode(t, &friends)
	assert.Empty(t, friends)
}

func TestDeleteFriendRequestMatrix(t *testing.T) {
	app, _ := newTestApp(t)
	alice, _ := signup(t, app, "alice")
	bob, _ := signup(t, app, "bob1")
	carol, _ := signup(t, app, "carol")

	var req friendRequestBody
	do(t, app, http.MethodPost, "/api/friend-requests", alice, map[string]string{"username": "bob1"}).decode(t, &req)
	path := fmt.Sprintf("/api/friend-requests/%d", req.ID)

	res := do(t, app, http.MethodDelete, path, carol, nil)
	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Equal(t, "FORBIDDEN", res.errorCode(t))

	assert.Equal(t, http.StatusOK, do(t, app, http.MethodDelete, path, alice, nil).Status)
	assert.Equal(t, http.StatusBadRequest, do(t, app, http.MethodDelete, path, bob, nil).Status)

	var sent []friendRequestBody
	do(t, app, http.MethodGet, "/api/friend-requests/sent", alice, nil).decode(t, &sent)
	assert.Empty(t, sent)

	res = do(t, app, http.MethodDelete, "/api/friend-requests/abc", alice, nil)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "VALIDATION_ERROR", res.errorCode(t))
}
