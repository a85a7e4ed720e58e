//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type participantPayload struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type loginPayload struct {
	Token       string             `json:"token"`
	Participant participantPayload `json:"participant"`
}

type messagePayload struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
}

type historyPayload struct {
	Messages []messagePayload `json:"messages"`
}

type villagePayload struct {
	ID                     string   `json:"id"`
	Name                   string   `json:"name"`
	Region                 string   `json:"region"`
	Categories             []string `json:"categories"`
	PopulationSize         float64  `json:"populationSize"`
	PopulationGrowthRate   float64  `json:"populationGrowthRate"`
	GenderRatio            struct{ Male, Female float64 } `json:"genderRatio"`
	PopulationDistribution []struct {
		AgeRange   string  `json:"ageRange"`
		Percentage float64 `json:"percentage"`
	} `json:"populationDistribution"`
}

// account couples a registered participant with its bearer token
type account struct {
	participantPayload
	Token string
}

// doJSON issues a request with an optional bearer token and decodes the
// JSON response into out (when out is non-nil).
func doJSON(t *testing.T, method, path, token string, body any, out any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := testClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

// signupAndLogin registers a fresh participant and returns its account
func signupAndLogin(t *testing.T, username string) account {
	t.Helper()

	signupBody := map[string]string{
		"fullName": "E2E " + username,
		"username": username,
		"password": "password123",
	}
	resp := doJSON(t, http.MethodPost, "/api/v1/auth/signup", "", signupBody, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var login loginPayload
	resp = doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "password123",
	}, &login)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, login.Token)

	return account{participantPayload: login.Participant, Token: login.Token}
}

// sendMessage posts a message and returns the persisted payload
func sendMessage(t *testing.T, from account, toID, content string) messagePayload {
	t.Helper()

	var msg messagePayload
	resp := doJSON(t, http.MethodPost, "/api/v1/messages", from.Token, map[string]string{
		"recipientId": toID,
		"content":     content,
	}, &msg)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return msg
}

// getHistory fetches the conversation between the account and a peer
func getHistory(t *testing.T, who account, peerID string) []messagePayload {
	t.Helper()

	var history historyPayload
	resp := doJSON(t, http.MethodGet, "/api/v1/messages?peer_id="+peerID, who.Token, nil, &history)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return history.Messages
}

// openLiveChannel dials the WebSocket endpoint with the account's token
func openLiveChannel(t *testing.T, who account) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(
		fmt.Sprintf("%s/ws/messages?token=%s", wsURL, who.Token), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readLiveMessage reads one delivery from a live channel with a deadline
func readLiveMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) messagePayload {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg messagePayload
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}
