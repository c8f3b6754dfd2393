package e2e

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"chat-live/domain"
	"chat-live/identity"
	"chat-live/ws"
)

// BaseWsSuite connects identities to a running server over WebSocket.
// The suite skips itself unless E2E_SERVER_ADDR is set, so it never runs
// as part of the unit test suite.
type BaseWsSuite struct {
	suite.Suite
	Config Config
}

func (s *BaseWsSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("E2E_SERVER_ADDR not set, skipping end to end suite")
	}
}

// Connect opens an authenticated session for the given identity and drains
// the connected greeting.
func (s *BaseWsSuite) Connect(name string, id string) *Client {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	token, err := identity.MintToken(s.Config.AuthSecret, domain.Identity(id), time.Hour)
	s.Require().NoError(err)

	endpoint := url.URL{
		Scheme:   "ws",
		Host:     s.Config.ServerAddr,
		Path:     "/ws",
		RawQuery: "session_token=" + url.QueryEscape(token),
	}
	conn, _, err := websocket.DefaultDialer.Dial(endpoint.String(), nil)
	s.Require().NoError(err, "Failed to connect to server at "+s.Config.ServerAddr)

	client := &Client{suite: s, Identity: id, conn: conn}
	s.T().Cleanup(client.Close)

	greeting := client.Expect(ws.EventConnected)
	s.T().Logf("WS connected as %s (%s)", id, string(greeting.Data))
	return client
}

// Client wraps one live connection with send and expect helpers.
type Client struct {
	suite    *BaseWsSuite
	Identity string
	conn     *websocket.Conn
}

func (c *Client) Send(eventName string, payload any) {
	envelope, err := ws.NewEnvelope(eventName, payload)
	c.suite.Require().NoError(err)
	c.suite.Require().NoError(c.conn.WriteJSON(envelope))
}

// Expect reads until the wanted event arrives, failing after a bounded
// number of unrelated events or a read timeout.
func (c *Client) Expect(eventName string) ws.Envelope {
	for i := 0; i < 10; i++ {
		c.suite.Require().NoError(c.conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
		var envelope ws.Envelope
		c.suite.Require().NoError(c.conn.ReadJSON(&envelope),
			"reading while waiting for %s as %s", eventName, c.Identity)
		if envelope.Event == eventName {
			return envelope
		}
		c.suite.T().Logf("(%s) skipping %s", c.Identity, envelope.Event)
	}
	c.suite.Require().FailNowf("event never arrived", "%s as %s", eventName, c.Identity)
	return ws.Envelope{}
}

func (c *Client) Close() {
	_ = c.conn.Close()
}

func Decode[T any](s *BaseWsSuite, envelope ws.Envelope) T {
	var payload T
	s.Require().NoError(json.Unmarshal(envelope.Data, &payload))
	return payload
}
