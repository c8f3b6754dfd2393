// Interactive chat client for manual testing against a running server.
//
// Usage:
//
//	go run ./cmd/tester -identity a@x.com -peer b@x.com -secret dev-secret
//
// With -secret the client mints a local session token, matching a server
// started with AUTH_MODE=local. With -token it uses the given token as is.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/olekukonko/tablewriter"

	"chat-live/domain"
	"chat-live/identity"
	"chat-live/ws"
)

func main() {
	server := flag.String("server", "localhost:8080", "Server host:port")
	who := flag.String("identity", "", "Identity to connect as (with -secret)")
	peer := flag.String("peer", "", "Peer identity to chat with")
	contextID := flag.String("context", "", "Conversation context id")
	secret := flag.String("secret", "", "Local auth secret, mints a token for -identity")
	token := flag.String("token", "", "Session token to use verbatim")
	flag.Parse()

	sessionToken := *token
	if sessionToken == "" {
		if *secret == "" || *who == "" {
			log.Fatal("either -token, or -secret with -identity, is required")
		}
		minted, err := identity.MintToken(*secret, domain.Identity(*who), time.Hour)
		if err != nil {
			log.Fatalf("could not mint token: %v", err)
		}
		sessionToken = minted
	}

	endpoint := url.URL{
		Scheme:   "ws",
		Host:     *server,
		Path:     "/ws",
		RawQuery: "session_token=" + url.QueryEscape(sessionToken),
	}
	conn, _, err := websocket.DefaultDialer.Dial(endpoint.String(), nil)
	if err != nil {
		log.Fatalf("could not connect to %s: %v", *server, err)
	}
	defer conn.Close()

	go printEvents(conn)

	if *peer != "" {
		send(conn, ws.EventJoin, ws.JoinRequest{ContextID: *contextID, PeerIdentity: *peer})
	}

	color.Comment.Println("Type a message, or /join <peer>, /leave, /typing, /online, /ping, /quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return
		case line == "/ping":
			send(conn, ws.EventHeartbeat, nil)
		case line == "/online":
			send(conn, ws.EventListOnline, nil)
		case line == "/typing":
			send(conn, ws.EventTypingStart, ws.TypingRequest{ContextID: *contextID, RecipientIdentity: *peer})
		case line == "/leave":
			send(conn, ws.EventLeave, ws.LeaveRequest{ContextID: *contextID, RecipientIdentity: *peer})
		case strings.HasPrefix(line, "/join "):
			*peer = strings.TrimSpace(strings.TrimPrefix(line, "/join "))
			send(conn, ws.EventJoin, ws.JoinRequest{ContextID: *contextID, PeerIdentity: *peer})
		default:
			if *peer == "" {
				color.Warn.Println("no peer, use /join <peer> first")
				continue
			}
			send(conn, ws.EventSend, ws.SendRequest{
				ContextID: *contextID, RecipientIdentity: *peer, Message: line,
			})
		}
	}
}

func send(conn *websocket.Conn, eventName string, payload any) {
	envelope, err := ws.NewEnvelope(eventName, payload)
	if err != nil {
		log.Fatalf("could not encode %s: %v", eventName, err)
	}
	if err := conn.WriteJSON(envelope); err != nil {
		log.Fatalf("write failed: %v", err)
	}
}

func printEvents(conn *websocket.Conn) {
	for {
		var envelope ws.Envelope
		if err := conn.ReadJSON(&envelope); err != nil {
			color.Error.Println("connection closed:", err)
			os.Exit(1)
		}
		render(envelope)
	}
}

func render(envelope ws.Envelope) {
	switch envelope.Event {
	case ws.EventConnected:
		var p ws.ConnectedPayload
		_ = json.Unmarshal(envelope.Data, &p)
		color.Success.Printf("connected as %s\n", p.Identity)
	case ws.EventNewMessage:
		var p ws.MessagePayload
		_ = json.Unmarshal(envelope.Data, &p)
		color.New(color.FgCyan).Printf("[%s] %s: %s\n",
			p.Timestamp.Format("15:04:05"), p.SenderIdentity, p.Content)
	case ws.EventMessageAck:
		var p ws.AckPayload
		_ = json.Unmarshal(envelope.Data, &p)
		color.Gray.Printf("delivered (id %d)\n", p.MessageID)
	case ws.EventHistory:
		var p ws.HistoryPayload
		_ = json.Unmarshal(envelope.Data, &p)
		for _, message := range p.Messages {
			color.Gray.Printf("[%s] %s: %s\n",
				message.Timestamp.Format("15:04:05"), message.SenderIdentity, message.Content)
		}
	case ws.EventJoined:
		var p ws.JoinedPayload
		_ = json.Unmarshal(envelope.Data, &p)
		color.Comment.Printf("%s joined (%s)\n", p.Identity, strings.Join(p.Participants, ", "))
	case ws.EventParticipantLeft:
		var p ws.ParticipantLeftPayload
		_ = json.Unmarshal(envelope.Data, &p)
		color.Comment.Printf("%s left the conversation\n", p.Identity)
	case ws.EventTyping:
		var p ws.TypingPayload
		_ = json.Unmarshal(envelope.Data, &p)
		if p.Typing {
			color.Gray.Printf("%s is typing...\n", p.Identity)
		}
	case ws.EventPresenceChanged:
		var p ws.PresencePayload
		_ = json.Unmarshal(envelope.Data, &p)
		state := "offline"
		if p.Online {
			state = "online"
		}
		color.Comment.Printf("%s is now %s\n", p.Identity, state)
	case ws.EventOnlineUsers:
		var p ws.OnlineUsersPayload
		_ = json.Unmarshal(envelope.Data, &p)
		renderOnlineTable(p)
	case ws.EventError:
		var p ws.ErrorPayload
		_ = json.Unmarshal(envelope.Data, &p)
		color.Error.Println(p.Message)
	case ws.EventPong:
		var p ws.PongPayload
		_ = json.Unmarshal(envelope.Data, &p)
		color.Gray.Printf("pong %s\n", p.Timestamp.Format(time.RFC3339))
	default:
		fmt.Printf("%s: %s\n", envelope.Event, string(envelope.Data))
	}
}

func renderOnlineTable(p ws.OnlineUsersPayload) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Identity", "Connected at"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	for _, user := range p.Users {
		table.Append([]string{user.Identity, user.ConnectedAt.Format(time.RFC3339)})
	}
	table.Render()
	color.Comment.Printf("%d online\n", p.Count)
}
