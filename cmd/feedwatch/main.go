// Package main streams realtime notifications for one account to stdout.
// It logs in (or takes a token), trades it for a websocket ticket and prints
// every event the server pushes until interrupted.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

var httpClient = &http.Client{Timeout: 5 * time.Second}

func main() {
	host := flag.String("host", "localhost:8375", "API server host")
	email := flag.String("email", "", "Account email (ignored when -token is set)")
	password := flag.String("password", "Passw0rd!", "Account password")
	token := flag.String("token", os.Getenv("PICFEED_TOKEN"), "Access token")
	flag.Parse()

	access := *token
	if access == "" {
		if *email == "" {
			log.Fatal("either -token or -email is required")
		}
		var err error
		access, err = login(*host, *email, *password)
		if err != nil {
			log.Fatalf("Login failed: %v", err)
		}
		log.Printf("Logged in as %s", *email)
	}

	ticket, err := getTicket(*host, access)
	if err != nil {
		log.Fatalf("Ticket request failed: %v", err)
	}

	u := url.URL{Scheme: "ws", Host: *host, Path: "/api/ws", RawQuery: "ticket=" + url.QueryEscape(ticket)}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer func() { _ = conn.Close() }()
	log.Printf("Connected to %s", u.Host)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					log.Printf("Read error: %v", err)
				}
				return
			}
			printEvent(msg)
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case <-done:
	case <-interrupt:
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}

func printEvent(raw []byte) {
	var ev struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(raw, &ev); err != nil || ev.Type == "" {
		fmt.Println(string(raw))
		return
	}
	fmt.Printf("%s  %-18s %s\n", time.Now().Format(time.TimeOnly), ev.Type, ev.Payload)
}

func login(host, email, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := httpClient.Post(fmt.Sprintf("http://%s/api/auth/login", host), "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var result struct {
		Tokens struct {
			Access string `json:"access"`
		} `json:"tokens"`
	}
	if err := decode(resp, &result); err != nil {
		return "", err
	}
	return result.Tokens.Access, nil
}

func getTicket(host, token string) (string, error) {
	req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("http://%s/api/ws/ticket", host), nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var result struct {
		Ticket string `json:"ticket"`
	}
	if err := decode(resp, &result); err != nil {
		return "", err
	}
	return result.Ticket, nil
}

// decode unwraps the response envelope into out.
func decode(resp *http.Response, out any) error {
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("status %d: %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		return fmt.Errorf("status %d: %s", resp.StatusCode, env.Message)
	}
	return json.Unmarshal(env.Data, out)
}
