package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	BaseURL     = "http://localhost:8080"
	WSURL       = "ws://localhost:8080/ws"
	VendorCount = 200 // Start small. Database might choke on 1000 immediately.
	MsgCount    = 20  // Messages per vendor
)

type authResponse struct {
	Token string `json:"access_token"`
	ID    string `json:"id"`
}

type wsEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func main() {
	log.Printf("🔥 STARTING STRESS TEST: %d vendors, %d messages each...", VendorCount, MsgCount)

	// One agent serves everyone; its credentials come from the same env as
	// the server's seeding.
	agentToken, agentID := loginAgent()
	if agentToken == "" {
		log.Fatal("❌ agent login failed; set AGENT_EMAIL and AGENT_PASSWORD")
	}

	// The agent keeps one connection open, joins every vendor's room as it
	// appears, and drains all traffic.
	vendorIDs := make(chan string, VendorCount)
	go drainAgent(agentToken, agentID, vendorIDs)

	var wg sync.WaitGroup
	for i := 0; i < VendorCount; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			runVendor(n, agentID, vendorIDs)
		}(i)
	}

	wg.Wait()
	close(vendorIDs)
	log.Println("✅ LOAD TEST COMPLETE")
}

func runVendor(n int, agentID string, vendorIDs chan<- string) {
	email := fmt.Sprintf("loadtest-%d@example.com", n)
	pass := "password123"

	// Register (ignore error, might already exist), then login.
	postJSON("/api/vendor/register", map[string]string{
		"name": fmt.Sprintf("Load Vendor %d", n), "email": email, "phone": "0000000000",
		"password": pass, "confirmPassword": pass,
		"shopName": "Load Shop", "shopCategory": "Testing",
		"address": "1 Test St", "city": "Test", "state": "TS", "country": "Testland",
		"gstNumber": "00TEST0000T0Z0",
	})

	resp, err := postJSON("/api/vendor/login", map[string]string{"email": email, "password": pass})
	if err != nil {
		log.Printf("❌ Login failed [%s]: %v", email, err)
		return
	}
	var auth authResponse
	json.NewDecoder(resp.Body).Decode(&auth)
	resp.Body.Close()
	if auth.Token == "" {
		log.Printf("❌ No token for %s", email)
		return
	}

	conn, _, err := websocket.DefaultDialer.Dial(WSURL+"?token="+auth.Token, nil)
	if err != nil {
		log.Printf("❌ WS connect failed [%s]: %v", email, err)
		return
	}
	defer conn.Close()

	conn.WriteJSON(wsEvent{Event: "joinRoom", Data: map[string]string{
		"vendorId": auth.ID, "agentId": agentID,
	}})
	vendorIDs <- auth.ID

	for i := 0; i < MsgCount; i++ {
		err := conn.WriteJSON(wsEvent{Event: "sendMessage", Data: map[string]string{
			"receiver": agentID,
			"text":     fmt.Sprintf("loadtest msg %d from vendor %d", i, n),
		}})
		if err != nil {
			log.Printf("❌ Send failed [%s]: %v", email, err)
			return
		}
		// Small sleep to prevent an instant localhost bottleneck.
		time.Sleep(10 * time.Millisecond)
	}
	log.Printf("✅ vendor %d finished sending %d msgs", n, MsgCount)
}

func loginAgent() (string, string) {
	resp, err := postJSON("/api/agent/login", map[string]string{
		"email":    os.Getenv("AGENT_EMAIL"),
		"password": os.Getenv("AGENT_PASSWORD"),
	})
	if err != nil {
		return "", ""
	}
	defer resp.Body.Close()

	var auth authResponse
	json.NewDecoder(resp.Body).Decode(&auth)
	return auth.Token, auth.ID
}

// drainAgent joins each vendor's room as vendors come online, then reads and
// discards everything so slow-consumer eviction doesn't kick in mid-test.
func drainAgent(token, agentID string, vendorIDs <-chan string) {
	conn, _, err := websocket.DefaultDialer.Dial(WSURL+"?token="+token, nil)
	if err != nil {
		log.Printf("❌ Agent WS connect failed: %v", err)
		return
	}
	defer conn.Close()

	go func() {
		for vendorID := range vendorIDs {
			conn.WriteJSON(wsEvent{Event: "joinRoom", Data: map[string]string{
				"vendorId": vendorID, "agentId": agentID,
			}})
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func postJSON(endpoint string, data any) (*http.Response, error) {
	raw, _ := json.Marshal(data)
	return http.Post(BaseURL+endpoint, "application/json", bytes.NewBuffer(raw))
}
