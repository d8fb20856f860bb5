// Command stcpdemo wires two STCP connections back to back over an
// in-memory loopback pipe and drives one short message through the full
// handshake / transfer / teardown cycle.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-netstacks/stcp/config"
	"github.com/go-netstacks/stcp/stcp"
	"github.com/go-netstacks/stcp/transport"
)

func main() {
	cfg := config.DefaultConfig()
	cfg.DeterministicISS = true

	clientPipe, serverPipe := transport.NewLoopbackPair()

	client := stcp.NewActiveConnection(cfg, clientPipe, clientPipe, clientPipe, 40000, 7080,
		log.New(os.Stdout, "client: ", log.LstdFlags))
	server := stcp.NewPassiveConnection(cfg, serverPipe, serverPipe, serverPipe, 7080, 40000,
		log.New(os.Stdout, "server: ", log.LstdFlags))

	message := []byte("hello from the stcp demo client")
	clientPipe.QueueAppSend(message)

	go client.Run()
	go server.Run()

	if !waitUntil(5*time.Second, func() bool { return bytesEqual(serverPipe.Delivered(), message) }) {
		fmt.Println("demo: message was not fully delivered before the deadline")
		os.Exit(1)
	}
	fmt.Printf("demo: server received %q\n", serverPipe.Delivered())

	// The client application closes; the server application reacts to
	// the resulting half-close notification by closing its own side,
	// completing the four-way teardown.
	clientPipe.RequestClose()

	if !waitUntil(5*time.Second, serverPipe.PeerHalfClosed) {
		fmt.Println("demo: server never observed the client's half-close")
		os.Exit(1)
	}
	serverPipe.RequestClose()

	if !waitUntil(5*time.Second, func() bool { return client.Done() && server.Done() }) {
		fmt.Println("demo: connections did not both reach CLOSED before the deadline")
		os.Exit(1)
	}
	fmt.Println("demo: both connections reached CLOSED")
}

func waitUntil(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
