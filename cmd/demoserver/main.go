// Command demoserver serves phishing and benign fixtures for local scans.
// Usage: go run ./cmd/demoserver [port]
// Default port: 9999
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/phishsentry/phishsentry/internal/demoserver"
)

func main() {
	cfg := demoserver.DefaultConfig()

	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}

	fmt.Println("===========================================")
	fmt.Println("   PhishSentry Demo Server")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("Fixtures:")
	for _, p := range demoserver.GetAllPages() {
		fmt.Printf("  %-12s %s\n", p.Path, p.Description)
	}
	fmt.Println("  /hop/{n}     Redirect chain of n hops")
	fmt.Println("  /loop/a      Redirect loop")
	fmt.Println("  /go?to=URL   Open redirect")
	fmt.Println()

	server := demoserver.NewDemoServer(cfg)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
