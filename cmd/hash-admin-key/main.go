package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ajharbinger/stockdd-timeline/internal/auth"
)

// Reads an admin key from stdin and prints the bcrypt hash for ADMIN_KEY_HASH
func main() {
	fmt.Fprint(os.Stderr, "Admin key: ")
	key, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && key == "" {
		log.Fatalf("Failed to read admin key: %v", err)
	}
	key = strings.TrimSpace(key)
	if len(key) < 16 {
		log.Fatal("Admin key must be at least 16 characters")
	}

	hash, err := auth.HashAdminKey(key)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("ADMIN_KEY_HASH=%s\n", hash)
}
