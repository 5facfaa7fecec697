// Command uploadvideo attaches a verification video to a card. It logs in
// as an admin, asks the server for a presigned upload URL and PUTs the file
// to object storage.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/client/client"
	"github.com/dmitrijs2005/gophmarket/internal/netx"
	"github.com/dmitrijs2005/gophmarket/internal/server/config"
)

func main() {
	var (
		address  string
		userName string
		password string
		cardID   string
		path     string
		timeout  time.Duration
	)

	flag.StringVar(&address, "a", "localhost:50051", "server address")
	flag.StringVar(&userName, "u", "", "admin user name")
	flag.StringVar(&password, "p", "", "admin password (prompted when empty)")
	flag.StringVar(&cardID, "card", "", "card id")
	flag.StringVar(&path, "file", "", "path to the mp4 file")
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "overall timeout")
	flag.Parse()

	if userName == "" || cardID == "" || path == "" {
		flag.Usage()
		os.Exit(2)
	}

	if password == "" {
		p, err := config.PromptSecret(os.Stderr, "Password")
		if err != nil {
			log.Fatalf("%v", err)
		}
		password = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := run(ctx, address, userName, password, cardID, data); err != nil {
		log.Printf("%v", err)
		cancel()
		os.Exit(1)
	}
	fmt.Printf("uploaded %d bytes for card %s\n", len(data), cardID)
}

func run(ctx context.Context, address, userName, password, cardID string, data []byte) error {
	c, err := client.NewMarketClient(address)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer c.Close()

	if err := c.Login(ctx, userName, password); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	url, err := c.RequestCardVideoUpload(ctx, cardID)
	if err != nil {
		return fmt.Errorf("request upload: %w", err)
	}

	if err := netx.UploadToS3PresignedURL(ctx, url, "video/mp4", data); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return nil
}
