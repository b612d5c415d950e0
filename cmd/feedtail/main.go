package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gocommunity/internal/client"
	"gocommunity/internal/feed"
)

func main() {
	baseURL := flag.String("url", "https://localhost:8080", "community API base URL")
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password")
	category := flag.String("category", "", "category name to follow instead of the default")
	insecure := flag.Bool("insecure", false, "skip TLS certificate verification")
	flag.Parse()

	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	api, err := client.New(*baseURL)
	if err != nil {
		log.Fatalln("cannot create client:", err)
	}
	if *insecure {
		api.SetTransport(&http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := api.SignIn(ctx, *email, *password); err != nil {
		log.Fatalln("sign in failed:", err)
	}
	defer api.SignOut(context.Background())
	defer api.Close()

	sync := feed.New(api)
	if err := sync.Run(ctx); err != nil {
		log.Fatalln(sync.Err())
	}
	defer sync.Close()

	if *category != "" {
		for _, c := range sync.Categories() {
			if strings.EqualFold(c.Name, *category) {
				sync.SelectCategory(c.ID)
				break
			}
		}
	}

	log.Println("following feed as", sync.CurrentUser().DisplayName)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var lastTop string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if msg := sync.Err(); msg != "" {
				log.Println(msg)
				continue
			}
			printNew(sync, &lastTop)
		}
	}
}

// printNew prints unpinned messages that arrived since the previous tick,
// newest last so the terminal reads top to bottom.
func printNew(sync *feed.Synchronizer, lastTop *string) {
	messages := sync.Messages()
	if len(messages) == 0 {
		return
	}

	fresh := messages
	for i, m := range messages {
		if m.ID == *lastTop {
			fresh = messages[:i]
			break
		}
	}

	for i := len(fresh) - 1; i >= 0; i-- {
		m := fresh[i]
		fmt.Printf("[%s] %s: %s\n", m.CreatedAt, m.Author.DisplayName, m.Content)
		for _, c := range m.Comments {
			fmt.Printf("    ↳ %s: %s\n", c.Author.DisplayName, c.Content)
		}
	}

	*lastTop = messages[0].ID
}
