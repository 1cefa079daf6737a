package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

const usage = `followctl drives the follower goal backend from the command line.

Usage:
  followctl [flags] status           show the current goal state
  followctl [flags] follow [name]    record a follow (optional follower name)
  followctl [flags] set <count>      set the follower count to an absolute value
  followctl [flags] watch            follow the goal live in the terminal

Flags:
`

func main() {
	flags := pflag.NewFlagSet("followctl", pflag.ExitOnError)
	baseURL := flags.StringP("server", "s", envOr("FOLLOWCTL_SERVER", "http://localhost:3000"), "base URL of the backend")
	timeout := flags.DurationP("timeout", "t", 10*time.Second, "request timeout")
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}

	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}

	args := flags.Args()
	if len(args) == 0 {
		flags.Usage()
		os.Exit(2)
	}

	client := &http.Client{Timeout: *timeout}

	var err error
	switch args[0] {
	case "status":
		err = runStatus(client, *baseURL)
	case "follow":
		name := ""
		if len(args) > 1 {
			name = args[1]
		}
		err = runFollow(client, *baseURL, name)
	case "set":
		if len(args) < 2 {
			log.Fatal("set requires a count argument")
		}
		var count int
		count, err = strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("Invalid count %q: %v", args[1], err)
		}
		err = runSet(client, *baseURL, count)
	case "watch":
		err = runWatch(*baseURL)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", args[0])
		flags.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("Command failed: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func runStatus(client *http.Client, baseURL string) error {
	resp, err := client.Get(baseURL + "/api/current-followers")
	if err != nil {
		return err
	}
	return printFollowers(resp)
}

func runFollow(client *http.Client, baseURL, name string) error {
	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return err
	}
	resp, err := client.Post(baseURL+"/api/new-follow", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	return printFollowers(resp)
}

func runSet(client *http.Client, baseURL string, count int) error {
	body, err := json.Marshal(map[string]int{"count": count})
	if err != nil {
		return err
	}
	resp, err := client.Post(baseURL+"/api/set-followers", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	return printFollowers(resp)
}

func printFollowers(resp *http.Response) error {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend returned %d: %s", resp.StatusCode, data)
	}

	var followers struct {
		FollowerCount int     `json:"follower_count"`
		Target        int     `json:"target"`
		Percentage    float64 `json:"percentage"`
		Remaining     int     `json:"remaining"`
		Achieved      bool    `json:"achieved"`
	}
	if err := json.Unmarshal(data, &followers); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}

	fmt.Printf("%d / %d followers (%.1f%%), %d to go\n",
		followers.FollowerCount, followers.Target, followers.Percentage, followers.Remaining)
	if followers.Achieved {
		fmt.Println("Goal achieved!")
	}
	return nil
}
