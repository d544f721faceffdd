// Command chat-client connects to a chat-server, logs in, and relays
// stdin lines of the form "recipient: message text" as sends, printing
// every inbound delivery, per spec.md §4.9's client driver.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/carlmjohnson/versioninfo"

	"github.com/catchat/chat/client"
	"github.com/catchat/chat/config"
	"github.com/catchat/chat/corelog"
	"github.com/catchat/chat/serialize"
	"github.com/catchat/chat/wire"
)

func main() {
	var cfgPath string
	var showVersion bool
	flag.StringVar(&cfgPath, "config", "chat-client.toml", "client configuration file")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(versioninfo.Short())
		return
	}

	cfg, err := config.LoadClientConfig(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logLevel := cfg.LogLevel
	if logLevel == "" {
		logLevel = "INFO"
	}
	backend, err := corelog.NewBackend(logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := backend.GetLogger("chat-client")

	frameSize := cfg.FrameSize
	if frameSize == 0 {
		frameSize = wire.DefaultFrameSize
	}

	c, err := client.Connect(cfg.Connect, frameSize, log, cfg.NewUser, cfg.Username, []byte(cfg.Password), func(d client.Delivery) {
		fmt.Printf("%s: %s\n", d.From, d.Message.Body)
	})
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer c.Close()

	fmt.Printf("logged in as %s. send with \"recipient: message\", blank line or ctrl-D to quit.\n", cfg.Username)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break
		}
		to, body, ok := strings.Cut(line, ":")
		if !ok {
			fmt.Fprintln(os.Stderr, "expected \"recipient: message\"")
			continue
		}
		msg := serialize.Message{SentUnixMilli: time.Now().UnixMilli(), Body: strings.TrimSpace(body)}
		if err := c.Send(strings.TrimSpace(to), msg); err != nil {
			log.Errorf("send: %v", err)
		}
	}
}
