package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/framecast/framecast/internal/client"
	"github.com/framecast/framecast/internal/protocol"

	"github.com/spf13/cobra"
)

func Connect() *cobra.Command {
	var address string
	var connectCmd = &cobra.Command{
		Use:   "connect",
		Short: "Connect to a Framecast server as an interactive client",
		Long:  `Connect to a Framecast server and broadcast typed lines to other connected clients`,
		Run: func(cmd *cobra.Command, args []string) {
			connect(address)
		},
	}
	connectCmd.Flags().StringVarP(&address, "address", "a", "localhost:54000", "relay server address")
	return connectCmd
}

func connect(address string) {
	c, err := client.Connect(address, client.Config{})
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()

	fmt.Printf("connected to %s\n", address)
	fmt.Println("type a line to broadcast it as text, /event <data> and /snapshot <data> send other kinds, /quit exits")

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-c.Done():
			printInbox(c)
			if err := c.Err(); err != nil {
				fmt.Printf("connection closed: %v\n", err)
				os.Exit(1)
			}
			return
		case <-ticker.C:
			printInbox(c)
		case line, ok := <-lines:
			if !ok || line == "/quit" {
				return
			}
			if err := sendLine(c, line); err != nil {
				fmt.Printf("error sending: %v\n", err)
			}
		}
	}
}

func sendLine(c *client.Client, line string) error {
	switch {
	case strings.HasPrefix(line, "/event "):
		return c.SendEvent([]byte(strings.TrimPrefix(line, "/event ")))
	case strings.HasPrefix(line, "/snapshot "):
		return c.SendSnapshot([]byte(strings.TrimPrefix(line, "/snapshot ")))
	default:
		return c.SendText([]byte(line))
	}
}

func printInbox(c *client.Client) {
	inbox := c.Inbox()
	for _, kind := range []protocol.Kind{protocol.KindText, protocol.KindEvent, protocol.KindSnapshot} {
		for _, msg := range inbox.Drain(kind) {
			fmt.Printf("[%s] sender %d: %s\n", msg.Kind, msg.Sender, msg.Payload)
		}
	}
}
