/*
Package main is a line-oriented terminal frontend over the client package.

It drives a single chat session: login or register, then a command loop where
plain lines are sent to the selected room and slash commands manage rooms and
friends.
*/
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/msshub-mirror/chat-app/client"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "chat server base URL")
	flag.Parse()

	session := client.NewSession(*serverURL)
	session.OnError(func(msg string) {
		fmt.Printf("! %s\n", msg)
	})

	ctx := context.Background()
	stdin := bufio.NewScanner(os.Stdin)

	if err := authenticate(ctx, session, stdin); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("logged in as %s. /help for commands.\n", session.User().Nickname)

	session.OnChange(func() {
		msgs := session.Messages()
		if len(msgs) == 0 {
			return
		}
		last := msgs[len(msgs)-1]
		fmt.Printf("[%s] %s: %s\n", last.CreatedAt.Format("15:04"), last.Nickname, last.Content)
	})

	for {
		fmt.Print("> ")
		if !stdin.Scan() {
			session.Logout()
			return
		}

		line := strings.TrimSpace(stdin.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "/") {
			if err := session.Send(line); err != nil {
				fmt.Printf("! %v\n", err)
			}
			continue
		}

		if quit := runCommand(ctx, session, line); quit {
			session.Logout()
			return
		}
	}
}

// authenticate loops on the login/register views until a session is live.
func authenticate(ctx context.Context, session *client.Session, stdin *bufio.Scanner) error {
	for {
		mode := "login"
		if session.View() == client.ViewRegister {
			mode = "register"
		}

		fmt.Printf("[%s] username (or 'switch'): ", mode)
		if !stdin.Scan() {
			return fmt.Errorf("stdin closed")
		}
		username := strings.TrimSpace(stdin.Text())

		if username == "switch" {
			if session.View() == client.ViewLogin {
				session.SwitchToRegister()
			} else {
				session.SwitchToLogin()
			}
			continue
		}

		fmt.Print("password: ")
		if !stdin.Scan() {
			return fmt.Errorf("stdin closed")
		}
		password := strings.TrimSpace(stdin.Text())

		var err error
		if session.View() == client.ViewRegister {
			err = session.Register(ctx, username, password)
		} else {
			err = session.Login(ctx, username, password)
		}

		if err != nil {
			fmt.Printf("! %v\n", err)
			continue
		}
		return nil
	}
}

// runCommand dispatches a slash command. Returns true when the loop should end.
func runCommand(ctx context.Context, session *client.Session, line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	api := session.API()

	switch cmd {
	case "/quit":
		return true

	case "/help":
		fmt.Println("/rooms /select <id> /create <name> /invite <id> <username> /joinlink <id> <token>")
		fmt.Println("/friends /requests /addfriend <username> /accept <id> /reject <id> /dm <userId>")
		fmt.Println("/who /nick <name> /quit")

	case "/rooms":
		rooms, err := api.Rooms(ctx)
		if err != nil {
			fmt.Printf("! %v\n", err)
			return false
		}
		for _, r := range rooms {
			marker := " "
			if r.ID == session.CurrentRoom() {
				marker = "*"
			}
			fmt.Printf("%s %d  %s\n", marker, r.ID, r.Name)
		}

	case "/select":
		id, ok := argInt64(args, 0)
		if !ok {
			fmt.Println("usage: /select <roomId>")
			return false
		}
		if err := session.SelectRoom(ctx, id); err != nil {
			fmt.Printf("! %v\n", err)
			return false
		}
		for _, m := range session.Messages() {
			fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Format("15:04"), m.Nickname, m.Content)
		}

	case "/create":
		if len(args) == 0 {
			fmt.Println("usage: /create <name>")
			return false
		}
		room, err := api.CreateRoom(ctx, strings.Join(args, " "))
		if err != nil {
			fmt.Printf("! %v\n", err)
			return false
		}
		fmt.Printf("created room %d, invite token %s\n", room.ID, room.InviteToken)

	case "/invite":
		id, ok := argInt64(args, 0)
		if !ok || len(args) < 2 {
			fmt.Println("usage: /invite <roomId> <username>")
			return false
		}
		if err := api.InviteToRoom(ctx, id, args[1]); err != nil {
			fmt.Printf("! %v\n", err)
		}

	case "/joinlink":
		id, ok := argInt64(args, 0)
		if !ok || len(args) < 2 {
			fmt.Println("usage: /joinlink <roomId> <token>")
			return false
		}
		room, err := api.JoinRoom(ctx, id, args[1])
		if err != nil {
			fmt.Printf("! %v\n", err)
			return false
		}
		fmt.Printf("joined %s\n", room.Name)

	case "/who":
		if session.CurrentRoom() == 0 {
			fmt.Println("no room selected")
			return false
		}
		members, err := api.Participants(ctx, session.CurrentRoom())
		if err != nil {
			fmt.Printf("! %v\n", err)
			return false
		}
		for _, m := range members {
			fmt.Printf("%d  %s (%s)\n", m.ID, m.Nickname, m.Username)
		}

	case "/friends":
		friends, err := api.Friends(ctx)
		if err != nil {
			fmt.Printf("! %v\n", err)
			return false
		}
		for _, f := range friends {
			fmt.Printf("%d  %s (%s)\n", f.ID, f.Nickname, f.Username)
		}

	case "/requests":
		requests, err := api.FriendRequests(ctx)
		if err != nil {
			fmt.Printf("! %v\n", err)
			return false
		}
		for _, fr := range requests {
			fmt.Printf("%d  from %s (%s)\n", fr.ID, fr.Nickname, fr.Username)
		}

	case "/addfriend":
		if len(args) == 0 {
			fmt.Println("usage: /addfriend <username>")
			return false
		}
		if err := api.SendFriendRequest(ctx, args[0]); err != nil {
			fmt.Printf("! %v\n", err)
		}

	case "/accept":
		id, ok := argInt64(args, 0)
		if !ok {
			fmt.Println("usage: /accept <requestId>")
			return false
		}
		if err := api.AcceptFriendRequest(ctx, id); err != nil {
			fmt.Printf("! %v\n", err)
		}

	case "/reject":
		id, ok := argInt64(args, 0)
		if !ok {
			fmt.Println("usage: /reject <requestId>")
			return false
		}
		if err := api.RejectFriendRequest(ctx, id); err != nil {
			fmt.Printf("! %v\n", err)
		}

	case "/dm":
		id, ok := argInt64(args, 0)
		if !ok {
			fmt.Println("usage: /dm <userId>")
			return false
		}
		room, err := session.StartDM(ctx, id)
		if err != nil {
			fmt.Printf("! %v\n", err)
			return false
		}
		fmt.Printf("dm room %s selected\n", room.Name)

	case "/nick":
		if len(args) == 0 {
			fmt.Println("usage: /nick <name>")
			return false
		}
		if err := api.UpdateNickname(ctx, strings.Join(args, " ")); err != nil {
			fmt.Printf("! %v\n", err)
		}

	default:
		fmt.Println("unknown command, /help for the list")
	}

	return false
}

func argInt64(args []string, i int) (int64, bool) {
	if len(args) <= i {
		return 0, false
	}
	v, err := strconv.ParseInt(args[i], 10, 64)
	return v, err == nil && v > 0
}
