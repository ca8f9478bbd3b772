package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"roster/internal/client"
	"roster/internal/roster"
)

const usage = `rosterctl drives a roster server from the terminal.

usage: rosterctl -user <name> -pass <password> [-addr <url>] <command> [args]

commands:
  list [query]                    print the dashboard table, filtered
  overview [query]                print the read-only table, filtered
  add <id> <name> [attendance]    create a student (default present)
  update <old-id> <id> <name> [attendance]
  toggle <id> <present|absent>    set attendance
  delete <id>                     remove a student
  clear                           remove every student (batched)
  stats                           print aggregate counters
  export [file]                   write the roster as CSV (stdout default)
`

func main() {
	addr := flag.String("addr", "http://127.0.0.1:3000", "server base URL")
	user := flag.String("user", "", "account username")
	pass := flag.String("pass", "", "account password")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 || *user == "" || *pass == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	apiClient, err := client.NewAPI(*addr)
	if err != nil {
		log.Fatalf("client: %v", err)
	}
	sync := client.NewSynchronizer(apiClient)
	if err := sync.Login(ctx, *user, *pass); err != nil {
		log.Fatalf("login: %v", err)
	}

	if err := run(ctx, sync, args); err != nil {
		log.Fatalf("%s: %v", args[0], err)
	}
}

func run(ctx context.Context, sync *client.Synchronizer, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "list":
		fmt.Print(client.RenderDashboard(sync.Students(), optional(rest, 0)))
	case "overview":
		fmt.Print(client.RenderOverview(sync.Students(), optional(rest, 0)))
	case "add":
		if len(rest) < 2 {
			return fmt.Errorf("usage: add <id> <name> [attendance]")
		}
		return sync.Add(ctx, roster.Student{
			ID: rest[0], Name: rest[1], Attendance: roster.Attendance(optional(rest, 2)),
		})
	case "update":
		if len(rest) < 3 {
			return fmt.Errorf("usage: update <old-id> <id> <name> [attendance]")
		}
		return sync.Update(ctx, rest[0], roster.Student{
			ID: rest[1], Name: rest[2], Attendance: roster.Attendance(optional(rest, 3)),
		})
	case "toggle":
		if len(rest) < 2 {
			return fmt.Errorf("usage: toggle <id> <present|absent>")
		}
		return sync.SetAttendance(ctx, rest[0], roster.Attendance(rest[1]))
	case "delete":
		if len(rest) < 1 {
			return fmt.Errorf("usage: delete <id>")
		}
		return sync.Delete(ctx, rest[0])
	case "clear":
		return sync.ClearAll(ctx)
	case "stats":
		fmt.Println(client.RenderCounters(sync.Stats()))
	case "export":
		data := client.ExportCSV(sync.Students())
		if len(rest) > 0 {
			return os.WriteFile(rest[0], data, 0o644)
		}
		fmt.Print(string(data))
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func optional(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
