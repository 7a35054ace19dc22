package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/chzyer/readline"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = func(a ...any) { fmt.Println(a...) }

// execIface defines the command surface the REPL dispatches to. The real App
// type satisfies it; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Refresh(ctx context.Context) error

	Open(ctx context.Context, args []string) error
	Show(ctx context.Context) error
	Set(ctx context.Context, args []string) error
	Unset(ctx context.Context, args []string) error
	SaveRecord(ctx context.Context) error
	DeleteRecord(ctx context.Context) error
	RevertRecord(ctx context.Context) error
	CloseRecord(ctx context.Context) error

	List(ctx context.Context, args []string) error
	Find(ctx context.Context, args []string) error
	Page(ctx context.Context, args []string) error
	Next(ctx context.Context) error

	AttachFiles(ctx context.Context, args []string) error
	ListFiles(ctx context.Context) error
	DownloadFile(ctx context.Context, args []string) error
	DetachFile(ctx context.Context, args []string) error
}

// dispatch parses one REPL line and invokes the matching command. It returns
// false when the user asked to leave. Handlers report their own failures to
// the notifier; dispatch only prints errors of argument parsing and other
// failures handlers cannot reach.
func dispatch(ctx context.Context, a execIface, line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return true
	}
	cmd, args := parts[0], parts[1:]

	if cmd == "exit" || cmd == "quit" {
		printlnFn("Bye!")
		return false
	}
	if cmd == "help" {
		printHelp(a.isLoggedIn())
		return true
	}

	var err error
	if !a.isLoggedIn() {
		switch cmd {
		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		default:
			printlnFn("You must log in first. Use: login")
			return true
		}
		if err != nil {
			printlnFn("Error:", err)
		}
		return true
	}

	switch cmd {
	case "register":
		err = a.Register(ctx)
	case "login":
		err = a.Login(ctx)
	case "logout":
		err = a.Logout(ctx)
	case "whoami":
		err = a.Whoami(ctx)
	case "refresh":
		err = a.Refresh(ctx)

	case "open":
		err = a.Open(ctx, args)
	case "show":
		err = a.Show(ctx)
	case "set":
		err = a.Set(ctx, args)
	case "unset":
		err = a.Unset(ctx, args)
	case "save":
		err = a.SaveRecord(ctx)
	case "delete":
		err = a.DeleteRecord(ctx)
	case "revert":
		err = a.RevertRecord(ctx)
	case "close":
		err = a.CloseRecord(ctx)

	case "l", "list":
		err = a.List(ctx, args)
	case "find":
		err = a.Find(ctx, args)
	case "page":
		err = a.Page(ctx, args)
	case "next":
		err = a.Next(ctx)

	case "attach":
		err = a.AttachFiles(ctx, args)
	case "files":
		err = a.ListFiles(ctx)
	case "download":
		err = a.DownloadFile(ctx, args)
	case "detach":
		err = a.DetachFile(ctx, args)

	default:
		printlnFn("Unknown command:", cmd)
		return true
	}

	if err != nil {
		printlnFn("Error:", err)
	}
	return true
}

func printHelp(loggedIn bool) {
	if !loggedIn {
		printlnFn("Available commands: register, login, help, exit")
		return
	}
	printlnFn("Session:  whoami, refresh, logout")
	printlnFn("Records:  open <collection> <id|new>, show, set <field> <value>, unset <field>, save, delete, revert, close")
	printlnFn("Queries:  list <collection>, find <collection> <field> <op> <value> ..., page <collection> <size> [orderBy], next")
	printlnFn("Files:    attach <path> ..., files, download <url>, detach <url>")
	printlnFn("Other:    help, exit")
}

func loggedOutCompleter() readline.AutoCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("register"),
		readline.PcItem("login"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

func loggedInCompleter(collections []string) readline.AutoCompleter {
	collectionItems := make([]readline.PrefixCompleterInterface, 0, len(collections))
	for _, name := range collections {
		collectionItems = append(collectionItems, readline.PcItem(name))
	}

	return readline.NewPrefixCompleter(
		readline.PcItem("whoami"),
		readline.PcItem("refresh"),
		readline.PcItem("logout"),
		readline.PcItem("open", collectionItems...),
		readline.PcItem("show"),
		readline.PcItem("set"),
		readline.PcItem("unset"),
		readline.PcItem("save"),
		readline.PcItem("delete"),
		readline.PcItem("revert"),
		readline.PcItem("close"),
		readline.PcItem("list", collectionItems...),
		readline.PcItem("find", collectionItems...),
		readline.PcItem("page", collectionItems...),
		readline.PcItem("next"),
		readline.PcItem("attach"),
		readline.PcItem("files"),
		readline.PcItem("download"),
		readline.PcItem("detach"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}
