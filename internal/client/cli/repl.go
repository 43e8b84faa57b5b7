package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	CreatePack(ctx context.Context) error
	ShowPack(ctx context.Context) error
	AddEntry(ctx context.Context) error
	GenerateEntries(ctx context.Context) error
	ShowAllocation(ctx context.Context) error
	Retry(ctx context.Context) error
	Claim(ctx context.Context) error
	Approve(ctx context.Context) error
	Settle(ctx context.Context) error
	Withdraw(ctx context.Context) error
	RemoveAll(ctx context.Context) error
	Export(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the operator console.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Any errors returned by command handlers are printed here; the loop itself
// stays alive so a failed call never kicks the operator out.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("pv> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: createpack, showpack, addentry, genentries, allocation, retry, claim, approve, settle, withdraw, removeall, export, logout, exit")
			} else {
				printlnFn("Available commands: login, exit")
			}

		case "login":
			err = a.Login(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "createpack":
			err = a.CreatePack(ctx)

		case "showpack":
			err = a.ShowPack(ctx)

		case "addentry":
			err = a.AddEntry(ctx)

		case "genentries":
			err = a.GenerateEntries(ctx)

		case "allocation":
			err = a.ShowAllocation(ctx)

		case "retry":
			err = a.Retry(ctx)

		case "claim":
			err = a.Claim(ctx)

		case "approve":
			err = a.Approve(ctx)

		case "settle":
			err = a.Settle(ctx)

		case "withdraw":
			err = a.Withdraw(ctx)

		case "removeall":
			err = a.RemoveAll(ctx)

		case "export":
			err = a.Export(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
