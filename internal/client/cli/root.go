package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
)

func (a *App) getStatus() string {
	s := a.config.Account
	if !a.isLoggedIn() {
		s = s + " (logged out)"
	}
	return fmt.Sprintf("(%s)", s)
}

func (a *App) Root(ctx context.Context) {

	log.Println("Welcome to PackVault operator console (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	runREPL(ctx, a, a.getStatus, scanner)
}
