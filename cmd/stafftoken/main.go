// Command stafftoken issues a signed access token for a staff member.
// The signing key is read from JWT_SECRET (or a .env file).
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/cabin-booking/internal/middleware"
	"github.com/iliyamo/cabin-booking/internal/utils"
)

func main() {
	_ = godotenv.Load()

	sub := flag.String("sub", "", "staff identifier recorded as the actor of every change")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	tok, err := utils.NewAccessToken(os.Getenv("JWT_SECRET"), *sub, middleware.RoleStaff, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "stafftoken:", err)
		fmt.Fprintln(os.Stderr, "usage: JWT_SECRET=... stafftoken -sub alice [-ttl 12h]")
		os.Exit(2)
	}
	fmt.Println(tok.Token)
	fmt.Fprintf(os.Stderr, "expires %s\n", tok.Exp.Format(time.RFC3339))
}
