// devtoken prints a bearer token for local testing against the API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"orgchart-backend/pkg/config"
	"orgchart-backend/pkg/utils"
)

func main() {
	userID := flag.String("user", "dev-user", "user id carried in the token")
	email := flag.String("email", "", "optional email claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.LoadConfig()
	token, exp, err := utils.NewJWTService(cfg.JWTSecret).GenerateAccessToken(*userID, *email, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", time.Unix(exp, 0).Format(time.RFC3339))
}
