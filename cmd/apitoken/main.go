// Command apitoken issues a client token for the outbound API.
//
//	apitoken -client billing -scopes sms,airtime
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"atgateway/internal/auth"
	"atgateway/internal/config"
	"atgateway/internal/rbac"
)

func main() {
	clientID := flag.String("client", "", "client id recorded in the token")
	scopeList := flag.String("scopes", "", "comma separated scopes: sms, airtime, voice, whatsapp or *")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	scopes, err := rbac.ParseScopes(*scopeList)
	if err != nil {
		slog.Error("invalid scopes", "err", err)
		os.Exit(2)
	}

	m, err := auth.NewManager(cfg.Auth)
	if err != nil {
		slog.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	tok, err := m.Issue(time.Now(), *clientID, scopes)
	if err != nil {
		slog.Error("issue failed", "err", err)
		os.Exit(2)
	}
	fmt.Println(tok)
}
