package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// TokenSource provides the OAuth bearer token, if the user is signed in.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

type keychainTokenSource struct {
	service string
	timeout time.Duration
	goos    string
	home    func() (string, error)
	// runSecurity runs the macOS security tool and returns its stdout.
	runSecurity func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func newKeychainTokenSource(cfg CredentialsConfig) *keychainTokenSource {
	return &keychainTokenSource{
		service: cfg.Service,
		timeout: cfg.Timeout,
		goos:    runtime.GOOS,
		home:    os.UserHomeDir,
		runSecurity: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
	}
}

func (k *keychainTokenSource) Token(ctx context.Context) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	tok, err := k.loadToken(ctx)
	if err != nil {
		log.WithError(err).Debug("credentials: no token")
		return "", false
	}
	return tok, true
}

func (k *keychainTokenSource) loadToken(ctx context.Context) (string, error) {
	// env var override first
	if tok := strings.TrimSpace(os.Getenv("CLAUDE_OAUTH_TOKEN")); tok != "" {
		return tok, nil
	}

	if k.goos != "darwin" {
		return k.loadCredentialsFile()
	}

	securityPath := "/usr/bin/security"
	if _, err := os.Stat(securityPath); err != nil {
		// Fallback for unusual setups; still prefer an absolute path when possible.
		if lp, lookErr := exec.LookPath("security"); lookErr == nil && filepath.IsAbs(lp) {
			securityPath = lp
		}
	}

	out, err := k.runSecurity(ctx, securityPath, "find-generic-password", "-s", k.service, "-w")
	if err != nil {
		return "", fmt.Errorf("no credentials found in Keychain: %w", err)
	}
	return accessToken([]byte(strings.TrimSpace(string(out))))
}

// loadCredentialsFile reads the credentials file written on platforms
// without a Keychain.
func (k *keychainTokenSource) loadCredentialsFile() (string, error) {
	home, err := k.home()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(home, ".claude", ".credentials.json"))
	if err != nil {
		return "", fmt.Errorf("no credentials file: %w", err)
	}
	return accessToken(data)
}

func accessToken(creds []byte) (string, error) {
	if !gjson.ValidBytes(creds) {
		return "", fmt.Errorf("failed to parse credentials")
	}
	tok := gjson.GetBytes(creds, "claudeAiOauth.accessToken").String()
	if tok == "" {
		return "", fmt.Errorf("no OAuth token in credentials")
	}
	return tok, nil
}
