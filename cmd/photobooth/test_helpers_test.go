package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"photobooth/internal/config"
	"photobooth/internal/daemon"
	"photobooth/internal/logging"
	"photobooth/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	configPath string
	apiAddr    string
	baseDir    string

	mu    sync.Mutex
	mails []string
}

func (e *cliTestEnv) mailCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.mails)
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	env := &cliTestEnv{}
	mailer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		env.mu.Lock()
		env.mails = append(env.mails, string(body))
		env.mu.Unlock()
		_, _ = io.WriteString(w, "sent")
	}))
	t.Cleanup(mailer.Close)
	host := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"secure_url":"https://media.example.com/demo/booth.mp4"}`)
	}))
	t.Cleanup(host.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithMailerURL(mailer.URL), testsupport.WithCloudinaryBase(host.URL))
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	configPath := filepath.Join(homeDir, ".config", "photobooth", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	components, err := daemon.BuildComponents(ctx, cfg, logging.NewNop())
	if err != nil {
		cancel()
		t.Fatalf("BuildComponents: %v", err)
	}
	d, err := daemon.New(cfg, logging.NewNop(), components)
	if err != nil {
		cancel()
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon start: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		_ = d.Close()
	})

	env.cfg = cfg
	env.daemon = d
	env.configPath = configPath
	env.apiAddr = d.Addr()
	env.baseDir = base
	return env
}

func runCLI(t *testing.T, args []string, apiAddr, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if apiAddr != "" {
		flags = append(flags, "--api", apiAddr)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
capture_dir = %q
artifact_path = %q
log_dir = %q

[cloudinary]
base_url = %q
cloud_name = %q
upload_preset = %q

[mailer]
api_url = %q

[api]
bind = %q
`,
		cfg.Paths.CaptureDir,
		cfg.Paths.ArtifactPath,
		cfg.Paths.LogDir,
		cfg.Cloudinary.BaseURL,
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.UploadPreset,
		cfg.Mailer.APIURL,
		cfg.API.Bind,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
