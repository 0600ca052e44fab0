// Command proofbridge-worker is the C5 worker side: it dials the scheduler's
// channel endpoint, answers generateProof tasks by materializing inputs and
// running the configured witness/prover pipeline (spec.md §4.5).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kzero-xyz/proofbridge/internal/providers"
	"github.com/kzero-xyz/proofbridge/internal/workerclient"
	"github.com/kzero-xyz/proofbridge/internal/workerexec"
	"github.com/kzero-xyz/proofbridge/pkg/config"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	cfgPath := getenv("PROOFBRIDGE_CONFIG_PATH", "")

	cfg, err := config.LoadConfigOptional(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "[ERROR] load config:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "[ERROR] invalid config:", err)
		os.Exit(1)
	}

	var engine workerexec.Engine
	switch cfg.ProofMode {
	case "wasm":
		engine = workerexec.NewWasmEngine(cfg.ProofServerWsURL)
	default:
		engine = &workerexec.NativeEngine{
			WitnessBin: cfg.WitnessBinPath,
			ProverBin:  cfg.ProverBinPath,
			ZkeyPath:   cfg.ZkeyPath,
		}
	}

	store := providers.NewLocalArtifactStore(cfg.CacheDir)
	executor := workerexec.NewExecutor(store, engine)

	header := http.Header{}
	if cfg.WorkerAuthToken != "" {
		header.Set("Authorization", "Bearer "+cfg.WorkerAuthToken)
	}

	client := workerclient.New(
		cfg.ChannelWsURL,
		header,
		time.Duration(cfg.PingIntervalMs)*time.Millisecond,
		time.Duration(cfg.PongTimeoutMs)*time.Millisecond,
		cfg.ReconnectBaseMs,
		executor.Execute,
		nil,
	)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	client.Run(ctx)
}
