// ====================================
// File: cmd/solsend/main.go
// ====================================
package main

import (
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/mr-tron/base58"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-sender/internal/config"
	"github.com/rovshanmuradov/solana-sender/internal/logger"
	"github.com/rovshanmuradov/solana-sender/pkg/client"
	"github.com/rovshanmuradov/solana-sender/pkg/rpc"
)

const healthWait = 30 * time.Second

func main() {
	configPath := flag.String("config", "configs/config.json", "path to the JSON configuration file")
	txPath := flag.String("tx", "", "path to a file holding the serialized signed transaction")
	useBase58 := flag.Bool("b58", false, "transaction file is base58 encoded instead of base64")
	flag.Parse()

	if *txPath == "" {
		fmt.Fprintln(os.Stderr, "usage: solsend -tx <file> [-config <file>] [-b58]")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logger.DefaultConfig()
	logCfg.LogFile = cfg.LogFile
	logCfg.Development = cfg.DebugLogging
	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("Starting solana-sender", zap.Int("endpoints", len(cfg.RPCList)))

	if err := run(context.Background(), cfg, log, *txPath, *useBase58); err != nil {
		log.LogError("💥 Send failed", err)
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger, txPath string, useBase58 bool) error {
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		sig := <-shutdownCh
		log.Info("📡 Signal received: " + sig.String())
		cancel()
	}()

	pool, err := rpc.NewPool(cfg.RPCList, &rpc.SenderOptions{Logger: log.Logger})
	if err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, pool, log)
		defer srv.Close()
	}

	// Wait until at least one endpoint answers getHealth before spending the
	// transaction's blockhash lifetime on a dead pool.
	_, err = backoff.Retry(runCtx, func() (any, error) {
		return nil, pool.HealthCheck(runCtx)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(healthWait),
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Warn("Health check failed, retrying",
				zap.Error(err), zap.Duration("retry_in", wait))
		}),
	)
	if err != nil {
		return fmt.Errorf("no healthy RPC endpoint: %w", err)
	}

	tx, err := loadTransaction(txPath, useBase58)
	if err != nil {
		return err
	}

	rpcClient := solanarpc.NewWithCustomRPCClient(pool)
	logFeePayerBalance(runCtx, rpcClient, tx, log)

	sender := client.New(rpcClient, log.Logger, client.Options{
		SendRetries:   cfg.SendRetries,
		PollInterval:  cfg.PollDelay(),
		Commitment:    cfg.CommitmentType(),
		SkipPreflight: cfg.SkipPreflight,
	})

	log.Info("🚀 Submitting transaction",
		zap.String("commitment", string(cfg.CommitmentType())),
		zap.Bool("skip_preflight", cfg.SkipPreflight),
		zap.Bool("durable_nonce", client.UsesDurableNonce(tx)))

	end := log.TrackPerformance("send_and_confirm")
	sig, err := sender.SendAndConfirmTransaction(runCtx, tx)
	end()
	if err != nil {
		var txErr *client.TransactionError
		if errors.As(err, &txErr) {
			log.Error("Transaction failed on chain",
				zap.String("signature", txErr.Signature.String()),
				zap.Any("tx_error", txErr.Err))
		}
		return err
	}

	stats := pool.TransportStats()
	log.Info("✅ Transaction confirmed",
		zap.String("signature", sig.String()),
		zap.Uint64("rpc_requests", stats.RequestCount),
		zap.Duration("rpc_time", stats.ElapsedTime),
		zap.Duration("rate_limited", stats.RateLimitedTime))

	fmt.Println(sig.String())
	return nil
}

// loadTransaction reads and deserializes an already-signed transaction.
func loadTransaction(path string, useBase58 bool) (*solana.Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction file: %w", err)
	}
	text := strings.TrimSpace(string(data))

	var raw []byte
	if useBase58 {
		raw, err = base58.Decode(text)
	} else {
		raw, err = base64.StdEncoding.DecodeString(text)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction payload: %w", err)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize transaction: %w", err)
	}
	return tx, nil
}

// logFeePayerBalance reports the fee payer's balance; a transaction that
// cannot pay its fee will otherwise just linger until the blockhash expires.
func logFeePayerBalance(ctx context.Context, rpcClient *solanarpc.Client, tx *solana.Transaction, log *logger.Logger) {
	if len(tx.Message.AccountKeys) == 0 {
		return
	}
	feePayer := tx.Message.AccountKeys[0]
	balance, err := rpcClient.GetBalance(ctx, feePayer, solanarpc.CommitmentProcessed)
	if err != nil {
		log.Warn("Could not fetch fee payer balance", zap.Error(err))
		return
	}
	sol := decimal.NewFromInt(int64(balance.Value)).Div(decimal.New(1, 9))
	log.Info("💰 Fee payer balance",
		zap.String("account", feePayer.String()),
		zap.String("sol", sol.String()))
}

func serveMetrics(addr string, pool *rpc.Pool, log *logger.Logger) *http.Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(rpc.NewStatsCollector(pool))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("Metrics server stopped", zap.Error(err))
		}
	}()
	log.Info("📊 Metrics exposed", zap.String("addr", addr))
	return srv
}
