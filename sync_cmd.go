package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/driveloom/mirror/internal/gateway"
	"github.com/driveloom/mirror/internal/mirror"
)

// httpClientTimeout bounds how long every Graph API call waits for its
// response headers. Content downloads stream through the same client; once
// headers arrive, reading the body relies on context cancellation rather
// than this timeout, since large files can legitimately take longer than a
// metadata call.
const httpClientTimeout = 30 * time.Second

// ledgerFileName is the RunLedger's SQLite database, stored alongside the
// mirrored drives rather than in a separate state directory.
const ledgerFileName = ".mirror-ledger.db"

var (
	flagWatch  bool
	flagReload bool
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one mirror pass across the configured drives",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd)

			if flagReload {
				return sendSIGHUP(filepath.Join(cc.Cfg.LocalRoot, watchPIDFileName))
			}

			if flagWatch {
				return runSyncWatch(cmd.Context(), cc)
			}

			return runSyncOnce(shutdownContext(cmd.Context(), cc.Logger), cc)
		},
	}

	cmd.Flags().BoolVar(&flagWatch, "watch", false, "loop forever, resyncing every poll-interval until interrupted")
	cmd.Flags().BoolVar(&flagReload, "reload", false, "signal a running --watch loop to resync immediately, instead of waiting out its poll interval")

	return cmd
}

// runSyncOnce builds the gateway, ledger, and orchestrator, and performs a
// single synchronization pass. ctx is expected to already carry whatever
// cancellation policy the caller wants (see shutdownContext).
func runSyncOnce(ctx context.Context, cc *CLIContext) error {
	gw := newGatewayClient(cc)

	ledgerPath := filepath.Join(cc.Cfg.LocalRoot, ledgerFileName)

	ledger, err := mirror.OpenRunLedger(ctx, ledgerPath, cc.Logger)
	if err != nil {
		return fmt.Errorf("opening run ledger: %w", err)
	}
	defer ledger.Close()

	orch := mirror.NewSyncOrchestrator(gw, ledger, cc.Logger, orchestratorConfig(cc))

	if err := orch.SelectDrives(ctx, cc.Cfg.Drives); err != nil {
		return fmt.Errorf("selecting drives: %w", err)
	}

	if err := orch.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			cc.Logger.Info("sync interrupted, exiting cleanly")

			return nil
		}

		return err
	}

	return nil
}

// watchPIDFileName names the PID file a --watch loop holds for its
// lifetime, letting a separate `sync --reload` invocation find it.
const watchPIDFileName = ".mirror-watch.pid"

// runSyncWatch repeats runSyncOnce every PollInterval until canceled, or
// immediately on receipt of SIGHUP (see `sync --reload`). A PID file under
// LocalRoot prevents two overlapping watch loops against the same
// local_root.
func runSyncWatch(ctx context.Context, cc *CLIContext) error {
	pidPath := filepath.Join(cc.Cfg.LocalRoot, watchPIDFileName)

	cleanup, err := writePIDFile(pidPath)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx = shutdownContext(ctx, cc.Logger)

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(reload)

	for {
		cc.Logger.Info("starting sync pass")

		if err := runSyncOnce(ctx, cc); err != nil {
			cc.Logger.Error("sync pass failed", slog.String("error", err.Error()))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-reload:
			cc.Logger.Info("received reload signal, resyncing immediately")
		case <-time.After(cc.Cfg.PollInterval):
		}
	}
}

// newGatewayClient builds a RemoteGateway client authenticated via the
// OAuth2 client-credentials grant.
func newGatewayClient(cc *CLIContext) *gateway.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = httpClientTimeout
	httpClient := &http.Client{Transport: transport}
	token := gateway.NewClientCredentialsTokenSource(context.Background(), cc.Cfg.TenantID, cc.Cfg.ClientID, cc.Cfg.ClientSecret)

	return gateway.NewClient(gateway.DefaultBaseURL, httpClient, token, cc.Logger)
}

// orchestratorConfig trims the resolved Config down to what
// SyncOrchestrator needs.
func orchestratorConfig(cc *CLIContext) mirror.OrchestratorConfig {
	return mirror.OrchestratorConfig{
		SiteID:                cc.Cfg.SiteID,
		LocalRoot:             cc.Cfg.LocalRoot,
		BatchLimit:            cc.Cfg.BatchLimit,
		WorkerLimit:           cc.Cfg.WorkerLimit,
		Prune:                 cc.Cfg.Prune,
		StrictHashMode:        cc.Cfg.StrictHashMode,
		RequeueOnBatchFailure: cc.Cfg.RequeueOnBatch,
		ContentEndpointFmt:    gateway.DefaultBaseURL + "/drives/%s/items/%s/content",
	}
}
