package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"encoding/json"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roundtable/rtc/internal/agent"
	"github.com/roundtable/rtc/internal/issue"
	"github.com/roundtable/rtc/internal/ledger"
	"github.com/roundtable/rtc/internal/orchestrator"
	"github.com/roundtable/rtc/internal/rtcapi"
	"github.com/roundtable/rtc/internal/rtcapi/auth"
	"github.com/roundtable/rtc/internal/rtcconfig"
	"github.com/roundtable/rtc/internal/rtclog"
	"github.com/roundtable/rtc/internal/rtcmetrics"
)

func main() {
	configFile := flag.String("config", "./rtc.yaml", "Path to the run configuration file")
	listenAddr := flag.String("listen", "127.0.0.1:8085", "Address for the Action API HTTP server")
	problemStatement := flag.String("issue", "", "Problem statement for the issue this run resolves")
	agentsFlag := flag.String("agents", "", "Comma-separated agent display names to invite")
	autoTick := flag.Duration("auto-tick", 0, "If non-zero, advance the logical clock automatically on this interval")
	ledgerSink := flag.String("ledger-file", "", "If set, path to a rotating log file receiving a passive copy of ledger events")
	jwtSecret := flag.String("jwt-secret", "", "HS256 signing secret for agent credentials (required)")
	flag.Parse()

	logger := rtclog.Setup("rtcd", "")

	cfg, err := rtcconfig.Load(*configFile)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if *jwtSecret == "" {
		logger.Error("jwt-secret is required")
		os.Exit(1)
	}
	if *problemStatement == "" {
		logger.Error("issue problem statement is required")
		os.Exit(1)
	}

	var sink ledger.Sink
	if *ledgerSink != "" {
		sink = &fileSink{w: rtclog.RotatingSink(*ledgerSink)}
	}
	l := ledger.New(sink)

	issuer := auth.NewIssuer([]byte(*jwtSecret), "rtcd")
	verifier := auth.NewVerifier([]byte(*jwtSecret), "rtcd")

	roster := agent.NewRoster()
	names := splitNonEmpty(*agentsFlag)
	issueID := uuid.NewString()
	assigned := make([]string, 0, len(names))
	for i, name := range names {
		uid := "agent-" + strconv.Itoa(i+1)
		credential, err := issuer.Issue(uid, issueID, 24*time.Hour)
		if err != nil {
			logger.Error("failed to issue credential", "agent", uid, "error", err)
			os.Exit(1)
		}
		roster.Invite(agent.Agent{UID: uid, DisplayName: name, Credential: credential})
		assigned = append(assigned, uid)
		logger.Info("agent invited", "agent_uid", uid, "display_name", name, "credential", rtclog.RedactCredential(credential))
	}

	iss := issue.New(issueID, *problemStatement, assigned, cfg, 0)
	orch, err := orchestrator.New(iss, roster, l)
	if err != nil {
		logger.Error("failed to start orchestrator", "error", err)
		os.Exit(1)
	}
	orch.SetVerifier(verifier)

	// Register on the default registry, which is what /metrics serves.
	metrics := rtcmetrics.New(prometheus.DefaultRegisterer)
	orch.SetMetrics(metrics)

	server := &http.Server{
		Addr:    *listenAddr,
		Handler: rtcapi.New(orch),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("action api listening", "addr", *listenAddr, "issue", issueID)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("action api server failed", "error", err)
		}
	}()

	if *autoTick > 0 {
		go runAutoTick(ctx, orch, *autoTick, logger)
	}

	<-ctx.Done()
	logger.Info("shutting down", "finalized", orch.Finalized())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)

	if winner, score, ok := orch.Winner(); ok {
		fmt.Printf("winner_proposal_id=%s score=%f\n", winner, score)
	}
}

func runAutoTick(ctx context.Context, orch *orchestrator.Orchestrator, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if orch.Finalized() {
				return
			}
			if err := orch.AdvanceTick(); err != nil {
				logger.Error("tick failed", "error", err)
			}
		}
	}
}

func splitNonEmpty(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// fileSink adapts a lumberjack.Logger (an io.Writer) into a ledger.Sink by
// serializing each event as a single JSON line. It is best-effort only;
// the in-memory Ledger remains the sole replay-authoritative source.
type fileSink struct {
	w interface {
		Write(p []byte) (int, error)
	}
}

func (f *fileSink) Write(e ledger.Event) {
	b, err := json.Marshal(e)
	if err != nil {
		return
	}
	b = append(b, '\n')
	_, _ = f.w.Write(b)
}
