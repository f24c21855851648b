package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gridsync-logstream/internal/domain"
	cfgpkg "gridsync-logstream/internal/infrastructure/config"
)

func newTailCmd(f *rootFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print node log records to stdout as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			// stdout carries records only
			return runTail(ctx, cfg, cmd.ErrOrStderr(), &recordPrinter{w: cmd.OutOrStdout(), json: asJSON})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print each record as a JSON object instead of the raw payload")
	return cmd
}

func runTail(ctx context.Context, cfg cfgpkg.Config, logOut io.Writer, p *recordPrinter) error {
	a := newApp(cfg, logOut, p)
	a.controller.Start()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.shutdown(shutdownCtx)
}

// recordPrinter writes each received record on its own line.
type recordPrinter struct {
	mu   sync.Mutex
	w    io.Writer
	json bool
}

func (p *recordPrinter) RecordReceived(rec domain.LogRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.json {
		_ = json.NewEncoder(p.w).Encode(rec)
		return
	}
	fmt.Fprintln(p.w, rec.Payload)
}

func (p *recordPrinter) StateChanged(from, to domain.ControllerState) {}
func (p *recordPrinter) AttemptStarted(target domain.EndpointAddress) {}
func (p *recordPrinter) SessionEnded(reason domain.EndReason, err error) {}
