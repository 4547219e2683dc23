// Command smile-tokend indexes smile_token proofs into a sqlite-backed ledger
// and serves balances, commitments and transfer calldata over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Abdullah1738/smile-token/ledger"
	"github.com/Abdullah1738/smile-token/protocol"
	"github.com/Abdullah1738/smile-token/zk/cairo"
)

var (
	dbFlag = &cli.StringFlag{
		Name:    "db",
		Usage:   "sqlite database path",
		Value:   "smile-token.db",
		EnvVars: []string{"SMILE_DB"},
	}
	listenFlag = &cli.StringFlag{
		Name:    "listen",
		Usage:   "listen address",
		Value:   ":8080",
		EnvVars: []string{"SMILE_LISTEN"},
	}
	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "proof output format: v1 or v2",
		Value: "v1",
	}
	senderFlag = &cli.StringFlag{
		Name:  "sender",
		Usage: "sender credited by decoded transfers",
		Value: string(protocol.GenesisSender),
	}
	pinFlag = &cli.StringFlag{
		Name:  "pin",
		Usage: "name of the store pin the indexer advances",
		Value: ledger.DefaultPin,
	}
	cacheSizeFlag = &cli.IntFlag{
		Name:  "commitment-cache",
		Usage: "number of memoized state commitments",
		Value: 256,
	}
	verbosityFlag = &cli.IntFlag{
		Name:    "verbosity",
		Usage:   "log level: 0=crit 1=error 2=warn 3=info 4=debug 5=trace",
		Value:   3,
		EnvVars: []string{"SMILE_VERBOSITY"},
	}
)

func main() {
	app := &cli.App{
		Name:   "smile-tokend",
		Usage:  "smile_token ledger indexer and API",
		Flags:  []cli.Flag{dbFlag, listenFlag, formatFlag, senderFlag, pinFlag, cacheSizeFlag, verbosityFlag},
		Action: serve,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, log.FromLegacyLevel(c.Int(verbosityFlag.Name)), true)))

	format, err := cairo.ParseOutputFormat(c.String(formatFlag.Name))
	if err != nil {
		return err
	}
	commitments, err := protocol.NewCommitmentCache(c.Int(cacheSizeFlag.Name))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := ledger.Open(ctx, c.String(dbFlag.Name))
	if err != nil {
		return err
	}
	defer store.Close()

	ix := ledger.NewIndexer(store,
		ledger.WithDecoder(cairo.Decoder{Format: format, Sender: protocol.Identifier(c.String(senderFlag.Name))}),
		ledger.WithPin(c.String(pinFlag.Name)),
		ledger.WithLogger(log.Root().New("module", "indexer")),
	)

	srv := &http.Server{
		Addr:              c.String(listenFlag.Name),
		Handler:           newServer(ix, store, commitments, log.Root().New("module", "http")).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ix.Run(gctx)
	})
	g.Go(func() error {
		log.Info("Listening", "addr", srv.Addr, "db", c.String(dbFlag.Name), "format", format)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return shutdownErr(g.Wait())
}

// shutdownErr drops the cancellation a signal causes, including when a store
// call in flight wrapped it.
func shutdownErr(err error) error {
	if errors.Is(err, context.Canceled) {
		log.Info("Shut down")
		return nil
	}
	return err
}
