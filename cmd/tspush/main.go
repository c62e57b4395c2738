// Command tspush sends a transport stream file to an SRT listener such as
// tsdesc -srt, paced at a fixed bitrate.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	srtgo "github.com/zsiec/srtgo"

	"github.com/zsiec/tsdesc/mpegts"
)

// chunkSize is one SRT payload: seven TS packets.
const chunkSize = 7 * mpegts.PacketSizeTS

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := run(ctx, os.Args[1:]); err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		slog.Error("tspush failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tspush", flag.ContinueOnError)
	addr := fs.String("addr", "127.0.0.1:6000", "SRT listener address")
	key := fs.String("key", "", "stream key (default: file name without extension)")
	bitrate := fs.Int("bitrate", 4_000_000, "send rate in bits per second, 0 for unpaced")
	loop := fs.Bool("loop", false, "restart from the beginning at end of file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: tspush [flags] file.ts")
	}
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(data)%mpegts.PacketSizeTS != 0 {
		slog.Warn("file size is not a whole number of packets", "file", path, "size", len(data))
	}

	streamID := "live/" + streamKey(path, *key)
	cfg := srtgo.DefaultConfig()
	cfg.StreamID = streamID

	conn, err := srtgo.Dial(*addr, cfg)
	if err != nil {
		return fmt.Errorf("dial %s: %w", *addr, err)
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	slog.Info("connected", "addr", *addr, "stream_id", streamID, "bytes", len(data), "bitrate", *bitrate)
	start := time.Now()
	sent, err := push(ctx, conn, data, *bitrate, *loop)
	slog.Info("push ended", "stream_id", streamID, "bytes", sent, "elapsed", time.Since(start).Truncate(time.Millisecond))
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func streamKey(path, key string) string {
	if key != "" {
		return key
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// push writes data to w in chunkSize pieces, sleeping to hold bitrate
// against a single clock so looping does not burst at the seam. It returns
// the number of bytes written.
func push(ctx context.Context, w io.Writer, data []byte, bitrate int, loop bool) (int64, error) {
	start := time.Now()
	var sent int64
	for {
		for chunk := range slices.Chunk(data, chunkSize) {
			if err := ctx.Err(); err != nil {
				return sent, err
			}
			n, err := w.Write(chunk)
			sent += int64(n)
			if err != nil {
				return sent, err
			}
			if bitrate > 0 {
				due := time.Duration(float64(sent*8) / float64(bitrate) * float64(time.Second))
				if wait := due - time.Since(start); wait > 0 {
					time.Sleep(wait)
				}
			}
		}
		if !loop || len(data) == 0 {
			return sent, nil
		}
	}
}

