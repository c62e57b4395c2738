// Command tsdesc decodes the descriptors of MPEG transport streams read
// from files or received over SRT and prints one JSON object per decoded
// descriptor on stdout.
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
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/zsiec/tsdesc"
	"github.com/zsiec/tsdesc/internal/config"
	"github.com/zsiec/tsdesc/internal/ingest"
	srtingest "github.com/zsiec/tsdesc/internal/ingest/srt"
	"github.com/zsiec/tsdesc/scan"
)

var version = "dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		slog.Error("tsdesc failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	cfg     config.Config
	files   []string
	version bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("tsdesc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: tsdesc [flags] [file ...]\n\nA file named - is read from stdin.\n\n")
		fs.PrintDefaults()
	}

	var (
		configPath = fs.String("config", "", "TOML configuration file")
		standard   = fs.String("standard", "", "descriptor lookup chain: dvb, isdb, atsc or mpeg")
		srtAddr    = fs.String("srt", "", "SRT listen address, e.g. :6000")
		workers    = fs.Int("workers", 0, "files decoded in parallel")
		packetSize = fs.Int("packet-size", 0, "TS packet size: 188, 192 or 204")
		pids       = fs.String("pids", "", "comma-separated extra section PIDs")
		padding    = fs.Bool("padding", false, "allow 0xFF stuffing at the end of descriptor loops")
		dedupe     = fs.Bool("dedupe", false, "skip sections repeated unchanged by the carousel")
		showVer    = fs.Bool("version", false, "print the version and exit")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}

	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "standard":
			std, err := tsdesc.ParseStandard(*standard)
			if err != nil {
				flagErr = errors.Join(flagErr, err)
			}
			cfg.Standard = std
		case "srt":
			cfg.SRT.Addr = *srtAddr
		case "workers":
			cfg.Workers = *workers
		case "packet-size":
			cfg.PacketSize = *packetSize
		case "pids":
			list, err := parsePIDs(*pids)
			if err != nil {
				flagErr = errors.Join(flagErr, err)
			}
			cfg.PIDs = append(cfg.PIDs, list...)
		case "padding":
			cfg.Padding = *padding
		case "dedupe":
			cfg.Dedupe = *dedupe
		}
	})
	if flagErr != nil {
		return nil, flagErr
	}

	return &options{
		cfg:     cfg,
		files:   fs.Args(),
		version: *showVer,
	}, nil
}

func parsePIDs(s string) ([]uint16, error) {
	var out []uint16
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseUint(field, 0, 13)
		if err != nil {
			return nil, fmt.Errorf("pid %q: %w", field, err)
		}
		out = append(out, uint16(v))
	}
	return out, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintln(stdout, "tsdesc", version)
		return nil
	}

	cfg := opts.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	if len(opts.files) == 0 && cfg.SRT.Addr == "" && len(cfg.SRT.Pulls) == 0 {
		return errors.New("nothing to decode: give input files, -srt or srt.pull in the config")
	}

	reg, err := tsdesc.NewRegistry()
	if err != nil {
		return err
	}
	scanner := scan.New(reg, scannerOptions(cfg)...)
	out := newEmitter(stdout)

	slog.Info("tsdesc starting",
		"version", version,
		"standard", cfg.Standard,
		"files", len(opts.files),
		"srt", cfg.SRT.Addr,
		"workers", cfg.Workers,
	)

	g, ctx := errgroup.WithContext(ctx)

	if len(opts.files) > 0 {
		files := opts.files
		g.Go(func() error {
			return decodeFiles(ctx, scanner, out, files, stdin, cfg.Workers)
		})
	}

	if cfg.SRT.Addr != "" || len(cfg.SRT.Pulls) > 0 {
		registry := ingest.NewRegistry(func(key string, input io.Reader) error {
			return decode(ctx, scanner, out, "srt:"+key, input)
		}, nil)

		if cfg.SRT.Addr != "" {
			srv := srtingest.NewServer(cfg.SRT.Addr, registry, nil)
			g.Go(func() error {
				return srv.Start(ctx)
			})
		}

		if len(cfg.SRT.Pulls) > 0 {
			caller := srtingest.NewCaller(registry, nil)
			for _, p := range cfg.SRT.Pulls {
				req := srtingest.PullRequest{Address: p.Address, StreamKey: p.StreamKey, StreamID: p.StreamID}
				if err := caller.Pull(ctx, req); err != nil {
					slog.Warn("SRT pull failed", "address", p.Address, "stream_key", p.StreamKey, "error", err)
				}
			}
			g.Go(func() error {
				<-ctx.Done()
				caller.Wait()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return out.flush()
}

func scannerOptions(cfg config.Config) []func(*scan.Scanner) {
	opts := []func(*scan.Scanner){
		scan.ScannerOptStandard(cfg.Standard),
		scan.ScannerOptPacketSize(cfg.PacketSize),
	}
	if cfg.Padding {
		opts = append(opts, scan.ScannerOptPadding())
	}
	if cfg.Dedupe {
		opts = append(opts, scan.ScannerOptDedupe())
	}
	if len(cfg.PIDs) > 0 {
		opts = append(opts, scan.ScannerOptPIDs(cfg.PIDs...))
	}
	return opts
}

// decodeFiles scans files with at most workers in flight.
func decodeFiles(ctx context.Context, s *scan.Scanner, out *emitter, files []string, stdin io.Reader, workers int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, name := range files {
		g.Go(func() error {
			if name == "-" {
				return decode(ctx, s, out, "stdin", stdin)
			}
			f, err := os.Open(name)
			if err != nil {
				return err
			}
			defer f.Close()
			return decode(ctx, s, out, name, f)
		})
	}
	return g.Wait()
}

func decode(ctx context.Context, s *scan.Scanner, out *emitter, source string, r io.Reader) error {
	st, err := s.Scan(ctx, r, func(res *scan.Result) error {
		return out.emit(source, res)
	})
	slog.Info("scan complete",
		"source", source,
		"sections", st.Sections,
		"tables", st.Tables,
		"splice_sections", st.SpliceSections,
		"skipped", st.Skipped,
		"descriptors", st.Descriptors,
		"unknown", st.Unknown,
		"errors", st.Errors,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}
	return nil
}
