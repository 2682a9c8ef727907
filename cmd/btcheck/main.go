package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/mindsgn-studio/torutil/engine"
	"github.com/mindsgn-studio/torutil/tui"
)

func main() {
	quiet := flag.Bool("q", false, "suppress per-piece progress lines")
	failFast := flag.Bool("f", false, "stop at the first error")
	torrentDir := flag.Bool("d", false, "resolve the content root relative to the torrent's directory")
	title := flag.Bool("t", false, "show progress in the terminal title")
	extract := flag.String("x", "", "extract valid pieces into `dir`")
	interactive := flag.Bool("i", false, "interactive progress display")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: btcheck [flags] <torrent> [checkee]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 || flag.NArg() > 2 {
		flag.Usage()
		os.Exit(2)
	}
	torrentPath := flag.Arg(0)

	m, err := engine.Load(torrentPath)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}

	root := flag.Arg(1)
	if *torrentDir {
		if root == "" {
			root = m.Name()
		}
		if !filepath.IsAbs(root) {
			root = filepath.Join(filepath.Dir(torrentPath), root)
		}
	}

	opts := engine.CheckOptions{
		Root:       root,
		FailFast:   *failFast,
		ExtractDir: *extract,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var summary engine.Summary
	if *interactive {
		summary, err = tui.RunCheck(ctx, m, opts)
	} else {
		total := m.NumPieces()
		opts.Progress = func(r engine.PieceResult) {
			if *title {
				fmt.Printf("\033]0;btcheck %d/%d\007", r.Index+1, total)
			}
			for _, e := range r.Errors {
				log.Errorf("piece %d: %v", r.Index, e)
			}
			if *quiet {
				return
			}
			frags := make([]string, 0, len(r.Fragments))
			for _, f := range r.Fragments {
				frags = append(frags, f.Describe())
			}
			fmt.Printf("piece %d/%d %s  %s\n", r.Index+1, total, r.Status, strings.Join(frags, " "))
		}
		summary, err = engine.Check(ctx, m, opts)
	}
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}

	for _, extra := range summary.ExtraFiles {
		fmt.Printf("extra file: %s\n", extra)
	}
	fmt.Printf("%s: %d/%d pieces valid (info hash %x)\n",
		m.Name(), summary.ValidPieces, summary.PieceCount, m.InfoHash())

	if summary.ErrorsDetected {
		os.Exit(1)
	}
}
