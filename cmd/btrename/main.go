package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/mindsgn-studio/torutil/engine"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: btrename <torrent>...\n")
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	failed := false
	for _, torrentPath := range flag.Args() {
		m, err := engine.Load(torrentPath)
		if err != nil {
			log.Errorf("%v", err)
			failed = true
			continue
		}

		target, err := engine.RenameTorrent(torrentPath, m.Name())
		if err != nil {
			log.Errorf("%v", err)
			failed = true
			continue
		}
		fmt.Printf("%s -> %s\n", torrentPath, target)
	}

	if failed {
		os.Exit(1)
	}
}
