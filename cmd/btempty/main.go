package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/mindsgn-studio/torutil/engine"
)

func main() {
	torrentDir := flag.Bool("d", false, "resolve the content root relative to the torrent's directory")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: btempty [flags] <torrent>...\n")
		flag.PrintDefaults()
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

		root := ""
		if *torrentDir {
			root = filepath.Join(filepath.Dir(torrentPath), m.Name())
		}

		created, err := m.CreateEmptyFiles(root)
		for _, path := range created {
			fmt.Println(path)
		}
		if err != nil {
			log.Errorf("%v", err)
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
}
