package main

import (
	"errors"
	"flag"
	"fmt"
	"math/big"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mindsgn-studio/torutil/engine"
)

func main() {
	expr := flag.String("e", "", "selector `expression` (whitespace-separated steps)")
	setInt := flag.String("int", "", "set an integer `value` at the selector")
	setStr := flag.String("str", "", "set a string `value` at the selector")
	mkDict := flag.Bool("dict", false, "set an empty dictionary at the selector")
	mkList := flag.Bool("list", false, "set an empty list at the selector")
	remove := flag.Bool("rm", false, "remove the value at the selector")
	out := flag.String("o", "", "write the result to `path` instead of the source file")
	asJSON := flag.Bool("json", false, "print the selected value as JSON")
	asAtom := flag.Bool("atom", false, "print the selected value raw (strings and integers only)")
	asTime := flag.Bool("time", false, "treat integers as Unix timestamps")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: btedit [flags] <file>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	strGiven := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "str" {
			strGiven = true
		}
	})

	mutators := 0
	if *setInt != "" {
		mutators++
	}
	if strGiven {
		mutators++
	}
	if *mkDict {
		mutators++
	}
	if *mkList {
		mutators++
	}
	if *remove {
		mutators++
	}
	if mutators > 1 {
		log.Error("at most one of -int, -str, -dict, -list, -rm may be given")
		os.Exit(2)
	}
	if mutators > 0 && (*asJSON || *asAtom) {
		log.Error("mutators cannot be combined with -json or -atom")
		os.Exit(2)
	}
	if *asJSON && *asAtom {
		log.Error("-json and -atom are mutually exclusive")
		os.Exit(2)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
	root, err := engine.Decode(raw)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}

	sel := engine.ParseSelector(*expr)

	if mutators == 0 {
		if err := printSelected(root, sel, *asJSON, *asAtom, *asTime); err != nil {
			log.Errorf("%v", err)
			os.Exit(1)
		}
		return
	}

	// Null-selector mutations bypass the selector engine: remove unlinks
	// the source file, anything else replaces the whole tree.
	if len(sel) == 0 {
		if *remove {
			if err := os.Remove(path); err != nil {
				log.Errorf("%v", err)
				os.Exit(1)
			}
			return
		}
		nv, err := newValue(*setInt, *setStr, strGiven, *mkDict, *mkList, *asTime)
		if err != nil {
			log.Errorf("%v", err)
			os.Exit(1)
		}
		writeBack(path, *out, nv)
		return
	}

	if *remove {
		root, err = engine.Delete(root, sel)
	} else {
		var nv engine.Value
		nv, err = newValue(*setInt, *setStr, strGiven, *mkDict, *mkList, *asTime)
		if err == nil {
			root, err = engine.Set(root, sel, nv)
		}
	}
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
	writeBack(path, *out, root)
}

// newValue builds the replacement value from whichever mutator was given.
func newValue(setInt, setStr string, strGiven, mkDict, mkList, asTime bool) (engine.Value, error) {
	switch {
	case setInt != "":
		n, err := parseInteger(setInt, asTime)
		if err != nil {
			return nil, err
		}
		return n, nil
	case strGiven:
		return engine.String(setStr), nil
	case mkDict:
		return engine.Dict{}, nil
	case mkList:
		return engine.List{}, nil
	default:
		return nil, errors.New("no mutator value")
	}
}

// parseInteger accepts a decimal integer, or with asTime also an ISO-8601
// UTC timestamp converted to Unix seconds.
func parseInteger(s string, asTime bool) (engine.Value, error) {
	if n, ok := new(big.Int).SetString(s, 10); ok {
		return engine.Integer{Int: n}, nil
	}
	if asTime {
		t, err := time.Parse("2006-01-02T15:04:05", s)
		if err == nil {
			return engine.NewInteger(t.UTC().Unix()), nil
		}
	}
	return nil, fmt.Errorf("invalid integer %q", s)
}

func printSelected(root engine.Value, sel engine.Selector, asJSON, asAtom, asTime bool) error {
	v, err := engine.Select(root, sel)
	if err != nil {
		return err
	}
	switch {
	case asJSON:
		out, err := engine.EncodeJSON(v)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", out)
	case asAtom:
		out, err := engine.Atom(v, asTime)
		if err != nil {
			return err
		}
		os.Stdout.Write(out)
	default:
		os.Stdout.Write(engine.Pretty(v))
	}
	return nil
}

func writeBack(src, out string, root engine.Value) {
	target := src
	if out != "" {
		target = out
	}
	if err := engine.Rewrite(target, root); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
