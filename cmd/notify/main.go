// Command notify provides example usage of the notify library: it watches
// a root path and prints every event it receives.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kestrelfs/notify"
)

var usage = `
notify watches a directory tree and prints the events it receives.

Usage:

    notify [path] [-<unit> <n>]

path defaults to the current directory. -<unit> <n> closes the watcher
after n units have elapsed, where <unit> is one of:

    -ns -us -ms -s -m -h -d -w -mts -y

(-mts and -y use the fixed approximations 730h and 8760h respectively.)

-h, --help prints this message.
`[1:]

var durationUnits = map[string]time.Duration{
	"-ns":  time.Nanosecond,
	"-us":  time.Microsecond,
	"-ms":  time.Millisecond,
	"-s":   time.Second,
	"-m":   time.Minute,
	"-h":   time.Hour,
	"-d":   24 * time.Hour,
	"-w":   7 * 24 * time.Hour,
	"-mts": 730 * time.Hour,
	"-y":   8760 * time.Hour,
}

func exit(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, filepath.Base(os.Args[0])+": "+format+"\n", a...)
	os.Exit(1)
}

func help() {
	fmt.Print(usage)
	os.Exit(0)
}

func printTime(s string, a ...interface{}) {
	fmt.Printf(time.Now().Format("15:04:05.0000")+" "+s+"\n", a...)
}

func main() {
	args := os.Args[1:]
	for _, a := range args {
		if a == "-h" && len(args) == 1 || a == "--help" || a == "help" {
			help()
		}
	}

	path := "."
	var timeout time.Duration

	for i := 0; i < len(args); i++ {
		unit, ok := durationUnits[args[i]]
		if !ok {
			path = args[i]
			continue
		}
		if i+1 >= len(args) {
			exit("%s requires an unsigned integer argument", args[i])
		}
		n, err := strconv.ParseUint(args[i+1], 10, 64)
		if err != nil {
			exit("invalid duration for %s: %v", args[i], err)
		}
		timeout = unit * time.Duration(n)
		i++
	}

	h, err := notify.Watch(path, func(ev notify.Event) {
		printTime("%s", ev)
	})
	if err != nil {
		exit("%s", err)
	}

	if timeout <= 0 {
		select {} // no duration given: watch until killed
	}

	time.Sleep(timeout)
	if !h.Close() {
		os.Exit(1)
	}
}
