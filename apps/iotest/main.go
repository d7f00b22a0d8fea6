//
// main.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

// Command iotest measures the field element throughput of the peer
// connections.
package main

import (
	"flag"
	"log"
	"os"
	"runtime/pprof"
)

var (
	port = ":8080"
)

func main() {
	receiver := flag.Bool("r", false, "receiver / sender mode")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to `file`")
	testIO := flag.Int64("test-io", 1000*1000*1000, "test I/O performance")
	flag.Parse()

	log.SetFlags(0)

	if len(*cpuprofile) > 0 {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	if *testIO <= 0 {
		return
	}
	if *receiver {
		err := receiverTestIO(len(*cpuprofile) > 0)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		err := senderTestIO(*testIO)
		if err != nil {
			log.Fatal(err)
		}
	}
}
