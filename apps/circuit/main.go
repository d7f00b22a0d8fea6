//
// main.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

// Command circuit creates, converts, and analyzes distance circuits.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/markkurossi/quickpool/circuit"
	"github.com/markkurossi/quickpool/party"
)

func main() {
	riders := flag.Int("riders", 2, "number of riders")
	drivers := flag.Int("drivers", 2, "number of drivers")
	format := flag.String("format", "text", "output format: qpc, text, dot")
	output := flag.String("o", "", "write the circuit to `file`")
	analyze := flag.Bool("analyze", false, "print circuit level statistics")
	flag.Parse()

	log.SetFlags(0)

	var circs []*circuit.Circuit
	if len(flag.Args()) == 0 {
		dc, err := circuit.NewDistanceCircuit(party.Roles{
			Riders:  *riders,
			Drivers: *drivers,
		})
		if err != nil {
			log.Fatal(err)
		}
		circs = append(circs, dc.Circuit)
	}
	for _, file := range flag.Args() {
		c, err := load(file)
		if err != nil {
			log.Fatalf("failed to parse circuit file '%s': %s", file, err)
		}
		circs = append(circs, c)
	}

	out := os.Stdout
	if len(*output) > 0 {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		out = f
	}

	for _, c := range circs {
		if *analyze {
			c.OrderGatesByLevel().Analyze(os.Stdout)
			continue
		}
		var err error
		if *format == "dot" {
			c.Dot(out)
		} else {
			err = c.MarshalFormat(out, *format)
		}
		if err != nil {
			log.Fatal(err)
		}
		if out != os.Stdout {
			fmt.Printf("circuit: %v\n", c)
		}
	}
}

func load(file string) (*circuit.Circuit, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return circuit.Parse(f)
}
