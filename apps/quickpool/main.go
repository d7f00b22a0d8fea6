//
// main.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Command quickpool runs the ride-matching computation. By default it
// simulates all parties in one process. With the -id option it runs a
// single party connected to the other parties over TCP.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime/pprof"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/quickpool/circuit"
	"github.com/markkurossi/quickpool/env"
	"github.com/markkurossi/quickpool/p2p"
	"github.com/markkurossi/quickpool/party"
	"github.com/markkurossi/quickpool/prg"
	"github.com/markkurossi/quickpool/quickpool"
	"go.uber.org/zap"
)

type options struct {
	roles     party.Roles
	threshold uint64
	config    *env.Config
	pair      *party.Pair
	timing    bool
}

func main() {
	riders := flag.Int("riders", 2, "number of riders")
	drivers := flag.Int("drivers", 2, "number of drivers")
	threshold := flag.Uint64("threshold", quickpool.DefaultThreshold,
		"start and end distance threshold")
	seed := flag.Uint64("seed", env.DefaultSeed, "shared generator seed")
	threads := flag.Int("threads", 0, "worker threads per party")
	verbose := flag.Bool("v", false, "verbose output")
	random := flag.Bool("random", false, "use random trips")
	grid := flag.Int64("grid", 200, "random trip grid size")
	tripsFile := flag.String("trips", "", "read trips from `file`")
	pairFlag := flag.String("pair", "", "evaluate only the pair `rider,driver`")
	dot := flag.String("dot", "", "write the circuit graph to `file`")
	useTCP := flag.Bool("tcp", false, "connect the simulated parties over TCP")
	id := flag.Int("id", -1, "run as party `id`")
	addrs := flag.String("addrs", "",
		"comma-separated party addresses, in party ID order")
	trip := flag.String("trip", "0,0,0,0", "party trip `sx,sy,ex,ey`")
	timing := flag.Bool("timing", false, "print timing profile")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to `file`")
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

	logger := zap.NewNop()
	if *verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			log.Fatal(err)
		}
		defer logger.Sync()
	}

	opts := &options{
		roles: party.Roles{
			Riders:  *riders,
			Drivers: *drivers,
		},
		threshold: *threshold,
		config: &env.Config{
			Seed:    prg.SeedFromUint64(*seed),
			Logger:  logger,
			Verbose: *verbose,
			Threads: *threads,
		},
		timing: *timing,
	}
	if len(*pairFlag) > 0 {
		var r, d int
		_, err := fmt.Sscanf(*pairFlag, "%d,%d", &r, &d)
		if err != nil {
			log.Fatalf("invalid pair '%s': %s", *pairFlag, err)
		}
		if r < 0 || r >= *riders || d < 0 || d >= *drivers {
			log.Fatalf("invalid pair '%s'", *pairFlag)
		}
		opts.pair = &party.Pair{
			Rider:  opts.roles.Rider(r),
			Driver: opts.roles.Driver(d),
		}
	}

	dc, err := newCircuit(opts)
	if err != nil {
		log.Fatal(err)
	}
	if len(*dot) > 0 {
		f, err := os.Create(*dot)
		if err != nil {
			log.Fatal(err)
		}
		dc.Dot(f)
		f.Close()
	}

	if *id >= 0 {
		t, err := parseTrip(*trip)
		if err != nil {
			log.Fatal(err)
		}
		err = runParty(opts, dc, party.ID(*id), strings.Split(*addrs, ","), t)
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	var riderTrips, driverTrips []circuit.Trip
	switch {
	case len(*tripsFile) > 0:
		riderTrips, driverTrips, err = readTrips(*tripsFile, opts.roles)
		if err != nil {
			log.Fatal(err)
		}
	case *random:
		if *grid <= 0 || *grid > circuit.MaxCoordinate {
			log.Fatalf("invalid grid size %d", *grid)
		}
		rnd := rand.New(rand.NewSource(int64(*seed)))
		riderTrips = randomTrips(rnd, opts.roles.Riders, *grid)
		driverTrips = randomTrips(rnd, opts.roles.Drivers, *grid)
	default:
		riderTrips = fixedTrips(opts.roles.Riders, 0)
		driverTrips = fixedTrips(opts.roles.Drivers, 1)
	}

	err = simulate(opts, dc, riderTrips, driverTrips, *useTCP)
	if err != nil {
		log.Fatal(err)
	}
}

func newCircuit(opts *options) (*circuit.DistanceCircuit, error) {
	if opts.pair != nil {
		return circuit.NewDistanceCircuitForPairs(opts.roles,
			[]party.Pair{*opts.pair})
	}
	return circuit.NewDistanceCircuit(opts.roles)
}

// evaluate runs the matching for one party. Parties connected over
// TCP agree on their pairwise generator keys before the evaluation;
// in-memory simulations derive them from the shared seed.
func evaluate(opts *options, dc *circuit.DistanceCircuit, id party.ID,
	transport p2p.Transport, exchange bool, trip circuit.Trip) (
	*quickpool.Matching, *quickpool.Timing, error) {

	var pool *prg.Pool
	var err error
	if exchange {
		pool, err = quickpool.ExchangeKeys(id, opts.roles, transport,
			opts.config.GetRandom())
		if err != nil {
			return nil, nil, errors.Wrap(err, "key exchange")
		}
	}
	if opts.pair != nil && !opts.pair.Involves(id) {
		return &quickpool.Matching{
			Roles: opts.roles,
		}, nil, nil
	}
	var ev *quickpool.Evaluator
	if pool != nil {
		ev, err = quickpool.NewEvaluatorWithPool(id, opts.roles,
			dc.OrderGatesByLevel(), transport, pool, opts.config)
	} else {
		ev, err = quickpool.NewEvaluator(id, opts.roles,
			dc.OrderGatesByLevel(), transport, opts.config)
	}
	if err != nil {
		return nil, nil, err
	}
	ev.StartThreshold = opts.threshold
	ev.EndThreshold = opts.threshold

	inputs, err := dc.PartyInputs(id, trip)
	if err != nil {
		return nil, nil, err
	}
	m, err := ev.EvaluateMatching(dc.Ownership(), inputs)
	if err != nil {
		return nil, nil, err
	}
	return m, ev.Timing, nil
}

func simulate(opts *options, dc *circuit.DistanceCircuit,
	riders, drivers []circuit.Trip, useTCP bool) error {

	fmt.Printf("Circuit: %v\n", dc.OrderGatesByLevel())

	n := opts.roles.NumParties()
	transports := make([]p2p.Transport, n)
	if useTCP {
		nets, err := connectLocal(n, opts.config.GetLogger())
		if err != nil {
			return err
		}
		for i, nw := range nets {
			defer nw.Close()
			transports[i] = nw
		}
	} else {
		for i, m := range p2p.NewPipeMeshes(n) {
			defer m.Close()
			transports[i] = m
		}
	}

	results := make([]*quickpool.Matching, n)
	timings := make([]*quickpool.Timing, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Go(func() {
			id := party.ID(i)
			var t circuit.Trip
			switch opts.roles.Role(id) {
			case party.RoleRider:
				t = riders[opts.roles.RiderIndex(id)]
			case party.RoleDriver:
				t = drivers[opts.roles.DriverIndex(id)]
			}
			results[i], timings[i], errs[i] = evaluate(opts, dc, id,
				transports[i], useTCP, t)
		})
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return errors.Wrapf(err, "party %d", i)
		}
	}

	m := results[party.Coordinator]
	m.Print(os.Stdout)
	fmt.Printf("Matching size: %d\n", m.Size)

	if err := verify(opts, m, riders, drivers); err != nil {
		return err
	}
	if opts.timing && timings[party.Coordinator] != nil {
		timings[party.Coordinator].Print(os.Stdout,
			transports[party.Coordinator].Stats())
	}
	return nil
}

// verify compares the secure result against the plaintext matching.
func verify(opts *options, m *quickpool.Matching,
	riders, drivers []circuit.Trip) error {

	limit := opts.threshold * opts.threshold
	for i, rider := range riders {
		for j, driver := range drivers {
			pair := party.Pair{
				Rider:  opts.roles.Rider(i),
				Driver: opts.roles.Driver(j),
			}
			expected := circuit.SquaredDistance(rider.Start, driver.Start) <= limit &&
				circuit.SquaredDistance(rider.End, driver.End) <= limit
			if opts.pair != nil && pair != *opts.pair {
				expected = false
			}
			if m.Matches[i][j] != expected {
				return errors.Newf("pair %v: got %v, expected %v",
					pair, m.Matches[i][j], expected)
			}
		}
	}
	return nil
}

// connectLocal creates TCP networks for all parties on the loopback
// interface and connects them.
func connectLocal(n int, logger *zap.Logger) ([]*p2p.Network, error) {
	nets := make([]*p2p.Network, n)
	for i := range nets {
		nw, err := p2p.NewNetwork("127.0.0.1:0", i, logger)
		if err != nil {
			return nil, err
		}
		nets[i] = nw
	}
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i, nw := range nets {
		addrs := make(map[int]string)
		for j, peer := range nets {
			if j != i {
				addrs[j] = peer.Addr().String()
			}
		}
		wg.Go(func() {
			errs[i] = nw.Connect(addrs)
		})
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "party %d", i)
		}
	}
	return nets, nil
}

// runParty runs a single party over TCP.
func runParty(opts *options, dc *circuit.DistanceCircuit, id party.ID,
	addrs []string, trip circuit.Trip) error {

	if len(addrs) != opts.roles.NumParties() {
		return errors.Newf("got %d addresses, expected %d",
			len(addrs), opts.roles.NumParties())
	}
	if !opts.roles.Valid(id) {
		return errors.Newf("invalid party %d", id)
	}
	nw, err := p2p.NewNetwork(addrs[id], int(id), opts.config.GetLogger())
	if err != nil {
		return err
	}
	defer nw.Close()

	peers := make(map[int]string)
	for i, addr := range addrs {
		if i != int(id) {
			peers[i] = addr
		}
	}
	if err := nw.Connect(peers); err != nil {
		return err
	}
	fmt.Printf("%s: connected to %d peers\n", opts.roles.Name(id), len(peers))

	m, timing, err := evaluate(opts, dc, id, nw, true, trip)
	if err != nil {
		return err
	}
	if id == party.Coordinator {
		m.Print(os.Stdout)
		fmt.Printf("Matching size: %d\n", m.Size)
	}
	if opts.timing && timing != nil {
		timing.Print(os.Stdout, nw.Stats())
	}
	return nil
}
