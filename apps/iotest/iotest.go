//
// iotest.go
//
// Copyright (c) 2023-2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"fmt"
	"io"
	"net"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/quickpool/field"
	"github.com/markkurossi/quickpool/p2p"
	"github.com/markkurossi/quickpool/quickpool"
)

// batchSize is the number of field elements in one message.
const batchSize = 1024

func receiverTestIO(once bool) error {
	ln, err := net.Listen("tcp", port)
	if err != nil {
		return err
	}
	fmt.Printf("Listening for connections at %s\n", port)

	for {
		nc, err := ln.Accept()
		if err != nil {
			return err
		}
		fmt.Printf("New connection from %s\n", nc.RemoteAddr())

		conn := p2p.NewConn(nc)
		var count int
		for {
			values, err := conn.ReceiveElements()
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return err
			}
			count += len(values)
		}
		fmt.Printf("Received: %v, %d elements\n",
			quickpool.FileSize(conn.Stats.Sum()).String(), count)

		if once {
			return nil
		}
	}
}

func senderTestIO(size int64) error {
	nc, err := net.Dial("tcp", port)
	if err != nil {
		return err
	}
	conn := p2p.NewConn(nc)

	values := make([]field.Element, batchSize)
	for i := range values {
		values[i] = field.New(uint64(i))
	}

	var sent int64
	for sent < size {
		if err := conn.SendElements(values); err != nil {
			return err
		}
		sent += int64(len(values) * field.Size)
	}
	if err := conn.Flush(); err != nil {
		return err
	}
	if err := conn.Close(); err != nil {
		return err
	}

	fmt.Printf("Sent: %v\n", quickpool.FileSize(conn.Stats.Sum()).String())
	return nil
}
