//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package quickpool

import (
	"github.com/cockroachdb/errors"
	"github.com/markkurossi/quickpool/field"
	"github.com/markkurossi/quickpool/p2p"
	"github.com/markkurossi/quickpool/party"
)

// Batch holds the dealer values destined to one party. Product values
// are the driver components of mask products and input values are the
// driver components of input masks. The receiver consumes both in the
// gate order the dealer produced them.
type Batch struct {
	Products []field.Element
	Inputs   []field.Element

	nextProduct int
	nextInput   int
}

// Len returns the number of values in the batch.
func (b *Batch) Len() int {
	return len(b.Products) + len(b.Inputs)
}

// NextProduct returns the next product value.
func (b *Batch) NextProduct() (field.Element, error) {
	if b.nextProduct >= len(b.Products) {
		return 0, errors.Newf("batch: product values exhausted at %d",
			b.nextProduct)
	}
	v := b.Products[b.nextProduct]
	b.nextProduct++
	return v, nil
}

// NextInput returns the next input value.
func (b *Batch) NextInput() (field.Element, error) {
	if b.nextInput >= len(b.Inputs) {
		return 0, errors.Newf("batch: input values exhausted at %d",
			b.nextInput)
	}
	v := b.Inputs[b.nextInput]
	b.nextInput++
	return v, nil
}

// Done verifies that all batch values were consumed.
func (b *Batch) Done() error {
	if b.nextProduct != len(b.Products) || b.nextInput != len(b.Inputs) {
		return errors.Newf("batch: consumed %d/%d products, %d/%d inputs",
			b.nextProduct, len(b.Products), b.nextInput, len(b.Inputs))
	}
	return nil
}

// Send sends the batch to the connection. The batch starts with the
// total, product, and input counts. The values follow in order:
// products before inputs.
func (b *Batch) Send(conn *p2p.Conn) error {
	if err := conn.SendUint32(b.Len()); err != nil {
		return err
	}
	if err := conn.SendUint32(len(b.Products)); err != nil {
		return err
	}
	if err := conn.SendUint32(len(b.Inputs)); err != nil {
		return err
	}
	for _, v := range b.Products {
		if err := conn.SendElement(v); err != nil {
			return err
		}
	}
	for _, v := range b.Inputs {
		if err := conn.SendElement(v); err != nil {
			return err
		}
	}
	return nil
}

// ReceiveBatch receives a batch of at most limit values from the
// connection.
func ReceiveBatch(conn *p2p.Conn, limit int) (*Batch, error) {
	total, err := conn.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	numProducts, err := conn.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	numInputs, err := conn.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	if numProducts+numInputs != total {
		return nil, errors.Newf("batch: invalid header %d != %d+%d",
			total, numProducts, numInputs)
	}
	if total > limit {
		return nil, errors.Newf("batch: %d values exceed limit %d",
			total, limit)
	}
	batch := &Batch{
		Products: make([]field.Element, numProducts),
		Inputs:   make([]field.Element, numInputs),
	}
	for i := range batch.Products {
		batch.Products[i], err = conn.ReceiveElement()
		if err != nil {
			return nil, err
		}
	}
	for i := range batch.Inputs {
		batch.Inputs[i], err = conn.ReceiveElement()
		if err != nil {
			return nil, err
		}
	}
	return batch, nil
}

// Outbox collects dealer values per destination party. The values are
// collected in one pass over the circuit and sent in a second pass.
type Outbox struct {
	batches map[party.ID]*Batch
}

// NewOutbox creates a new empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{
		batches: make(map[party.ID]*Batch),
	}
}

// Batch returns the batch of the destination party.
func (o *Outbox) Batch(dst party.ID) *Batch {
	b, ok := o.batches[dst]
	if !ok {
		b = new(Batch)
		o.batches[dst] = b
	}
	return b
}

// AddProduct adds a product value for the destination party.
func (o *Outbox) AddProduct(dst party.ID, v field.Element) {
	b := o.Batch(dst)
	b.Products = append(b.Products, v)
}

// AddInput adds an input value for the destination party.
func (o *Outbox) AddInput(dst party.ID, v field.Element) {
	b := o.Batch(dst)
	b.Inputs = append(b.Inputs, v)
}

// Send sends one batch to each destination party and flushes the
// connections. Destinations without values receive an empty batch.
func (o *Outbox) Send(transport p2p.Transport, dsts []party.ID) error {
	for _, dst := range dsts {
		conn, err := transport.Peer(int(dst))
		if err != nil {
			return err
		}
		if err := o.Batch(dst).Send(conn); err != nil {
			return errors.Wrapf(err, "send batch to %d", dst)
		}
		if err := transport.Flush(int(dst)); err != nil {
			return err
		}
	}
	return nil
}
