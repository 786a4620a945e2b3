package transaction

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ID is the 64-bit content-addressed identity of a transaction.
type ID uint64

func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// ParseID parses the 16-digit hex form produced by String.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing transaction id %q: %w", s, err)
	}

	return ID(v), nil
}

const isoNoOffset = "2006-01-02T15:04:05"

// Fingerprint hashes the canonical encoding of a transaction.
//
// The amounts are folded into (net, 0.00) before encoding so that a leg
// tendering 20.00 with 10.00 change and a ledger row of 10.00 on the same
// day collide on purpose. Amounts are always written with two decimals,
// never as the raw binary value.
func Fingerprint(date time.Time, tenderedOut, changeReturned decimal.Decimal) ID {
	net := Round(tenderedOut.Sub(changeReturned))
	canonical := Day(date).Format(isoNoOffset) + "|" + net.StringFixed(2) + "|" + decimal.Zero.StringFixed(2)
	sum := sha256.Sum256([]byte(canonical))

	return ID(binary.BigEndian.Uint64(sum[:8]))
}

// Registry remembers every identity it has seen and refuses two different
// logical transactions sharing one id.
type Registry struct {
	seen map[ID]Transaction
}

func NewRegistry() *Registry {
	return &Registry{seen: make(map[ID]Transaction)}
}

// Register records tx. It returns true when tx was already known (the same
// logical transaction) and a *DataInvariantError on a real collision.
func (r *Registry) Register(tx Transaction) (bool, error) {
	existing, ok := r.seen[tx.ID()]
	if !ok {
		r.seen[tx.ID()] = tx
		return false, nil
	}

	if !Same(existing, tx) {
		return false, &DataInvariantError{
			ID:     tx.ID(),
			Date:   tx.Date(),
			Amount: tx.NetAmount(),
			Reason: fmt.Sprintf("identity collision with transaction of %s %s",
				existing.Date().Format(time.DateOnly), Round(existing.NetAmount()).StringFixed(2)),
		}
	}

	return true, nil
}

func (r *Registry) Len() int {
	return len(r.seen)
}
