// Package orderlog persists order activity to an append-only file.
//
// Each record is one CSV row:
//
//	<order_id>,<customer_name>,<product_id>,<quantity>,<status>
//
// A row is appended when an order is accepted and again on every status
// transition, so replaying the file in order yields each order's latest
// status. CSV quoting keeps customer names containing commas unambiguous;
// legacy unquoted rows still parse.
package orderlog

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/fairyhunter13/order-fulfillment-simulator/internal/model"
	"github.com/fairyhunter13/order-fulfillment-simulator/internal/obs"
	"github.com/google/uuid"
)

const recordFields = 5

// Log is an append-only order record store safe for concurrent appenders.
type Log struct {
	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
}

// Open opens (creating if needed) the log file at path for appending.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &Log{f: f, w: csv.NewWriter(f)}, nil
}

// Append writes one record for the order's current state. Records are written
// whole under the lock, so concurrent appenders never interleave fields.
func (l *Log) Append(o *model.Order) error {
	rec := []string{
		o.OrderID.String(),
		o.CustomerName,
		o.ProductID.String(),
		strconv.Itoa(o.Quantity),
		string(o.Status()),
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.w.Write(rec); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Flush()
	return errors.Join(l.w.Error(), l.f.Close())
}

// LoadAll replays every record in the file at path and reconstructs the
// orders it describes, preserving persisted identifiers. Later records for
// the same order ID override its status, so transition rows replay cleanly.
// Malformed rows are skipped with a warning. A missing file is an empty log.
func LoadAll(path string) ([]*model.Order, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var orders []*model.Order
	byID := make(map[uuid.UUID]*model.Order)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			obs.Logger.Warn("order_record_malformed", "error", err)
			continue
		}
		o, ok := decodeRecord(rec)
		if !ok {
			obs.Logger.Warn("order_record_malformed", "fields", len(rec))
			continue
		}
		if prev, seen := byID[o.OrderID]; seen {
			prev.SetStatus(o.Status())
			continue
		}
		byID[o.OrderID] = o
		orders = append(orders, o)
	}
	return orders, nil
}

func decodeRecord(rec []string) (*model.Order, bool) {
	if len(rec) != recordFields {
		return nil, false
	}
	orderID, err := uuid.Parse(rec[0])
	if err != nil {
		return nil, false
	}
	productID, err := uuid.Parse(rec[2])
	if err != nil {
		return nil, false
	}
	quantity, err := strconv.Atoi(rec[3])
	if err != nil || quantity <= 0 {
		return nil, false
	}
	status, ok := model.ParseStatus(rec[4])
	if !ok {
		return nil, false
	}
	return model.RestoredOrder(orderID, rec[1], productID, quantity, status), true
}
