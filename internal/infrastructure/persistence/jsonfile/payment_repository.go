package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"

	"github.com/MatLock/UdeSa-Ing-Examen/internal/application/contracts"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/event"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/payment"
)

// PaymentRepository stores the payment set as one JSON object keyed by id,
// the data.json layout. The set version is the xxhash of the file content,
// so a write by another process is detected as a conflict.
//
// The file cannot share a transaction with the outbox: events are recorded
// after the file is replaced, and a recording error is returned with the
// payment already written.
type PaymentRepository struct {
	mu       sync.Mutex
	path     string
	recorder contracts.EventRecorder
}

func NewPaymentRepository(path string) *PaymentRepository {
	return NewRecordingPaymentRepository(path, nil)
}

func NewRecordingPaymentRepository(path string, recorder contracts.EventRecorder) *PaymentRepository {
	return &PaymentRepository{path: path, recorder: recorder}
}

func (r *PaymentRepository) FindAll(_ context.Context) (*payment.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, version, err := r.read()
	if err != nil {
		return nil, err
	}

	snap := &payment.Snapshot{
		Payments: make(map[string]*payment.Payment, len(records)),
		Version:  version,
	}
	for id, rec := range records {
		p, err := payment.FromRecord(id, rec)
		if err != nil {
			return nil, errors.Wrapf(err, "decode payment %s", id)
		}
		snap.Payments[id] = p
	}
	return snap, nil
}

func (r *PaymentRepository) FindByID(_ context.Context, id string) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, _, err := r.read()
	if err != nil {
		return nil, err
	}

	rec, ok := records[id]
	if !ok {
		return nil, payment.ErrNotFound
	}
	return payment.FromRecord(id, rec)
}

func (r *PaymentRepository) Save(ctx context.Context, p *payment.Payment, expectedVersion uint64, events ...event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, version, err := r.read()
	if err != nil {
		return err
	}
	if version != expectedVersion {
		return payment.ErrVersionConflict
	}

	records[p.ID()] = p.Serialize()
	if err := r.write(records); err != nil {
		return err
	}

	if r.recorder == nil {
		return nil
	}
	for _, evt := range events {
		if err := r.recorder.Record(ctx, evt); err != nil {
			return errors.Wrapf(err, "payment %s saved, record %s", p.ID(), evt.Type)
		}
	}
	return nil
}

// read returns version 0 for a missing file.
func (r *PaymentRepository) read() (map[string]payment.Record, uint64, error) {
	records := make(map[string]payment.Record)

	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return records, 0, nil
	}
	if err != nil {
		return nil, 0, errors.Wrapf(err, "read %s", r.path)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, 0, errors.Wrapf(err, "decode %s", r.path)
		}
	}
	return records, xxhash.Sum64(data), nil
}

func (r *PaymentRepository) write(records map[string]payment.Record) error {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return errors.Wrap(err, "encode payments")
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}

	return errors.Wrapf(os.Rename(tmp.Name(), r.path), "replace %s", r.path)
}
