// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault_test

import (
	"errors"
	"testing"

	"prstorage/fault"
)

// test that various error classes can be distinguished
func TestClassification(t *testing.T) {
	errorList := []struct {
		err      error
		exists   bool
		invalid  bool
		notFound bool
	}{
		{fault.ErrAlreadyPresent, true, false, false},
		{fault.ErrAlreadyRegistered, true, false, false},
		{fault.ErrInvalidCount, false, true, false},
		{fault.ErrNotFound, false, false, true},
		{fault.ErrNotRegistered, false, false, true},
	}

	for i, e := range errorList {
		err := e.err
		if fault.IsErrExists(err) != e.exists {
			t.Errorf("%d: expected 'exists' == %v for err = %v", i, e.exists, err)
		}
		if fault.IsErrInvalid(err) != e.invalid {
			t.Errorf("%d: expected 'invalid' == %v for err = %v", i, e.invalid, err)
		}
		if fault.IsErrNotFound(err) != e.notFound {
			t.Errorf("%d: expected 'not found' == %v for err = %v", i, e.notFound, err)
		}
	}
}

func TestEngineErrorUnwrap(t *testing.T) {
	base := errors.New("disk full")
	wrapped := fault.EngineError{Op: "put", Err: base}

	if !fault.IsEngineError(wrapped) {
		t.Errorf("expected IsEngineError to be true")
	}
	if !errors.Is(wrapped, base) {
		t.Errorf("expected errors.Is to unwrap to the underlying engine error")
	}
}

func TestListenerErrorUnwrap(t *testing.T) {
	base := errors.New("boom")
	wrapped := fault.ListenerError{Err: base}

	if !fault.IsListenerError(wrapped) {
		t.Errorf("expected IsListenerError to be true")
	}
	if !errors.Is(wrapped, base) {
		t.Errorf("expected errors.Is to unwrap to the underlying panic value")
	}
}
