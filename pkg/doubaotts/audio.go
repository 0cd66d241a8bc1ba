package doubaotts

import (
	"bytes"
	"errors"
)

// audioAssembler accumulates audio chunk payloads in wire-receipt order.
// The finalized buffer is exactly the concatenation of appended chunks;
// no reordering, no deduplication. Finalize is valid exactly once.
type audioAssembler struct {
	buf       bytes.Buffer
	chunks    int
	finalized bool
}

func (a *audioAssembler) append(chunk []byte) error {
	if a.finalized {
		return errors.New("doubaotts: append after finalize")
	}
	a.buf.Write(chunk)
	a.chunks++
	return nil
}

func (a *audioAssembler) finalize() []byte {
	if a.finalized {
		return nil
	}
	a.finalized = true
	return a.buf.Bytes()
}

// empty reports whether no audio bytes were received. A session can carry
// zero-length chunks, so this checks bytes, not chunk count.
func (a *audioAssembler) empty() bool {
	return a.buf.Len() == 0
}
