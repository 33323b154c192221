package session

import "sync"

// fakeSocket is a test double for Socket: the test drives inbound
// frames by writing to In, and inspects outbound writes via Sent.
type fakeSocket struct {
	In chan Frame

	mu    sync.Mutex
	Sent  [][]byte
	Pings int
	err   error
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{In: make(chan Frame, 16)}
}

func (f *fakeSocket) Frames() <-chan Frame { return f.In }

func (f *fakeSocket) WriteText(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	f.Sent = append(f.Sent, cp)
	return nil
}

func (f *fakeSocket) WritePing() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Pings++
	return f.err
}

func (f *fakeSocket) Close() error { return nil }

func (f *fakeSocket) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeSocket) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sent)
}
