package video

import (
	"bytes"
	"sync"
	"testing"
	"time"
)

func TestLatestStoreEmpty(t *testing.T) {
	s := NewLatestStore()
	if _, ok := s.Latest(); ok {
		t.Fatal("empty store should report no frame")
	}
}

func TestLatestStoreFreshestWins(t *testing.T) {
	s := NewLatestStore()
	base := time.Now()

	s.Publish(Frame{Data: []byte{1}, Width: 640, Height: 480, Timestamp: base})
	s.Publish(Frame{Data: []byte{2}, Width: 640, Height: 480, Timestamp: base.Add(time.Millisecond)})
	s.Publish(Frame{Data: []byte{3}, Width: 640, Height: 480, Timestamp: base.Add(2 * time.Millisecond)})

	f, ok := s.Latest()
	if !ok {
		t.Fatal("expected a frame")
	}
	if !bytes.Equal(f.Data, []byte{3}) {
		t.Errorf("expected newest frame, got data %v", f.Data)
	}
}

func TestLatestStoreCopyOnRead(t *testing.T) {
	s := NewLatestStore()
	s.Publish(Frame{Data: []byte{1, 2, 3}, Timestamp: time.Now()})

	f, _ := s.Latest()
	f.Data[0] = 99

	again, _ := s.Latest()
	if again.Data[0] != 1 {
		t.Error("mutating a returned frame must not affect the store")
	}
}

func TestLatestStoreConcurrentReadersSeeWholeFrames(t *testing.T) {
	s := NewLatestStore()

	// Every published frame is filled with a single byte value; a torn read
	// would show mixed values.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			data := bytes.Repeat([]byte{byte(i % 251)}, 256)
			s.Publish(Frame{Data: data, Timestamp: time.Now()})
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				f, ok := s.Latest()
				if !ok {
					continue
				}
				for _, b := range f.Data {
					if b != f.Data[0] {
						t.Error("torn frame observed")
						return
					}
				}
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(stop)
	wg.Wait()
}

func TestFrameAge(t *testing.T) {
	now := time.Now()
	f := Frame{Timestamp: now.Add(-300 * time.Millisecond)}
	if got := f.Age(now); got != 300*time.Millisecond {
		t.Errorf("Age() = %v, want 300ms", got)
	}
}
