package atomic_float

import (
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAtomicAdd(t *testing.T) {
	Convey("When AtomicAdd is called", t, func() {
		Convey("When a single writer adds", func() {
			af := NewAtomicFloat64(1.5)
			newVal, succeeded := af.AtomicAdd(2.0)
			So(succeeded, ShouldBeTrue)
			So(newVal, ShouldEqual, 3.5)
			So(af.AtomicRead(), ShouldEqual, 3.5)
		})

		Convey("When multiple writers increment and decrement concurrently", func() {
			af := NewAtomicFloat64(0)
			num_ops := 2000
			num_writers := 50

			start := make(chan struct{})
			wg := sync.WaitGroup{}
			wg.Add(num_writers * 2)
			writer := func(addend float64) {
				<-start
				for i := 0; i < num_ops; i++ {
					for _, succeeded := af.AtomicAdd(addend); !succeeded; _, succeeded = af.AtomicAdd(addend) {
					}
				}
				wg.Done()
			}

			for i := 0; i < num_writers; i++ {
				go writer(1.0)
				go writer(-1.0)
			}

			// Wait for goroutines to begin
			time.Sleep(time.Millisecond * 10)
			close(start)
			wg.Wait()
			So(af.AtomicRead(), ShouldEqual, 0.0)
		})
	})

	Convey("When AtomicSet races with readers", t, func() {
		af := &AtomicFloat64{}
		So(af.AtomicRead(), ShouldEqual, 0.0)

		wg := sync.WaitGroup{}
		wg.Add(2)
		go func() {
			for i := 0; i < 1000; i++ {
				af.AtomicSet(float64(i % 2))
			}
			wg.Done()
		}()
		go func() {
			for i := 0; i < 1000; i++ {
				v := af.AtomicRead()
				if v != 0 && v != 1 {
					panic("torn read")
				}
			}
			wg.Done()
		}()
		wg.Wait()
		So(af.AtomicRead(), ShouldEqual, 1.0)
	})
}
