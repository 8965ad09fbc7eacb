// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/scrapyard/scrapmaster/co"
)

func spin(counter *int32) func(stop chan struct{}) {
	return func(stop chan struct{}) {
		for {
			select {
			case <-stop:
				return
			default:
				atomic.AddInt32(counter, 1)
				time.Sleep(5 * time.Millisecond)
			}
		}
	}
}

func TestChoesRunToEnd(t *testing.T) {
	c := co.NewChoes()
	var counter int32
	c.Go(func(chan struct{}) {
		for i := 0; i < 10; i++ {
			atomic.AddInt32(&counter, 1)
		}
	})
	c.Wait()
	assert.Equal(t, int32(10), atomic.LoadInt32(&counter))
}

func TestChoesStop(t *testing.T) {
	c := co.NewChoes()
	var counter int32
	for i := 0; i < 3; i++ {
		c.Go(spin(&counter))
	}

	time.Sleep(20 * time.Millisecond)
	c.Stop()
	c.Stop()

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("routines not stopped")
	}

	final := atomic.LoadInt32(&counter)
	assert.Positive(t, final)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, final, atomic.LoadInt32(&counter))
}

func TestGoesDone(t *testing.T) {
	var goes co.Goes
	release := make(chan struct{})
	goes.Go(func() { <-release })

	done := goes.Done()
	select {
	case <-done:
		t.Fatal("done before routine returned")
	default:
	}
	close(release)
	<-done
}
