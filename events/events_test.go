package events

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestEventPublishingAndSubscribing ensures events reach the subscribers of their emitter and global subscribers
// for their type, and nobody else.
func TestEventPublishingAndSubscribing(t *testing.T) {
	type testEventA struct{}
	type testEventB struct{}

	var emitterA1, emitterA2 EventEmitter[testEventA]
	var emitterB EventEmitter[testEventB]

	var countA1, countA2, countB, countGlobalA int
	emitterA1.Subscribe(func(testEventA) error {
		countA1++
		return nil
	})
	emitterA2.Subscribe(func(testEventA) error {
		countA2++
		return nil
	})
	emitterB.Subscribe(func(testEventB) error {
		countB++
		return nil
	})
	SubscribeAny(func(testEventA) error {
		countGlobalA++
		return nil
	})

	for i := 0; i < 2; i++ {
		assert.NoError(t, emitterA1.Publish(testEventA{}))
	}
	for i := 0; i < 5; i++ {
		assert.NoError(t, emitterA2.Publish(testEventA{}))
	}
	for i := 0; i < 9; i++ {
		assert.NoError(t, emitterB.Publish(testEventB{}))
	}

	assert.EqualValues(t, 2, countA1)
	assert.EqualValues(t, 5, countA2)
	assert.EqualValues(t, 9, countB)
	assert.EqualValues(t, 7, countGlobalA)
}

// TestPublishStopsOnError ensures a failing handler stops the publication and surfaces its error.
func TestPublishStopsOnError(t *testing.T) {
	type testEventC struct{}
	var emitter EventEmitter[testEventC]

	failure := errors.New("handler failed")
	called := false
	emitter.Subscribe(func(testEventC) error {
		return failure
	})
	emitter.Subscribe(func(testEventC) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, emitter.Publish(testEventC{}), failure)
	assert.False(t, called)
}

// TestConcurrentPublish ensures an emitter can be published to from several goroutines.
func TestConcurrentPublish(t *testing.T) {
	type testEventD struct{}
	var emitter EventEmitter[testEventD]

	var lock sync.Mutex
	count := 0
	emitter.Subscribe(func(testEventD) error {
		lock.Lock()
		defer lock.Unlock()
		count++
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = emitter.Publish(testEventD{})
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, count)
}
