package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeeDistributionProportionalToWeight(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "bob", "dave")
	f.create(t, 10_000_000)
	f.transfer(t, "reserve", "alice", 1_000)
	f.transfer(t, "reserve", "bob", 1_000)

	f.stake(t, "alice", 1, 3) // weight 100
	f.stake(t, "bob", 3, 3)   // weight 300

	// Fee on 57,200 at 1% is 572; floor(70%) = 400 goes to the stakers,
	// split 100/300 by weight, and the 172 left over lands on the reserve.
	f.transfer(t, "reserve", "dave", 57_200)

	assert.Equal(t, int64(1_000+100), f.balance(t, "alice"))
	assert.Equal(t, int64(1_000+300), f.balance(t, "bob"))
	assert.Equal(t, int64(57_200), f.balance(t, "dave"))
	f.assertConserved(t)
}

func TestFeeDistributionTruncatesShares(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "bob", "dave")
	f.create(t, 10_000_000)
	f.transfer(t, "reserve", "alice", 1_000)
	f.transfer(t, "reserve", "bob", 1_000)

	f.stake(t, "alice", 1, 3)
	f.stake(t, "bob", 3, 3)

	// Fee on 57,300 is 573; floor(70%) = 401. The shares 401*100/400 and
	// 401*300/400 both floor, so only 400 reaches the stakers and the odd
	// unit stays in the fee remainder for the reserve.
	f.transfer(t, "reserve", "dave", 57_300)

	assert.Equal(t, int64(1_000+100), f.balance(t, "alice"))
	assert.Equal(t, int64(1_000+300), f.balance(t, "bob"))
	f.assertConserved(t)
}

func TestFeeDistributionSkipsDustShares(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "bob", "dave")
	f.create(t, 10_000_000)
	f.transfer(t, "reserve", "alice", 1_000)
	f.transfer(t, "reserve", "bob", 1_000)

	f.stake(t, "alice", 1, 3)   // weight 100
	f.stake(t, "bob", 999, 3)   // weight 99,900

	// Fee on 500 is 5, stakers' cut 3. alice's share is 3*100/100,000,
	// which floors to zero and is skipped; bob takes 2.
	f.transfer(t, "reserve", "dave", 500)

	assert.Equal(t, int64(1_000), f.balance(t, "alice"))
	assert.Equal(t, int64(1_000+2), f.balance(t, "bob"))
	f.assertConserved(t)
}
