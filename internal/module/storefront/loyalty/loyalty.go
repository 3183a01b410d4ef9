package loyalty

import "context"

// RewardThreshold is the number of tickets a user has to buy to earn one
// reward.
const RewardThreshold int64 = 5

// Increment advances the cumulative purchase counter. The counter only ever
// grows within this service; it never decreases on fulfillment.
func Increment(counter, quantity int64) int64 {
	return counter + quantity
}

// IsEligible reports whether the counter has reached the reward threshold.
func IsEligible(counter int64) bool {
	return counter >= RewardThreshold
}

// Progress returns the progress toward the next reward and the number of
// rewards earned so far.
func Progress(counter int64) (current int64, earned int64) {
	return counter % RewardThreshold, counter / RewardThreshold
}

// RewardClaimer is the extension point for redeeming an earned reward. The
// decrement policy on claim is still a product decision, so no implementation
// is wired yet.
type RewardClaimer interface {
	ClaimReward(ctx context.Context, uid string) error
}
