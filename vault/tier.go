// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Tier is one of the three fixed lockup categories.
type Tier uint8

const (
	TierUnknown     = Tier(iota) // 0 -> default value
	TierThreeMonths              // 90 day lockup
	TierSixMonths                // 180 day lockup
	TierOneYear                  // 360 day lockup
)

const day = 24 * 60 * 60

// lockup durations are fixed at initialization and not governable.
var lockupSeconds = map[Tier]uint64{
	TierThreeMonths: 90 * day,  // 7_776_000
	TierSixMonths:   180 * day, // 15_552_000
	TierOneYear:     360 * day, // 31_104_000
}

// baseline reward multipliers, expressed against RewardDenominator.
var defaultMultipliers = map[Tier]uint32{
	TierThreeMonths: 10000,
	TierSixMonths:   15000,
	TierOneYear:     30000,
}

// Tiers lists all valid tiers in lockup order.
func Tiers() []Tier {
	return []Tier{TierThreeMonths, TierSixMonths, TierOneYear}
}

// Valid returns whether t is one of the three lockup tiers.
func (t Tier) Valid() bool {
	_, ok := lockupSeconds[t]
	return ok
}

// LockupSeconds returns the fixed lockup duration of the tier, in seconds.
// It returns 0 for an unknown tier.
func (t Tier) LockupSeconds() uint64 {
	return lockupSeconds[t]
}

// DefaultMultiplier returns the baseline reward multiplier of the tier.
func (t Tier) DefaultMultiplier() uint32 {
	return defaultMultipliers[t]
}

// String implements the stringer interface.
func (t Tier) String() string {
	switch t {
	case TierThreeMonths:
		return "three-months"
	case TierSixMonths:
		return "six-months"
	case TierOneYear:
		return "one-year"
	}
	return "unknown"
}

// ParseTier converts a string presented tier into Tier type.
func ParseTier(s string) (Tier, error) {
	for _, t := range Tiers() {
		if t.String() == s {
			return t, nil
		}
	}
	return TierUnknown, errors.Errorf("invalid tier %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
