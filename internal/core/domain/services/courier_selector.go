package services

import (
	"errors"
	"sort"

	"pharmadelivery/internal/core/domain/model/courier"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
)

// ErrCourierNotFound is returned when every candidate has already been tried
// for the order, or none is eligible.
var ErrCourierNotFound = errors.New("courier not found")

// CourierSelector picks the next courier to offer an order to.
//
// Selection rules:
//   - unverified couriers and couriers already offered this order are skipped
//   - candidates with a known position are ranked by distance to the pharmacy
//   - candidates without a position keep their repository order, after the ranked ones
//
// Example usage:
//
//	next, err := NewCourierSelector().Select(o, candidates, pharmacy.Location)
//	if errors.Is(err, ErrCourierNotFound) {
//	    // all candidates exhausted: the order becomes unassignable
//	}
type CourierSelector struct{}

func NewCourierSelector() CourierSelector {
	return CourierSelector{}
}

// Rank returns the eligible candidates in offer order, untried ones only.
func (CourierSelector) Rank(o *order.Order, candidates []*courier.Courier, origin kernel.GeoPoint) []*courier.Courier {
	eligible := make([]*courier.Courier, 0, len(candidates))
	for _, c := range candidates {
		if c == nil || c.Validate() != nil || !c.IsVerified() || o.HasTried(c.ID()) {
			continue
		}
		eligible = append(eligible, c)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		di, iKnown := eligible[i].DistanceKm(origin)
		dj, jKnown := eligible[j].DistanceKm(origin)
		switch {
		case iKnown && jKnown:
			return di < dj
		default:
			return iKnown && !jKnown
		}
	})
	return eligible
}

// Select returns the first courier Rank would offer the order to.
func (s CourierSelector) Select(o *order.Order, candidates []*courier.Courier, origin kernel.GeoPoint) (*courier.Courier, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	ranked := s.Rank(o, candidates, origin)
	if len(ranked) == 0 {
		return nil, ErrCourierNotFound
	}
	return ranked[0], nil
}
