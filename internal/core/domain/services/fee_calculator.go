package services

import (
	"errors"
	"fmt"
	"time"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/pkg/errs"
)

const (
	// dayStartHour and dayEndHour bound the day tariff: local hour in [8, 23).
	dayStartHour = 8
	dayEndHour   = 23
)

// FeeCalculator prices a delivery from the local time of day and decides
// whether a point lies in the service area. The two rules are independent.
//
// Example:
//
//	calc, _ := NewFeeCalculator(1000, 1500, abidjan, fence)
//	if !calc.InServiceArea(point) {
//	    return ErrOutOfServiceArea
//	}
//	fee := calc.Fee(time.Now())
type FeeCalculator struct {
	dayFee   int64
	nightFee int64
	location *time.Location
	fence    kernel.Geofence
}

func NewFeeCalculator(dayFee, nightFee int64, location *time.Location, fence kernel.Geofence) (FeeCalculator, error) {
	var err error
	if dayFee < 0 {
		err = errors.Join(err, errs.NewValueIsInvalidErrorWithCause("day fee", fmt.Errorf("%d is negative", dayFee)))
	}
	if nightFee < 0 {
		err = errors.Join(err, errs.NewValueIsInvalidErrorWithCause("night fee", fmt.Errorf("%d is negative", nightFee)))
	}
	if location == nil {
		err = errors.Join(err, errs.NewValueIsRequiredError("time zone"))
	}
	if e := fence.Validate(); e != nil {
		err = errors.Join(err, e)
	}
	if err != nil {
		return FeeCalculator{}, err
	}

	return FeeCalculator{
		dayFee:   dayFee,
		nightFee: nightFee,
		location: location,
		fence:    fence,
	}, nil
}

// Fee returns the day tariff when the local hour of at is in [8, 23), the
// night tariff otherwise.
func (c FeeCalculator) Fee(at time.Time) int64 {
	if c.IsDaytime(at) {
		return c.dayFee
	}
	return c.nightFee
}

func (c FeeCalculator) IsDaytime(at time.Time) bool {
	hour := at.In(c.location).Hour()
	return hour >= dayStartHour && hour < dayEndHour
}

// InServiceArea reports whether p is inside the geofence, edges included.
func (c FeeCalculator) InServiceArea(p kernel.GeoPoint) bool {
	return c.fence.Contains(p)
}
