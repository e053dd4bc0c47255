package pricing

import "time"

// Detect compares a resolved record against the previously stored state and
// produces the new state plus, when the price moved, one change event.
//
// Changed is true iff a previous state existed and its current price differs
// from the new price: a station seen for the first time has nothing to
// compare against and is never flagged. PreviousPrice carries the prior
// state's current price (nil when there was none).
func Detect(res Resolved, prev *State, now time.Time) (State, *ChangeEvent) {
	changed := prev != nil && !PriceEqual(prev.CurrentPrice, res.Price)

	var prevPrice *float64
	if prev != nil {
		prevPrice = prev.CurrentPrice
	}

	state := State{
		ID:            res.ID,
		Name:          res.Name,
		Municipality:  res.Municipality,
		Province:      res.Province,
		FuelType:      res.FuelType,
		Lat:           res.Lat,
		Lon:           res.Lon,
		CurrentPrice:  res.Price,
		PreviousPrice: prevPrice,
		Changed:       changed,
		UpdatedAt:     now,
	}

	var event *ChangeEvent
	if changed {
		event = &ChangeEvent{
			StationID: res.ID,
			Price:     res.Price,
			ChangedAt: now,
		}
	}

	return state, event
}
