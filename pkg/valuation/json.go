package valuation

import (
	"encoding/json"
	"math"
)

// MarshalJSON renders an Item in its canonical string form, so a
// Configuration round-trips through JSON the way the Python model's
// ItemKey (BeforeValidator/PlainSerializer pair) does.
func (i Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.Serialize())
}

// UnmarshalJSON parses an Item from its canonical string form.
func (i *Item) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*i = DeserializeItem(s)
	return nil
}

// MarshalJSON renders ItemCounts as a JSON object keyed by each item's
// serialized string form, since Go forbids struct map keys in encoding/json.
func (c ItemCounts) MarshalJSON() ([]byte, error) {
	out := make(map[string]float64, len(c))
	for item, count := range c {
		out[item.Serialize()] = count
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses ItemCounts from a JSON object keyed by serialized
// item strings.
func (c *ItemCounts) UnmarshalJSON(data []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(ItemCounts, len(raw))
	for key, count := range raw {
		out[DeserializeItem(key)] = count
	}
	*c = out
	return nil
}

// MarshalJSON renders an ItemCost's transformation costs as an array of
// [name, value] pairs, with a +Inf value written as the string "Infinity".
func (t TransformationValue) MarshalJSON() ([]byte, error) {
	if math.IsInf(t.Value, 1) {
		return json.Marshal([2]any{t.Transformation, "Infinity"})
	}
	return json.Marshal([2]any{t.Transformation, t.Value})
}

// UnmarshalJSON parses a [name, value] pair into a TransformationValue,
// accepting either a numeric value or the literal string "Infinity".
func (t *TransformationValue) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &t.Transformation); err != nil {
		return err
	}
	var asString string
	if err := json.Unmarshal(pair[1], &asString); err == nil {
		if asString != "Infinity" {
			return &ConfigError{Reason: "unrecognized transformation value token: " + asString}
		}
		t.Value = math.Inf(1)
		return nil
	}
	return json.Unmarshal(pair[1], &t.Value)
}

// itemCostJSON mirrors ItemCost's exported fields but lets Cost be encoded
// specially: encoding/json refuses to marshal +Inf, and unreachable items
// need to serialize as the literal string "Infinity".
type itemCostJSON struct {
	Item                Item                   `json:"item"`
	Cost                json.RawMessage        `json:"cost"`
	TransformationCosts []TransformationValue  `json:"transformation_costs"`
}

// MarshalJSON renders an ItemCost with +Inf costs as the string
// "Infinity" instead of a bare numeric literal.
func (c ItemCost) MarshalJSON() ([]byte, error) {
	var costJSON json.RawMessage
	var err error
	if math.IsInf(c.Cost, 1) {
		costJSON, err = json.Marshal("Infinity")
	} else {
		costJSON, err = json.Marshal(c.Cost)
	}
	if err != nil {
		return nil, err
	}

	return json.Marshal(itemCostJSON{
		Item:                c.Item,
		Cost:                costJSON,
		TransformationCosts: c.TransformationCosts,
	})
}

// UnmarshalJSON parses an ItemCost, accepting either a numeric cost or
// the literal string "Infinity".
func (c *ItemCost) UnmarshalJSON(data []byte) error {
	var raw itemCostJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var asString string
	if err := json.Unmarshal(raw.Cost, &asString); err == nil {
		if asString != "Infinity" {
			return &ConfigError{Reason: "unrecognized cost token: " + asString}
		}
		c.Cost = math.Inf(1)
	} else if err := json.Unmarshal(raw.Cost, &c.Cost); err != nil {
		return err
	}

	c.Item = raw.Item
	c.TransformationCosts = raw.TransformationCosts
	return nil
}
