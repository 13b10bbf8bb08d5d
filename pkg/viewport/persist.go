package viewport

import (
	"encoding/json"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// StoreKey is the slot the saved view lives under.
const StoreKey = "constellation_view"

// Store is the key-value slot the camera saves its view into.
type Store interface {
	Get(key string) (value []byte, ok bool, err error)
	Put(key string, value []byte) error
}

// Save writes the current transform to the store.
func (c *Camera) Save(store Store) error {
	data, err := json.Marshal(c.t)
	if err != nil {
		return fmt.Errorf("encode view: %w", err)
	}
	if err := store.Put(StoreKey, data); err != nil {
		return fmt.Errorf("save view: %w", err)
	}
	c.logger.Debug("view saved", zap.ByteString("view", data))
	return nil
}

// Restore applies the saved transform and reports whether it did. Missing,
// unreadable or malformed data leaves the current transform untouched.
func (c *Camera) Restore(store Store) bool {
	c.Cancel()

	data, ok, err := store.Get(StoreKey)
	if err != nil {
		c.logger.Warn("could not read saved view", zap.Error(err))
		return false
	}
	if !ok {
		return false
	}

	t, err := DecodeTransform(data)
	if err != nil {
		c.logger.Warn("ignoring corrupt saved view", zap.Error(err))
		return false
	}

	t.Scale = ClampScale(t.Scale)
	c.t = t
	return true
}

// HasSaved reports whether the store holds a view.
func (c *Camera) HasSaved(store Store) bool {
	_, ok, err := store.Get(StoreKey)
	return err == nil && ok
}

// DecodeTransform parses a saved view, requiring panX, panY and scale to all
// be present as finite numbers.
func DecodeTransform(data []byte) (Transform, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Transform{}, fmt.Errorf("decode view: %w", err)
	}

	fields := [3]float64{}
	for i, key := range []string{"panX", "panY", "scale"} {
		v, present := raw[key]
		if !present {
			return Transform{}, fmt.Errorf("decode view: missing %s", key)
		}
		n, isNumber := v.(float64)
		if !isNumber || math.IsNaN(n) || math.IsInf(n, 0) {
			return Transform{}, fmt.Errorf("decode view: %s is not a number", key)
		}
		fields[i] = n
	}

	t := Transform{PanX: fields[0], PanY: fields[1], Scale: fields[2]}
	if !t.valid() {
		return Transform{}, fmt.Errorf("decode view: non-finite value")
	}
	return t, nil
}
