package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexFloat decodes numeric JSON values that generation output
// sometimes quotes as strings ("450" or "450 kcal" instead of 450).
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	// Try to unmarshal as number first
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = FlexFloat(num)
		return nil
	}

	// Try to unmarshal as string, tolerating trailing units
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		str = strings.TrimSpace(str)
		if str == "" {
			*f = 0
			return nil
		}
		if idx := strings.IndexByte(str, ' '); idx > 0 {
			str = str[:idx]
		}
		num, err := strconv.ParseFloat(str, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexFloat(num)
		return nil
	}

	return fmt.Errorf("invalid numeric format: %s", string(data))
}

// Float64 returns the underlying value.
func (f FlexFloat) Float64() float64 {
	return float64(f)
}

// FlexString decodes JSON values that should be strings but sometimes
// arrive as bare numbers ("servings": 2 instead of "2").
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = FlexString(str)
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		if num == float64(int64(num)) {
			*s = FlexString(strconv.FormatInt(int64(num), 10))
		} else {
			*s = FlexString(strconv.FormatFloat(num, 'f', -1, 64))
		}
		return nil
	}

	return fmt.Errorf("invalid string format: %s", string(data))
}

// String returns the underlying value.
func (s FlexString) String() string {
	return string(s)
}
