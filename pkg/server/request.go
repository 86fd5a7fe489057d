package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// GenerateRequest is the body of POST /generate-image. Missing fields take
// the configured defaults.
type GenerateRequest struct {
	Text              string  `json:"text"`
	Alignment         string  `json:"alignment"`
	FontSize          flexInt `json:"font_size"`
	VerticalPadding   flexInt `json:"vertical_padding"`
	HorizontalPadding flexInt `json:"horizontal_padding"`
	LEDIP             string  `json:"led_ip"`
	LEDPort           flexInt `json:"led_port"`
	LEDWidth          flexInt `json:"led_width"`
	LEDHeight         flexInt `json:"led_height"`
}

type GenerateResponse struct {
	SendImage string `json:"send_image"`
}

const (
	StatusOK     = "OK"
	StatusFailed = "FAILED"
)

// flexInt accepts 5200, 5200.0 and "5200".
type flexInt struct {
	v   int
	set bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("not an integer: %q", s)
		}
		f.v, f.set = n, true
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		f.v, f.set = int(i), true
		return nil
	}
	fl, err := n.Float64()
	if err != nil || math.IsInf(fl, 0) || math.Abs(fl) > math.MaxInt32 {
		return fmt.Errorf("not an integer: %s", n)
	}
	f.v, f.set = int(fl), true
	return nil
}

func (f flexInt) Or(def int) int {
	if f.set {
		return f.v
	}
	return def
}
