package main

import (
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"
	flag "github.com/spf13/pflag"
)

var url = flag.String("url", "http://localhost:5000/generate-image", "service endpoint")
var text = flag.String("text", "СТОП\nВыключить фары", "text to show")
var alignment = flag.String("alignment", "top", "top, center or bottom")
var fontSize = flag.Int("font-size", 14, "font size")
var vPadding = flag.Int("vertical-padding", 0, "space between lines")
var hPadding = flag.Int("horizontal-padding", 0, "horizontal shift")
var ledIP = flag.String("led-ip", "192.168.178.152", "display address")
var ledPort = flag.String("led-port", "5200", "display port")
var ledWidth = flag.Int("led-width", 0, "display width, server default when 0")
var ledHeight = flag.Int("led-height", 0, "display height, server default when 0")
var timeout = flag.Duration("timeout", 30*time.Second, "request timeout")

func main() {
	flag.Parse()

	payload := map[string]interface{}{
		"text":               *text,
		"alignment":          *alignment,
		"font_size":          *fontSize,
		"vertical_padding":   *vPadding,
		"horizontal_padding": *hPadding,
		"led_ip":             *ledIP,
		"led_port":           *ledPort,
	}
	if *ledWidth > 0 {
		payload["led_width"] = *ledWidth
	}
	if *ledHeight > 0 {
		payload["led_height"] = *ledHeight
	}

	resp, err := resty.New().
		SetTimeout(*timeout).
		R().
		SetHeader("Content-Type", "application/json; charset=utf-8").
		SetBody(payload).
		Post(*url)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(resp.String())
}
