// Package streamdeck drives an Elgato Stream Deck+ as a ring surface: its
// four encoders are rings and their LED levels are drawn on the LCD strip.
package streamdeck

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/jpeg"

	xdraw "golang.org/x/image/draw"

	"rafaelmartins.com/p/usbhid"
)

const (
	elgatoVendorID = 0x0fd9
	plusProductID  = 0x0084
)

const (
	NumKeys      = 8
	NumEncoders  = 4
	LCDWidth     = 800
	LCDHeight    = 100
	SegmentWidth = LCDWidth / NumEncoders
)

// Deck is the raw HID device.
type Deck struct {
	dev *usbhid.Device
}

func OpenDeck() (*Deck, error) {
	devices, err := usbhid.Enumerate(func(dev *usbhid.Device) bool {
		return dev.VendorId() == elgatoVendorID && dev.ProductId() == plusProductID
	})
	if err != nil {
		return nil, fmt.Errorf("streamdeck: enumerate: %w", err)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("streamdeck: no Stream Deck+ found")
	}

	dev := devices[0]
	if err := dev.Open(true); err != nil {
		return nil, fmt.Errorf("streamdeck: open: %w", err)
	}
	return &Deck{dev: dev}, nil
}

func (d *Deck) Close() error         { return d.dev.Close() }
func (d *Deck) SerialNumber() string { return d.dev.SerialNumber() }

func (d *Deck) SetBrightness(perc byte) error {
	if perc > 100 {
		perc = 100
	}
	pl := make([]byte, d.dev.GetFeatureReportLength())
	pl[0] = 0x08
	pl[1] = perc
	return d.dev.SetFeatureReport(3, pl)
}

func (d *Deck) Reset() error {
	pl := make([]byte, d.dev.GetFeatureReportLength())
	pl[0] = 0x02
	return d.dev.SetFeatureReport(3, pl)
}

// SetLCDImage scales img into the given LCD rectangle.
func (d *Deck) SetLCDImage(r image.Rectangle, img image.Image) error {
	scaled := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	xdraw.BiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: 90}); err != nil {
		return fmt.Errorf("streamdeck: encode: %w", err)
	}
	for _, report := range lcdReports(r, buf.Bytes(), int(d.dev.GetOutputReportLength())) {
		if err := d.dev.SetOutputReport(2, report); err != nil {
			return fmt.Errorf("streamdeck: write lcd: %w", err)
		}
	}
	return nil
}

// lcdReports splits a JPEG into padded output reports, each with a 16 byte
// header carrying the target rectangle, page number and last-page flag.
func lcdReports(r image.Rectangle, data []byte, reportLen int) [][]byte {
	const hdrLen = 16
	payloadLen := reportLen - hdrLen

	var reports [][]byte
	for start, page := 0, 0; start < len(data); page++ {
		end := min(start+payloadLen, len(data))
		last := byte(0)
		if end == len(data) {
			last = 1
		}

		report := make([]byte, reportLen)
		report[0] = 0x02
		report[1] = 0x0C
		binary.LittleEndian.PutUint16(report[2:], uint16(r.Min.X))
		binary.LittleEndian.PutUint16(report[4:], uint16(r.Min.Y))
		binary.LittleEndian.PutUint16(report[6:], uint16(r.Dx()))
		binary.LittleEndian.PutUint16(report[8:], uint16(r.Dy()))
		report[10] = last
		binary.LittleEndian.PutUint16(report[11:], uint16(page))
		binary.LittleEndian.PutUint16(report[13:], uint16(end-start))
		copy(report[hdrLen:], data[start:end])

		reports = append(reports, report)
		start = end
	}
	return reports
}

// ReadReport blocks until the next input report.
func (d *Deck) ReadReport() ([]byte, error) {
	_, buf, err := d.dev.GetInputReport()
	return buf, err
}
