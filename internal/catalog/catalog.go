// Package catalog reads the room seed file applied at startup.
//
// The file is a YAML list:
//
//	- name: Aurora
//	  capacity: 8
//	  open_time: "09:00"
//	  close_time: "18:00"
package catalog

import (
	"bytes"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/errs"
	"github.com/example/room-booking/internal/scheduler"
)

// ErrInvalidCatalog marks a seed file that cannot be decoded into rooms.
var ErrInvalidCatalog = errs.New("invalid room catalog")

type roomEntry struct {
	Name      string `yaml:"name"`
	Capacity  int    `yaml:"capacity"`
	OpenTime  string `yaml:"open_time"`
	CloseTime string `yaml:"close_time"`
}

// LoadFile reads and decodes the catalog at path.
func LoadFile(path string) ([]application.RoomInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrapf(err, "read room catalog %s", path)
	}
	inputs, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errs.Wrapf(err, "room catalog %s", path)
	}
	return inputs, nil
}

// Decode parses a catalog document. Unknown keys are rejected. Field level
// rules such as capacity bounds are left to RoomService.SeedRooms.
func Decode(r io.Reader) ([]application.RoomInput, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var entries []roomEntry
	if err := dec.Decode(&entries); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errs.Mark(errs.Wrap(err, "decode yaml"), ErrInvalidCatalog)
	}

	inputs := make([]application.RoomInput, 0, len(entries))
	for i, entry := range entries {
		open, err := scheduler.ParseTimeOfDay(entry.OpenTime)
		if err != nil {
			return nil, errs.Mark(errs.Wrapf(err, "room %d (%s): open_time", i, entry.Name), ErrInvalidCatalog)
		}
		closing, err := scheduler.ParseTimeOfDay(entry.CloseTime)
		if err != nil {
			return nil, errs.Mark(errs.Wrapf(err, "room %d (%s): close_time", i, entry.Name), ErrInvalidCatalog)
		}
		inputs = append(inputs, application.RoomInput{
			Name:      entry.Name,
			Capacity:  entry.Capacity,
			OpenTime:  open,
			CloseTime: closing,
		})
	}
	return inputs, nil
}
