package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/osvsim/internal/config"
	"github.com/san-kum/osvsim/internal/osv"
)

const sample = `{
	"type": "simulation",
	"id": "run42",
	"code": "void setup() {}\nvoid loop() {}",
	"randomization": {
		"osv": {"x": 0.35, "y": 0.7, "theta": -3.1415901184082031},
		"obstacles": [
			{"x": 1.5, "y": 1.25},
			{"x": 2.05, "y": 1.9, "width": 0.3, "height": 0.4}
		],
		"destination": {"x": 3.4056000709533691, "y": 0.49000000953674316}
	}
}`

func TestParse(t *testing.T) {
	cfg := config.DefaultConfig()
	req, err := Parse([]byte(sample), cfg, Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if req.ID != "run42" {
		t.Errorf("id = %q", req.ID)
	}
	if !strings.Contains(req.Code, "void loop()") {
		t.Errorf("code not preserved: %q", req.Code)
	}

	a := req.Arena
	if a.Vehicle.Pose != (osv.Pose{X: 0.35, Y: 0.7, Theta: -3.1415901184082031}) {
		t.Errorf("start pose %+v", a.Vehicle.Pose)
	}
	if a.Destination.X != float32(3.4056000709533691) {
		t.Errorf("destination %+v", a.Destination)
	}
	if a.Vehicle.Width != 0.25 || a.Vehicle.Height != 0.35 {
		t.Errorf("vehicle size %fx%f", a.Vehicle.Width, a.Vehicle.Height)
	}
	if a.Width != 4 || a.Height != 2 {
		t.Errorf("arena size %fx%f", a.Width, a.Height)
	}

	if len(a.Obstacles) != 2 {
		t.Fatalf("expected 2 obstacles, got %d", len(a.Obstacles))
	}
	if a.Obstacles[0].Width != 0.2 || a.Obstacles[0].Height != 0.5 {
		t.Errorf("default obstacle size not applied: %+v", a.Obstacles[0])
	}
	if a.Obstacles[1].Width != 0.3 || a.Obstacles[1].Height != 0.4 {
		t.Errorf("explicit obstacle size lost: %+v", a.Obstacles[1])
	}

	for i, on := range a.Vehicle.Sensors {
		if !on {
			t.Errorf("sensor %d should default to enabled", i)
		}
	}
}

func TestParseSensorFlags(t *testing.T) {
	doc := `{"id":"a","code":"x","randomization":{"osv":{"x":1,"y":1},"destination":{"x":2,"y":1}},
		"distance_sensors":[true,false,true,false,true,false,true,false,true,false,true,false]}`

	req, err := Parse([]byte(doc), config.DefaultConfig(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	for i, on := range req.Arena.Vehicle.Sensors {
		if on != (i%2 == 0) {
			t.Errorf("sensor %d = %v", i, on)
		}
	}
}

func TestParseSetupErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		opts Options
	}{
		{"not json", `this is a terribly formatted request`, Options{}},
		{"wrong type", `{"type":"randomization"}`, Options{}},
		{"missing id", `{"code":"x","randomization":{}}`, Options{}},
		{"path id", `{"id":"../x","code":"x","randomization":{}}`, Options{}},
		{"missing code", `{"id":"a","randomization":{}}`, Options{}},
		{"missing randomization", `{"id":"a","code":"x"}`, Options{}},
		{"missing osv", `{"id":"a","code":"x","randomization":{"destination":{"x":1,"y":1}}}`, Options{}},
		{"missing destination", `{"id":"a","code":"x","randomization":{"osv":{"x":1,"y":1}}}`, Options{}},
		{"partial osv", `{"id":"a","code":"x","randomization":{"osv":{"x":1},"destination":{"x":1,"y":1}}}`, Options{}},
		{"obstacle without y", `{"randomization":{"osv":{"x":1,"y":1},"destination":{"x":1,"y":1},"obstacles":[{"x":1}]}}`, Options{Prebuilt: true}},
		{"negative obstacle", `{"randomization":{"osv":{"x":1,"y":1},"destination":{"x":1,"y":1},"obstacles":[{"x":1,"y":1,"width":-1}]}}`, Options{Prebuilt: true}},
		{"short sensors", `{"randomization":{"osv":{"x":1,"y":1},"destination":{"x":1,"y":1}},"distance_sensors":[true]}`, Options{Prebuilt: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), config.DefaultConfig(), tt.opts)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, osv.ErrSetup) {
				t.Errorf("expected ErrSetup, got %v", err)
			}
		})
	}
}

func TestParsePrebuiltSkipsCode(t *testing.T) {
	doc := `{"randomization":{"osv":{"x":1,"y":1},"destination":{"x":2,"y":1}}}`
	req, err := Parse([]byte(doc), config.DefaultConfig(), Options{Prebuilt: true})
	if err != nil {
		t.Fatal(err)
	}
	if req.ID != "" || req.Code != "" {
		t.Errorf("unexpected id/code %q %q", req.ID, req.Code)
	}
}

func TestRead(t *testing.T) {
	req, err := Read(strings.NewReader(sample), config.DefaultConfig(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(req.Arena.Obstacles) != 2 {
		t.Errorf("expected 2 obstacles, got %d", len(req.Arena.Obstacles))
	}
}

func TestFromPreset(t *testing.T) {
	cfg := config.DefaultConfig()
	a := FromPreset(config.GetPreset("slalom"), cfg)

	if len(a.Obstacles) != 3 {
		t.Fatalf("expected 3 obstacles, got %d", len(a.Obstacles))
	}
	if a.Obstacles[0].Width != float32(cfg.Obstacle.Width) {
		t.Errorf("obstacle width %f", a.Obstacles[0].Width)
	}
	if a.Vehicle.Pose.X != 0.35 || a.Vehicle.Pose.Y != 0.5 {
		t.Errorf("start pose %+v", a.Vehicle.Pose)
	}
	if !a.Vehicle.Sensors[11] {
		t.Error("preset sensors should be enabled")
	}
}
