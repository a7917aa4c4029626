// Package storage keeps the history of simulation runs in a SQLite file so
// they can be listed, plotted and replayed after the process exits.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/san-kum/osvsim/internal/osv"
	"github.com/san-kum/osvsim/internal/telemetry"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const dbFile = "runs.db"

var ErrNotFound = errors.New("run not found")

// Run is the metadata row of one simulation.
type Run struct {
	ID         string `gorm:"primaryKey"`
	ProgramID  string
	Preset     string
	StartedAt  time.Time `gorm:"index"`
	TickRate   float64
	Timeout    time.Duration
	FinalState string
	Frames     int
	StartX     float32
	StartY     float32
	StartTheta float32
	DestX      float32
	DestY      float32
	DestTheta  float32
	ArenaW     float32
	ArenaH     float32
	VehicleW   float32
	VehicleH   float32
	Overruns   int
	AvgTickUS  int64

	ControlEffort   float64
	PathLength      float64
	ClosestApproach float64

	Obstacles []ObstacleRecord `gorm:"foreignKey:RunID"`
}

// ObstacleRecord is one obstacle of a run's arena.
type ObstacleRecord struct {
	ID     uint   `gorm:"primaryKey"`
	RunID  string `gorm:"index"`
	X      float32
	Y      float32
	Width  float32
	Height float32
}

// NewRun captures the starting layout of arena.
func NewRun(id string, started time.Time, arena *osv.Arena) *Run {
	run := &Run{
		ID:         id,
		StartedAt:  started,
		StartX:     arena.Vehicle.Pose.X,
		StartY:     arena.Vehicle.Pose.Y,
		StartTheta: arena.Vehicle.Pose.Theta,
		DestX:      arena.Destination.X,
		DestY:      arena.Destination.Y,
		DestTheta:  arena.Destination.Theta,
		ArenaW:     arena.Width,
		ArenaH:     arena.Height,
		VehicleW:   arena.Vehicle.Width,
		VehicleH:   arena.Vehicle.Height,
	}
	for _, o := range arena.Obstacles {
		run.Obstacles = append(run.Obstacles, ObstacleRecord{
			X: o.Origin.X, Y: o.Origin.Y, Width: o.Width, Height: o.Height,
		})
	}
	return run
}

// Arena rebuilds the run's starting arena.
func (r *Run) Arena() *osv.Arena {
	a := &osv.Arena{
		Vehicle: osv.Vehicle{
			Pose:   osv.Pose{X: r.StartX, Y: r.StartY, Theta: r.StartTheta},
			Width:  r.VehicleW,
			Height: r.VehicleH,
		},
		Destination: osv.Pose{X: r.DestX, Y: r.DestY, Theta: r.DestTheta},
		Width:       r.ArenaW,
		Height:      r.ArenaH,
	}
	for _, o := range r.Obstacles {
		a.Obstacles = append(a.Obstacles, osv.Obstacle{
			Origin: osv.Coordinate{X: o.X, Y: o.Y},
			Width:  o.Width,
			Height: o.Height,
		})
	}
	return a
}

// FrameRecord is one persisted telemetry frame.
type FrameRecord struct {
	ID       uint   `gorm:"primaryKey"`
	RunID    string `gorm:"index"`
	FrameNo  int
	X        float32
	Y        float32
	Theta    float32
	LeftPWM  int16
	RightPWM int16
}

// ConsoleLine is a println message sent by the control program.
type ConsoleLine struct {
	ID      uint   `gorm:"primaryKey"`
	RunID   string `gorm:"index"`
	FrameNo int
	Text    string
}

type Store struct {
	baseDir string
	db      *gorm.DB
	log     zerolog.Logger
}

func New(baseDir string, log zerolog.Logger) *Store {
	return &Store{baseDir: baseDir, log: log}
}

// Init creates the data directory, opens the database and migrates the
// schema.
func (s *Store) Init() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return err
	}

	path := filepath.Join(s.baseDir, dbFile)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Run{}, &ObstacleRecord{}, &FrameRecord{}, &ConsoleLine{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	s.db = db
	s.log.Debug().Str("path", path).Msg("run store ready")
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewRunID derives a unique id from a label and the start time.
func NewRunID(label string, started time.Time) string {
	if label == "" {
		label = "run"
	}
	return fmt.Sprintf("%s_%d", label, started.UnixNano())
}

// Save writes a run with its frames and console lines in one transaction.
func (s *Store) Save(run *Run, frames []telemetry.Frame, lines []ConsoleLine) error {
	run.Frames = len(frames)

	records := make([]FrameRecord, len(frames))
	for i, f := range frames {
		records[i] = FrameRecord{
			RunID:    run.ID,
			FrameNo:  f.FrameNo,
			X:        f.OSV.X,
			Y:        f.OSV.Y,
			Theta:    f.OSV.Theta,
			LeftPWM:  f.LeftPWM,
			RightPWM: f.RightPWM,
		}
	}
	for i := range lines {
		lines[i].RunID = run.ID
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return fmt.Errorf("save run %s: %w", run.ID, err)
		}
		if len(records) > 0 {
			if err := tx.CreateInBatches(records, 2000).Error; err != nil {
				return fmt.Errorf("save frames: %w", err)
			}
		}
		if len(lines) > 0 {
			if err := tx.Create(&lines).Error; err != nil {
				return fmt.Errorf("save console: %w", err)
			}
		}
		return nil
	})
}

// List returns all runs, newest first.
func (s *Store) List() ([]Run, error) {
	var runs []Run
	if err := s.db.Order("started_at desc").Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*Run, error) {
	var run Run
	err := s.db.Preload("Obstacles").Where("id = ?", runID).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Latest returns the most recently started run.
func (s *Store) Latest() (*Run, error) {
	var run Run
	err := s.db.Preload("Obstacles").Order("started_at desc").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *Store) LoadFrames(runID string) ([]telemetry.Frame, error) {
	var records []FrameRecord
	if err := s.db.Where("run_id = ?", runID).Order("frame_no").Find(&records).Error; err != nil {
		return nil, err
	}

	frames := make([]telemetry.Frame, len(records))
	for i, r := range records {
		frames[i] = telemetry.Frame{
			FrameNo:  r.FrameNo,
			OSV:      telemetry.Pose{X: r.X, Y: r.Y, Theta: r.Theta},
			LeftPWM:  r.LeftPWM,
			RightPWM: r.RightPWM,
		}
	}
	return frames, nil
}

func (s *Store) LoadConsole(runID string) ([]ConsoleLine, error) {
	var lines []ConsoleLine
	if err := s.db.Where("run_id = ?", runID).Order("id").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// Delete removes a run and everything recorded for it.
func (s *Store) Delete(runID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", runID).Delete(&Run{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		if err := tx.Where("run_id = ?", runID).Delete(&ObstacleRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("run_id = ?", runID).Delete(&FrameRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("run_id = ?", runID).Delete(&ConsoleLine{}).Error
	})
}
