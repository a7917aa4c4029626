package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/osvsim/internal/logging"
	"github.com/san-kum/osvsim/internal/storage"
	"github.com/san-kum/osvsim/internal/telemetry"
	"github.com/san-kum/osvsim/internal/viz"
	"github.com/spf13/cobra"
)

// openStore opens the run history for the read-only commands.
func openStore(cmd *cobra.Command) (*storage.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	// History commands only log to the console.
	log, _, err := logging.New(os.Stderr, cfg.LogLevel, "")
	if err != nil {
		return nil, err
	}

	st := storage.New(cfg.DataDir, logging.Component(log, "storage"))
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

// resolveRun loads the named run, or the latest one when args is empty.
func resolveRun(st *storage.Store, args []string) (*storage.Run, error) {
	if len(args) == 0 {
		return st.Latest()
	}
	return st.Load(args[0])
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	fmt.Println(viz.HeaderStyle.Render("recorded runs"))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROGRAM\tSTARTED\tRATE\tFRAMES\tSTATE\tPATH\tCLOSEST\tOVERRUNS")
	for _, run := range runs {
		program := run.ProgramID
		if program == "" {
			program = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0fHz\t%d\t%s\t%.2fm\t%.2fm\t%d\n",
			run.ID,
			program,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.TickRate,
			run.Frames,
			run.FinalState,
			run.PathLength,
			run.ClosestApproach,
			run.Overruns,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(run.ID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("run %s has no frames to plot", run.ID)
	}

	fmt.Printf("run: %s\n", run.ID)
	fmt.Printf("frames: %d at %.0fHz\n", len(frames), run.TickRate)
	fmt.Printf("final state: %s\n", run.FinalState)
	fmt.Printf("path: %.3fm  closest to destination: %.3fm  effort: %.1f\n\n", run.PathLength, run.ClosestApproach, run.ControlEffort)

	series := []struct {
		caption string
		value   func(telemetry.Frame) float32
	}{
		{"x (m)", func(f telemetry.Frame) float32 { return f.OSV.X }},
		{"y (m)", func(f telemetry.Frame) float32 { return f.OSV.Y }},
		{"theta (rad)", func(f telemetry.Frame) float32 { return f.OSV.Theta }},
	}
	for _, s := range series {
		data := make([]float64, len(frames))
		for i, f := range frames {
			data[i] = float64(s.value(f))
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(run.ID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("run %s has no frames to export", run.ID)
	}

	rows := make([]telemetry.Row, len(frames))
	for i, f := range frames {
		rows[i] = f.Row()
	}
	return telemetry.WriteRows(os.Stdout, rows)
}

func replayRun(cmd *cobra.Command, args []string) error {
	if !viz.SetTheme(theme) {
		return fmt.Errorf("unknown theme %q (have %v)", theme, viz.ThemeNames())
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(run.ID)
	if err != nil {
		return err
	}
	lines, err := st.LoadConsole(run.ID)
	if err != nil {
		return err
	}

	console := make([]viz.ConsoleLine, len(lines))
	for i, l := range lines {
		console[i] = viz.ConsoleLine{Frame: l.FrameNo, Text: l.Text}
	}

	interval := 20 * time.Millisecond
	if run.TickRate > 0 {
		interval = time.Duration(float64(time.Second) / run.TickRate)
	}
	return viz.RunReplay(viz.NewReplay(run.ID, run.Arena(), frames, console, interval))
}

func deleteRun(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}
