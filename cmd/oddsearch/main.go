// Package main provides the CLI entrypoint for oddsearch.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/oddsearch/internal/config"
	"github.com/verte-zerg/oddsearch/internal/eventlog"
	"github.com/verte-zerg/oddsearch/internal/experiment"
	"github.com/verte-zerg/oddsearch/internal/model"
	"github.com/verte-zerg/oddsearch/internal/statsui"
	"github.com/verte-zerg/oddsearch/internal/store"
	"github.com/verte-zerg/oddsearch/internal/tui"
)

const (
	defaultFieldWidth      = 300.0
	defaultFieldHeight     = 300.0
	defaultStimulusSize    = 12.0
	defaultStimulusSpacing = 20.0
	defaultTargetSpacing   = 60.0
	defaultRotationStep    = 45.0
	defaultTargetRotation  = 90.0
	defaultStimuli         = 12
	defaultTargets         = 3
	defaultRepetitions     = 3
	defaultSerialTime      = 1.0
	defaultCurveWindow     = 5
)

var (
	runStimuli        int
	runTargets        int
	runRepetitions    int
	runFieldWidth     float64
	runFieldHeight    float64
	runStimulusSize   float64
	runSpacing        float64
	runTargetSpacing  float64
	runRotationStep   float64
	runTargetRotation float64
	runSerial         bool
	runSerialTime     float64

	statsLast        int
	statsCurveWindow int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "oddsearch",
		Short:         "TUI visual search experiment",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runExperimentCmd,
	}

	addTrialFlags(rootCmd)

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newSimulateCmd())

	return rootCmd
}

func addTrialFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&runStimuli, "stimuli", defaultStimuli, "distractors per trial")
	cmd.Flags().IntVar(&runTargets, "targets", defaultTargets, "targets per trial")
	cmd.Flags().IntVar(&runRepetitions, "repetitions", defaultRepetitions, "repetitions of each trial type")
	cmd.Flags().Float64Var(&runFieldWidth, "field-width", defaultFieldWidth, "field width")
	cmd.Flags().Float64Var(&runFieldHeight, "field-height", defaultFieldHeight, "field height")
	cmd.Flags().Float64Var(&runStimulusSize, "stimulus-size", defaultStimulusSize, "stimulus diameter")
	cmd.Flags().Float64Var(&runSpacing, "min-spacing", defaultStimulusSpacing, "minimum distance between stimuli")
	cmd.Flags().Float64Var(&runTargetSpacing, "target-spacing", defaultTargetSpacing, "minimum distance between targets")
	cmd.Flags().Float64Var(&runRotationStep, "rotation-step", defaultRotationStep, "distractor rotation step (degrees)")
	cmd.Flags().Float64Var(&runTargetRotation, "target-rotation", defaultTargetRotation, "target rotation (multiple of 90)")
	cmd.Flags().BoolVar(&runSerial, "serial", false, "present stimuli one at a time")
	cmd.Flags().Float64Var(&runSerialTime, "serial-time", defaultSerialTime, "seconds each stimulus is shown in serial mode")
}

func runExperimentCmd(cmd *cobra.Command, _ []string) error {
	trialTypes, repetitions, consts, err := resolveExperiment(cmd)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	log := eventlog.New()
	disp := tui.NewDisplay()
	sess, err := experiment.New(trialTypes, repetitions, consts, disp, log, nil)
	if err != nil {
		return err
	}

	m := tui.NewModel(sess, st, log, trialTypes[0].Region, disp)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if err := m.SaveErr(); err != nil {
		return fmt.Errorf("run finished but was not saved: %w", err)
	}
	return nil
}

// resolveExperiment merges CLI flags with the TOML profile into the trial
// sequence inputs. TOML [[experiment.trials]] blocks replace the single
// flag-built trial type; field geometry and scoring always come from the
// merged values.
func resolveExperiment(cmd *cobra.Command) ([]model.TrialConfiguration, int, experiment.Constants, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, 0, experiment.Constants{}, fmt.Errorf("failed to load config: %w", err)
	}

	applyIntConfig(cmd, "repetitions", &runRepetitions, fileCfg.Experiment.Repetitions)
	applyFloatConfig(cmd, "field-width", &runFieldWidth, fileCfg.Field.Width)
	applyFloatConfig(cmd, "field-height", &runFieldHeight, fileCfg.Field.Height)
	applyFloatConfig(cmd, "stimulus-size", &runStimulusSize, fileCfg.Field.StimulusSize)
	applyFloatConfig(cmd, "min-spacing", &runSpacing, fileCfg.Field.MinStimulusSpacing)
	applyFloatConfig(cmd, "target-spacing", &runTargetSpacing, fileCfg.Field.MinTargetSpacing)
	applyFloatConfig(cmd, "rotation-step", &runRotationStep, fileCfg.Field.RotationStep)
	applyFloatConfig(cmd, "target-rotation", &runTargetRotation, fileCfg.Field.TargetRotation)

	base := model.TrialConfiguration{
		Region: model.Rect{
			Min: model.Point{X: 0, Y: 0},
			Max: model.Point{X: runFieldWidth, Y: runFieldHeight},
		},
		StimulusCount:      runStimuli,
		TargetCount:        runTargets,
		StimulusSize:       runStimulusSize,
		MinStimulusSpacing: runSpacing,
		MinTargetSpacing:   runTargetSpacing,
		RotationStep:       runRotationStep,
		TargetRotation:     runTargetRotation,
		Serial:             runSerial,
		SerialTime:         runSerialTime,
	}

	trialTypes := []model.TrialConfiguration{base}
	if len(fileCfg.Experiment.Trials) > 0 {
		trialTypes = trialTypes[:0]
		for _, tc := range fileCfg.Experiment.Trials {
			cfg := base
			if tc.StimulusCount != nil {
				cfg.StimulusCount = *tc.StimulusCount
			}
			if tc.TargetCount != nil {
				cfg.TargetCount = *tc.TargetCount
			}
			if tc.Serial != nil {
				cfg.Serial = *tc.Serial
			}
			if tc.SerialTime != nil {
				cfg.SerialTime = *tc.SerialTime
			}
			trialTypes = append(trialTypes, cfg)
		}
	}
	for _, cfg := range trialTypes {
		if err := cfg.Validate(); err != nil {
			return nil, 0, experiment.Constants{}, err
		}
	}

	consts := resolveConstants(fileCfg.Scoring)
	return trialTypes, runRepetitions, consts, nil
}

func resolveConstants(sc config.ScoringConfig) experiment.Constants {
	consts := experiment.DefaultConstants()
	if sc.AirtimePenalty != nil {
		consts.AirtimePenalty = *sc.AirtimePenalty
	}
	if sc.TimePenalty != nil {
		consts.TimePenalty = *sc.TimePenalty
	}
	if sc.MissPenalty != nil {
		consts.MissPenalty = *sc.MissPenalty
	}
	if sc.HitScore != nil {
		consts.HitScore = *sc.HitScore
	}
	if sc.DistanceScore != nil {
		consts.DistanceScore = *sc.DistanceScore
	}
	return consts
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Browse past runs",
		RunE:  runStatsCmd,
	}
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N runs")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	return cmd
}

func runStatsCmd(_ *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	cfg := model.ReportConfig{
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}
	m := statsui.NewModel(st, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# oddsearch configuration
# Uncomment a value to enable it. CLI flags override config values.

[scoring]
# airtime-penalty = %.1f   # Points lost per second away from the home key
# time-penalty = %.1f      # Points lost per second of search time
# miss-penalty = %.1f      # Points lost per tapped distractor
# hit-score = %.1f         # Points gained per tapped target
# distance-score = %.1f    # Extra points scaled by tap precision

[field]
# width = %.1f
# height = %.1f
# stimulus-size = %.1f
# min-stimulus-spacing = %.1f
# min-target-spacing = %.1f
# rotation-step = %.1f     # Distractor rotation step (degrees)
# target-rotation = %.1f   # Target rotation (multiple of 90)

[experiment]
# repetitions = %d

# Each [[experiment.trials]] block adds one trial type; the sequence mixes
# all of them. Without any block a single type is built from the CLI flags.
# [[experiment.trials]]
# stimulus-count = %d
# target-count = %d
# serial = false
# serial-time = %.1f
`,
		1.0, 0.5, 5.0, 10.0, 5.0,
		defaultFieldWidth, defaultFieldHeight, defaultStimulusSize,
		defaultStimulusSpacing, defaultTargetSpacing, defaultRotationStep, defaultTargetRotation,
		defaultRepetitions,
		defaultStimuli, defaultTargets, defaultSerialTime,
	)
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
