package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/GoSim-25-26J-441/fast-controller/internal/simulation"
	"github.com/GoSim-25-26J-441/fast-controller/pkg/config"
	"github.com/GoSim-25-26J-441/fast-controller/pkg/logger"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func writeCSV(w io.Writer, res *simulation.Result, constraintIdx int) error {
	cw := csv.NewWriter(w)
	header := []string{"window", "workload", "constraint", "achieved", "error", "cost",
		"id_lower", "id_upper", "n_lower", "workload_estimate", "xup", "oscillating"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := range res.Records {
		r := &res.Records[i]
		row := []string{
			strconv.Itoa(r.Window),
			formatFloat(r.Workload),
			formatFloat(r.Constraint),
			formatFloat(r.Measures[constraintIdx]),
			formatFloat(r.Error(constraintIdx)),
			formatFloat(r.Cost),
			strconv.Itoa(r.Applied.IDLower),
			strconv.Itoa(r.Applied.IDUpper),
			strconv.Itoa(r.Applied.NLowerIterations),
			formatFloat(r.Estimate),
			formatFloat(r.Xup),
			strconv.FormatBool(r.Next.Oscillating),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeSweepCSV(w io.Writer, res *simulation.SweepResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"pole", res.Objective, "mean_abs_error", "oscillating_windows", "best"}); err != nil {
		return err
	}
	for _, pt := range res.Points {
		row := []string{
			formatFloat(pt.Pole),
			formatFloat(pt.Score),
			formatFloat(pt.Summary.MeanAbsError),
			strconv.Itoa(pt.Summary.OscillatingWindows),
			strconv.FormatBool(pt.Pole == res.Best.Pole),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshalling results: %w", err)
	}
	return nil
}

func parsePoles(list string) ([]float64, error) {
	var poles []float64
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		p, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid pole %q: %w", field, err)
		}
		poles = append(poles, p)
	}
	if len(poles) == 0 {
		return nil, errors.New("-sweep-poles needs at least one value")
	}
	return poles, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("fastsim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	controllerPath := fs.String("controller", "", "controller YAML file")
	scenarioPath := fs.String("scenario", "", "scenario YAML file")
	genJSON := fs.Bool("json", false, "print the trace and summary as JSON instead of CSV")
	logLevel := fs.String("log-level", "", "log level (debug, info, warn, error); defaults to the controller file's log_level, then warn")
	sweep := fs.String("sweep-poles", "", "comma separated poles to compare instead of a single run")
	objectiveName := fs.String("objective", string(simulation.ObjectiveMeanAbsError), "objective used to rank swept poles")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *controllerPath == "" || *scenarioPath == "" {
		return errors.New("both -controller and -scenario are required")
	}

	ctrlFile, err := config.LoadControllerFile(*controllerPath)
	if err != nil {
		return err
	}
	scenario, err := config.LoadScenario(*scenarioPath)
	if err != nil {
		return err
	}
	idx, err := ctrlFile.ConstraintIdx()
	if err != nil {
		return err
	}

	level := *logLevel
	if level == "" {
		level = ctrlFile.LogLevel
	}
	if level == "" {
		level = "warn"
	}
	runner := simulation.NewRunner(ctrlFile, scenario, logger.NewText(level, stderr))

	if *sweep != "" {
		poles, err := parsePoles(*sweep)
		if err != nil {
			return err
		}
		objective, err := simulation.NewObjective(*objectiveName)
		if err != nil {
			return err
		}
		res, err := runner.SweepPoles(ctx, poles, objective)
		if err != nil {
			return err
		}
		if *genJSON {
			return writeJSON(stdout, res)
		}
		return writeSweepCSV(stdout, res)
	}

	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	if *genJSON {
		return writeJSON(stdout, res)
	}
	return writeCSV(stdout, res, idx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
