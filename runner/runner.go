// Package runner - Batch-Treiber fuer Optimierungs-Faelle
//
// Diese Datei enthaelt:
// - Case/CaseResult: Ein Fall aus der Konfigurationsdatei und sein Ausgang
// - ParseConfig: Liest die Faelle (eine Zeile: <input> <limit>)
// - Run: Fuehrt alle Faelle aus und druckt die Zusammenfassung
// - RunCase: Laden, Kanonisieren, Optimieren, Rekonstruieren, Schreiben
package runner

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/sync/errgroup"

	"github.com/LyricZhao/DLMO/envconfig"
	"github.com/LyricZhao/DLMO/format"
	"github.com/LyricZhao/DLMO/optimizer"
	"github.com/LyricZhao/DLMO/schedule"
)

// Case ist ein Optimierungs-Fall: Eingabedatei und Speicher-Budget
type Case struct {
	Input string
	Limit uint64
}

// CaseResult haelt die Kennzahlen eines abgeschlossenen Falls
type CaseResult struct {
	Case      Case
	Output    string
	Operators int
	Peak      uint64
	Time      time.Duration
	Searched  int
	Satisfied bool
}

// ParseConfig liest die Konfigurationsdatei: ein Fall pro Zeile als
// "<input_path> <memory_limit>". Leere Zeilen und #-Kommentare werden
// uebersprungen.
func ParseConfig(r io.Reader) ([]Case, error) {
	var cases []Case
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("config line %d: want \"<input_path> <memory_limit>\", got %q", lineno, line)
		}
		limit, err := format.ParseBytes(fields[1])
		if err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineno, err)
		}
		cases = append(cases, Case{Input: fields[0], Limit: limit})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cases, nil
}

// OutputPath leitet den Ausgabepfad eines Falls aus der Eingabe ab
func OutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + ".out.json"
}

// Run fuehrt alle Faelle der Konfigurationsdatei aus. Faelle laufen
// mit DLMO_PARALLEL Workern; jeder Optimizer bleibt sequenziell.
func Run(configPath string) error {
	f, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	cases, err := ParseConfig(f)
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		return fmt.Errorf("no cases in %s", configPath)
	}

	results := make([]*CaseResult, len(cases))
	var g errgroup.Group
	g.SetLimit(max(int(envconfig.Parallel()), 1))
	for i, c := range cases {
		g.Go(func() error {
			result, err := RunCase(c, OutputPath(c.Input))
			if err != nil {
				return fmt.Errorf("case %s: %w", c.Input, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	printSummary(results)
	return nil
}

// RunCase bearbeitet einen Fall: Laden, Kanonisieren, Suche, Ausgabe-
// Rekonstruktion mit Selbsttest, Serialisierung.
func RunCase(c Case, outputPath string) (*CaseResult, error) {
	in, err := os.Open(c.Input)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	sched, err := schedule.Load(in)
	if err != nil {
		return nil, err
	}
	operators := sched.Len()

	if err := sched.Canonicalize(); err != nil {
		return nil, err
	}

	opt := optimizer.New(c.Limit)
	fmt.Printf("Running case %s (%d operators) with %s ...\n", c.Input, operators, opt.Name())

	result, err := opt.Optimize(sched)
	if err != nil {
		return nil, err
	}

	best := result.Best
	bestInfo := best.Info()
	peak := best.PeakMemory()
	totalTime := best.TotalTime()

	if err := best.RestoreDealloc(); err != nil {
		return nil, err
	}
	if err := best.Check(); err != nil {
		return nil, err
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return nil, err
	}
	defer out.Close()
	if err := best.Save(out); err != nil {
		return nil, err
	}

	fmt.Printf(" > Result:\n")
	fmt.Printf("   > Schedules searched: %d\n", result.Searched)
	fmt.Printf("   > Time used: %s\n", format.HumanNanoseconds(result.Elapsed))
	fmt.Printf("   > Best: {%s}\n", bestInfo)
	fmt.Printf("   > Satisfy: %v\n", result.Satisfied)

	return &CaseResult{
		Case:      c,
		Output:    outputPath,
		Operators: operators,
		Peak:      peak,
		Time:      totalTime,
		Searched:  result.Searched,
		Satisfied: result.Satisfied,
	}, nil
}

// printSummary druckt die Abschluss-Tabelle aller Faelle
func printSummary(results []*CaseResult) {
	var data [][]string
	for _, r := range results {
		data = append(data, []string{
			r.Case.Input,
			fmt.Sprintf("%d", r.Operators),
			format.HumanBytes2(r.Peak),
			format.HumanNanoseconds(r.Time),
			fmt.Sprintf("%d", r.Searched),
			fmt.Sprintf("%v", r.Satisfied),
		})
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"CASE", "OPERATORS", "PEAK", "TIME", "SEARCHED", "SATISFY"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}
